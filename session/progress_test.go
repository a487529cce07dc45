package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPercentClampsAndHandlesZeroSize(t *testing.T) {
	assert.Equal(t, float64(0), Percent(0, 1000))
	assert.Equal(t, float64(50), Percent(500, 1000))
	assert.Equal(t, float64(100), Percent(1000, 1000))
	// Counter can never exceed file size, but arithmetic stays defensive.
	assert.Equal(t, float64(100), Percent(2000, 1000))
	assert.Equal(t, float64(0), Percent(-1, 1000))
	// A zero-byte file is complete the moment it exists.
	assert.Equal(t, float64(100), Percent(0, 0))
}

func TestSpeedIsCumulativeAverage(t *testing.T) {
	assert.Equal(t, float64(0), Speed(1000, 0))
	assert.Equal(t, float64(0), Speed(1000, -time.Second))
	assert.Equal(t, float64(500), Speed(1000, 2*time.Second))
}

func TestTotalChunks(t *testing.T) {
	assert.Equal(t, 0, TotalChunks(0, 1_000_000))
	assert.Equal(t, 1, TotalChunks(1, 1_000_000))
	assert.Equal(t, 1, TotalChunks(1_000_000, 1_000_000))
	assert.Equal(t, 2, TotalChunks(1_000_001, 1_000_000))
	assert.Equal(t, 3, TotalChunks(3_000_000, 1_000_000))
}

func TestChunkPayloadSize(t *testing.T) {
	assert.Equal(t, int64(1_000_000), ChunkPayloadSize(2_500_000, 1_000_000, 0))
	assert.Equal(t, int64(1_000_000), ChunkPayloadSize(2_500_000, 1_000_000, 1))
	assert.Equal(t, int64(500_000), ChunkPayloadSize(2_500_000, 1_000_000, 2))
	assert.Equal(t, int64(0), ChunkPayloadSize(2_500_000, 1_000_000, 3))
	assert.Equal(t, int64(0), ChunkPayloadSize(2_500_000, 1_000_000, -1))
}
