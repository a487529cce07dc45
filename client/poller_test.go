package client

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moyoez/codedrop/types"
)

func snapshotWith(status types.SessionStatus, transferred int64, peer bool) types.SessionSnapshot {
	return types.SessionSnapshot{
		Code:             "123456",
		Status:           status,
		FileSize:         3_000_000,
		TransferredBytes: transferred,
		ProgressPercent:  100 * float64(transferred) / 3_000_000,
		PeerConnected:    peer,
	}
}

func countingHooks() (Hooks, *atomic.Int32, *atomic.Int32, *atomic.Int32, *atomic.Int32) {
	var peer, started, completed, cancelled atomic.Int32
	hooks := Hooks{
		OnPeerConnected:   func() { peer.Add(1) },
		OnTransferStarted: func() { started.Add(1) },
		OnCompleted:       func(types.SessionSnapshot) { completed.Add(1) },
		OnCancelled:       func(types.SessionStatus) { cancelled.Add(1) },
	}
	return hooks, &peer, &started, &completed, &cancelled
}

func TestPollerFiresEdgesExactlyOnce(t *testing.T) {
	hooks, peer, started, completed, _ := countingHooks()
	p := NewPoller(nil, time.Second, hooks)

	// The same observation applied repeatedly only fires on the edge.
	p.Apply(1, snapshotWith(types.StatusWaitingPeer, 0, true))
	p.Apply(2, snapshotWith(types.StatusWaitingPeer, 0, true))
	assert.Equal(t, int32(1), peer.Load())

	p.Apply(3, snapshotWith(types.StatusTransferring, 1_000_000, true))
	p.Apply(4, snapshotWith(types.StatusTransferring, 1_000_000, true))
	assert.Equal(t, int32(1), started.Load())

	p.Apply(5, snapshotWith(types.StatusCompleted, 3_000_000, true))
	p.Apply(6, snapshotWith(types.StatusCompleted, 3_000_000, true))
	assert.Equal(t, int32(1), completed.Load())

	select {
	case <-p.Done():
	default:
		t.Fatal("poller must stop after a terminal state")
	}
}

func TestPollerDiscardsStaleResponse(t *testing.T) {
	var lastBytes atomic.Int64
	hooks := Hooks{
		OnProgress: func(transferred int64, percent float64) { lastBytes.Store(transferred) },
	}
	p := NewPoller(nil, time.Second, hooks)

	p.Apply(1, snapshotWith(types.StatusTransferring, 500_000, true))
	p.Apply(3, snapshotWith(types.StatusTransferring, 1_500_000, true))
	// A delayed response from an earlier fetch arrives after a newer one.
	p.Apply(2, snapshotWith(types.StatusTransferring, 1_000_000, true))

	assert.Equal(t, int64(1_500_000), lastBytes.Load())
	assert.Equal(t, int64(1_500_000), p.View().TransferredBytes)
}

func TestPollerProgressNeverRegresses(t *testing.T) {
	p := NewPoller(nil, time.Second, Hooks{})

	p.Apply(1, snapshotWith(types.StatusTransferring, 1_500_000, true))
	// Same-sequence hint carrying an older counter must not move it back.
	p.ApplyProgress(1_000_000, 33.3)

	assert.Equal(t, int64(1_500_000), p.View().TransferredBytes)

	p.ApplyProgress(2_000_000, 66.6)
	assert.Equal(t, int64(2_000_000), p.View().TransferredBytes)
}

func TestPollerCancelledStatusFiresOnce(t *testing.T) {
	hooks, _, _, _, cancelled := countingHooks()
	p := NewPoller(nil, time.Second, hooks)

	p.Apply(1, snapshotWith(types.StatusCancelled, 0, true))
	p.Apply(2, snapshotWith(types.StatusCancelled, 0, true))
	p.Apply(3, snapshotWith(types.StatusExpired, 0, true))

	assert.Equal(t, int32(1), cancelled.Load())
}

func TestPollerRunStopsOnTerminal(t *testing.T) {
	responses := []types.SessionSnapshot{
		snapshotWith(types.StatusWaitingPeer, 0, false),
		snapshotWith(types.StatusTransferring, 1_000_000, true),
		snapshotWith(types.StatusCompleted, 3_000_000, true),
	}
	var calls atomic.Int32
	fetch := func(ctx context.Context) (types.SessionSnapshot, error) {
		n := calls.Add(1)
		if int(n) > len(responses) {
			t.Error("poller kept fetching after terminal state")
			return responses[len(responses)-1], nil
		}
		return responses[n-1], nil
	}

	hooks, _, started, completed, _ := countingHooks()
	p := NewPoller(fetch, 5*time.Millisecond, hooks)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	go p.Run(ctx)

	select {
	case <-p.Done():
	case <-ctx.Done():
		t.Fatal("poller did not reach terminal state in time")
	}
	require.Equal(t, int32(1), started.Load())
	require.Equal(t, int32(1), completed.Load())
}

func TestPollerNudgeTriggersImmediatePoll(t *testing.T) {
	var calls atomic.Int32
	fetch := func(ctx context.Context) (types.SessionSnapshot, error) {
		calls.Add(1)
		return snapshotWith(types.StatusWaitingPeer, 0, false), nil
	}
	p := NewPoller(fetch, time.Hour, Hooks{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	require.Eventually(t, func() bool { return calls.Load() >= 1 }, time.Second, 5*time.Millisecond)
	p.Nudge()
	require.Eventually(t, func() bool { return calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
}
