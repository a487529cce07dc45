package session

import "time"

// Percent derives percent-complete from the authoritative byte counter.
// A zero-byte file is complete the moment it exists, so it reports 100
// instead of dividing by zero. The result is clamped to [0, 100].
func Percent(transferred, fileSize int64) float64 {
	if fileSize <= 0 {
		return 100
	}
	percent := 100 * float64(transferred) / float64(fileSize)
	if percent < 0 {
		return 0
	}
	if percent > 100 {
		return 100
	}
	return percent
}

// Speed returns the cumulative average throughput in bytes per second since
// transfer start. Deliberately not a windowed rate: a progress bar wants a
// jitter-free number more than it wants to react to momentary slowdowns.
func Speed(transferred int64, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	return float64(transferred) / elapsed.Seconds()
}

// TotalChunks is the number of chunks a file of fileSize splits into.
func TotalChunks(fileSize, chunkSize int64) int {
	if fileSize <= 0 || chunkSize <= 0 {
		return 0
	}
	return int((fileSize + chunkSize - 1) / chunkSize)
}

// ChunkPayloadSize is the exact expected payload size for the chunk at index.
func ChunkPayloadSize(fileSize, chunkSize int64, index int) int64 {
	total := TotalChunks(fileSize, chunkSize)
	if index < 0 || index >= total {
		return 0
	}
	if index == total-1 {
		return fileSize - int64(total-1)*chunkSize
	}
	return chunkSize
}
