package session

import (
	"github.com/moyoez/codedrop/tool"
	"github.com/moyoez/codedrop/types"
)

// IngestChunk accepts one chunk for a transferring session and returns the
// updated byte counter and percent-complete.
//
// The engine keeps a received-set keyed by chunk index instead of a running
// add: duplicate and out-of-order indices are accepted, and a retransmitted
// index never moves the counter. That is what makes client-side retries of a
// failed upload safe.
func (r *Registry) IngestChunk(code string, index int, payload []byte) (int64, float64, error) {
	t, err := r.lookup(code)
	if err != nil {
		return 0, 0, err
	}

	t.mu.Lock()
	if err := r.expireLocked(t); err != nil {
		t.mu.Unlock()
		return 0, 0, err
	}
	if t.status != types.StatusTransferring {
		t.mu.Unlock()
		return 0, 0, ErrInvalidState
	}
	if index < 0 || index >= t.totalChunks {
		t.mu.Unlock()
		return 0, 0, ErrInvalidIndex
	}
	if int64(len(payload)) != ChunkPayloadSize(t.fileSize, r.policy.ChunkSize, index) {
		t.mu.Unlock()
		return 0, 0, ErrInvalidChunkSize
	}

	if r.chunks != nil {
		// Persist before marking received, so a sink failure leaves the
		// counter untouched and the sender retries the same index.
		if err := r.chunks.Put(code, index, payload); err != nil {
			t.mu.Unlock()
			tool.DefaultLogger.Errorf("[Ingest] Failed to store chunk %d for session %s: %v", index, code, err)
			return 0, 0, err
		}
	}

	if _, duplicate := t.received[index]; !duplicate {
		t.received[index] = int64(len(payload))
		t.transferredBytes += int64(len(payload))
	}
	transferred := t.transferredBytes
	percent := Percent(transferred, t.fileSize)
	allowPush := t.progressPush.Allow() || transferred == t.fileSize
	t.mu.Unlock()

	if allowPush {
		r.publish(code, types.EventTransferProgress, map[string]any{
			"transferredBytes": transferred,
			"progressPercent":  percent,
		})
	}
	return transferred, percent, nil
}

// CompleteTransfer records the sender's explicit completion signal. Every
// index present is necessary but not sufficient: chunk delivery order is not
// guaranteed, so the sender's confirmation is what finalizes state. This
// also lets a sender fail loudly on a late upload error instead of the
// receiver silently treating partial data as final.
func (r *Registry) CompleteTransfer(code, senderID string) (types.SessionSnapshot, error) {
	t, err := r.lookup(code)
	if err != nil {
		return types.SessionSnapshot{}, err
	}

	t.mu.Lock()
	if err := r.expireLocked(t); err != nil {
		t.mu.Unlock()
		return types.SessionSnapshot{}, err
	}
	if t.senderID != senderID {
		t.mu.Unlock()
		return types.SessionSnapshot{}, ErrForbidden
	}
	if t.status != types.StatusTransferring {
		t.mu.Unlock()
		return types.SessionSnapshot{}, ErrInvalidState
	}
	if len(t.received) != t.totalChunks {
		t.mu.Unlock()
		return types.SessionSnapshot{}, ErrIncompleteTransfer
	}
	r.finalizeLocked(t, types.StatusCompleted)
	snap := r.snapshotLocked(t)
	t.mu.Unlock()

	tool.DefaultLogger.Infof("[Ingest] Session %s completed: %d bytes in %d chunks", code, snap.TransferredBytes, snap.TotalChunks)
	r.publish(code, types.EventTransferCompleted, map[string]any{
		"transferredBytes": snap.TransferredBytes,
		"progressPercent":  snap.ProgressPercent,
	})
	return snap, nil
}
