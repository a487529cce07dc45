package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/moyoez/codedrop/session"
	"github.com/moyoez/codedrop/tool"
	"github.com/moyoez/codedrop/types"
)

const (
	// chunkUploadAttempts is how many times a single chunk is tried before
	// the sender gives up and cancels the session.
	chunkUploadAttempts = 3
	// chunkRetryDelay is the pause between attempts for the same index.
	chunkRetryDelay = time.Second
)

// Sender streams a file to the server as sequential chunks. The loop is
// strictly sequential and blocking: each chunk's response is awaited before
// the next is read. That bounds memory and keeps retries trivial, at the
// cost of throughput a LAN transfer does not miss.
type Sender struct {
	client    *Client
	chunkSize int64
	cancelled atomic.Bool
}

// NewSender builds a sender honouring the server's chunk size policy.
func NewSender(c *Client, policy types.PolicyResponse) *Sender {
	chunkSize := policy.ChunkSize
	if chunkSize <= 0 {
		chunkSize = tool.DefaultChunkSize
	}
	return &Sender{
		client:    c,
		chunkSize: chunkSize,
	}
}

// Cancel asks the loop to stop before the next chunk. Cancellation is
// cooperative: an in-flight upload is allowed to finish.
func (s *Sender) Cancel() {
	s.cancelled.Store(true)
}

// Send uploads the whole file and records the explicit completion signal.
// Retransmitting an index after a failed attempt is safe: the server's
// received-set never double counts.
func (s *Sender) Send(ctx context.Context, code string, data io.Reader, fileSize int64) error {
	total := session.TotalChunks(fileSize, s.chunkSize)
	buf := make([]byte, s.chunkSize)

	for index := 0; index < total; index++ {
		if err := s.checkCancel(ctx, code); err != nil {
			return err
		}

		want := session.ChunkPayloadSize(fileSize, s.chunkSize, index)
		if _, err := io.ReadFull(data, buf[:want]); err != nil {
			s.abort(ctx, code)
			return fmt.Errorf("read chunk %d failed: %w", index, err)
		}

		if err := s.uploadWithRetry(ctx, code, index, buf[:want]); err != nil {
			s.abort(ctx, code)
			return err
		}
	}

	if err := s.checkCancel(ctx, code); err != nil {
		return err
	}
	if err := s.client.CompleteTransfer(ctx, code); err != nil {
		return fmt.Errorf("complete transfer failed: %w", err)
	}
	tool.DefaultLogger.Infof("[Sender] Sent %d chunks (%d bytes) for session %s", total, fileSize, code)
	return nil
}

func (s *Sender) uploadWithRetry(ctx context.Context, code string, index int, payload []byte) error {
	var lastErr error
	for attempt := 1; attempt <= chunkUploadAttempts; attempt++ {
		resp, err := s.client.UploadChunk(ctx, code, index, payload)
		if err == nil {
			tool.DefaultLogger.Debugf("[Sender] Chunk %d acknowledged: %d bytes (%.1f%%)", index, resp.TransferredBytes, resp.ProgressPercent)
			return nil
		}
		// Peer cancelled or session gone: retrying cannot help.
		if errors.Is(err, session.ErrSessionNotFound) ||
			errors.Is(err, session.ErrSessionExpired) ||
			errors.Is(err, session.ErrInvalidState) ||
			errors.Is(err, session.ErrForbidden) {
			return err
		}
		lastErr = err
		tool.DefaultLogger.Warnf("[Sender] Chunk %d attempt %d/%d failed: %v", index, attempt, chunkUploadAttempts, err)
		if attempt < chunkUploadAttempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(chunkRetryDelay):
			}
		}
	}
	return fmt.Errorf("chunk %d failed after %d attempts: %w", index, chunkUploadAttempts, lastErr)
}

func (s *Sender) checkCancel(ctx context.Context, code string) error {
	if err := ctx.Err(); err != nil {
		s.abort(context.WithoutCancel(ctx), code)
		return err
	}
	if s.cancelled.Load() {
		s.abort(ctx, code)
		return fmt.Errorf("transfer cancelled by sender")
	}
	return nil
}

// abort tells the server the transfer is over. Best effort: the session
// would expire on its own anyway.
func (s *Sender) abort(ctx context.Context, code string) {
	if err := s.client.CancelSession(ctx, code); err != nil {
		tool.DefaultLogger.Debugf("[Sender] Cancel after failure did not land: %v", err)
	}
}
