// Package store spools chunk payloads to disk while a transfer is in flight
// and streams them back out in index order once it completes.
package store

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// DiskStore keeps each session's chunks under <baseDir>/<code>/<index>.part.
type DiskStore struct {
	baseDir string
}

// NewDiskStore creates the spool root if needed.
func NewDiskStore(baseDir string) (*DiskStore, error) {
	if baseDir == "" {
		baseDir = "chunks"
	}
	if err := os.MkdirAll(baseDir, 0o750); err != nil {
		return nil, fmt.Errorf("create chunk dir failed: %w", err)
	}
	return &DiskStore{baseDir: baseDir}, nil
}

// Put writes one chunk payload. Writing the same index twice simply
// overwrites the previous payload.
func (s *DiskStore) Put(code string, index int, payload []byte) error {
	dir := filepath.Join(s.baseDir, filepath.Base(code))
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create session chunk dir failed: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("%d.part", index))
	if err := os.WriteFile(path, payload, 0o640); err != nil {
		return fmt.Errorf("write chunk failed: %w", err)
	}
	return nil
}

// Assemble streams the session's chunks to dst in index order and returns
// the byte count written. Every index in [0, total) must be present.
func (s *DiskStore) Assemble(code string, total int, dst io.Writer) (int64, error) {
	dir := filepath.Join(s.baseDir, filepath.Base(code))
	var written int64
	for i := 0; i < total; i++ {
		path := filepath.Join(dir, fmt.Sprintf("%d.part", i))
		f, err := os.Open(path)
		if err != nil {
			return written, fmt.Errorf("open chunk %d failed: %w", i, err)
		}
		n, err := io.Copy(dst, f)
		written += n
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		if err != nil {
			return written, fmt.Errorf("stream chunk %d failed: %w", i, err)
		}
	}
	return written, nil
}

// Remove deletes every chunk stored for the session.
func (s *DiskStore) Remove(code string) error {
	return os.RemoveAll(filepath.Join(s.baseDir, filepath.Base(code)))
}
