package store

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestPutAssembleRoundTrip(t *testing.T) {
	s, err := NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDiskStore failed: %v", err)
	}

	chunks := [][]byte{
		bytes.Repeat([]byte{'a'}, 1024),
		bytes.Repeat([]byte{'b'}, 1024),
		bytes.Repeat([]byte{'c'}, 100),
	}
	// Write out of order; assembly is by index, not arrival.
	for _, i := range []int{2, 0, 1} {
		if err := s.Put("123456", i, chunks[i]); err != nil {
			t.Fatalf("Put chunk %d failed: %v", i, err)
		}
	}

	var out bytes.Buffer
	written, err := s.Assemble("123456", len(chunks), &out)
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	want := bytes.Join(chunks, nil)
	if written != int64(len(want)) {
		t.Errorf("Assemble wrote %d bytes, want %d", written, len(want))
	}
	if !bytes.Equal(out.Bytes(), want) {
		t.Error("Assembled bytes do not match chunk payloads in index order")
	}
}

func TestPutOverwriteSameIndex(t *testing.T) {
	s, err := NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDiskStore failed: %v", err)
	}

	if err := s.Put("123456", 0, []byte("first")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := s.Put("123456", 0, []byte("retry")); err != nil {
		t.Fatalf("Put overwrite failed: %v", err)
	}

	var out bytes.Buffer
	if _, err := s.Assemble("123456", 1, &out); err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	if out.String() != "retry" {
		t.Errorf("Expected retransmitted payload, got %q", out.String())
	}
}

func TestAssembleMissingChunkFails(t *testing.T) {
	s, err := NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDiskStore failed: %v", err)
	}
	if err := s.Put("123456", 0, []byte("only")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	var out bytes.Buffer
	if _, err := s.Assemble("123456", 2, &out); err == nil {
		t.Error("Assemble should fail when an index is missing")
	}
}

func TestRemoveDeletesSessionSpool(t *testing.T) {
	dir := t.TempDir()
	s, err := NewDiskStore(dir)
	if err != nil {
		t.Fatalf("NewDiskStore failed: %v", err)
	}
	if err := s.Put("123456", 0, []byte("data")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	if err := s.Remove("123456"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "123456")); !os.IsNotExist(err) {
		t.Error("Session spool directory should be gone after Remove")
	}
	// Removing twice is fine.
	if err := s.Remove("123456"); err != nil {
		t.Errorf("Second Remove should be a no-op, got %v", err)
	}
}
