package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/moyoez/codedrop/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Close failed: %v", err)
		}
	})
	return s
}

func record(id, participant string, direction types.TransferDirection, status types.SessionStatus, at time.Time) types.TransferHistoryRecord {
	return types.TransferHistoryRecord{
		ID:            id,
		ParticipantID: participant,
		Direction:     direction,
		FileName:      "report.pdf",
		FileSize:      3_000_000,
		PeerNickname:  "Neat Grape",
		Status:        status,
		CreatedAt:     at,
	}
}

func TestRecordAndListByParticipant(t *testing.T) {
	s := openTestStore(t)
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	if err := s.Record(record("rec-1", "alice", types.DirectionSend, types.StatusCompleted, base)); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := s.Record(record("rec-2", "alice", types.DirectionReceive, types.StatusCancelled, base.Add(time.Minute))); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := s.Record(record("rec-3", "bob", types.DirectionReceive, types.StatusExpired, base)); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	records, err := s.ListByParticipant("alice", 0)
	if err != nil {
		t.Fatalf("ListByParticipant failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 records for alice, got %d", len(records))
	}
	// Newest first.
	if records[0].ID != "rec-2" || records[1].ID != "rec-1" {
		t.Errorf("Expected newest-first order, got %s, %s", records[0].ID, records[1].ID)
	}
	if records[0].Status != types.StatusCancelled {
		t.Errorf("Expected cancelled status, got %s", records[0].Status)
	}
	if !records[1].CreatedAt.Equal(base) {
		t.Errorf("Expected created_at %v, got %v", base, records[1].CreatedAt)
	}
}

func TestRecordRejectsNonTerminalStatus(t *testing.T) {
	s := openTestStore(t)
	rec := record("rec-1", "alice", types.DirectionSend, types.StatusTransferring, time.Now())
	if err := s.Record(rec); err == nil {
		t.Error("Record should reject a non-terminal status")
	}
}

func TestRecordRejectsDuplicateID(t *testing.T) {
	s := openTestStore(t)
	rec := record("rec-1", "alice", types.DirectionSend, types.StatusCompleted, time.Now())
	if err := s.Record(rec); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := s.Record(rec); err == nil {
		t.Error("Record should reject a duplicate id; history rows are immutable")
	}
}

func TestListLimit(t *testing.T) {
	s := openTestStore(t)
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		rec := record(string(rune('a'+i)), "alice", types.DirectionSend, types.StatusCompleted, base.Add(time.Duration(i)*time.Minute))
		if err := s.Record(rec); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}
	records, err := s.ListByParticipant("alice", 3)
	if err != nil {
		t.Fatalf("ListByParticipant failed: %v", err)
	}
	if len(records) != 3 {
		t.Errorf("Expected 3 records with limit, got %d", len(records))
	}
}
