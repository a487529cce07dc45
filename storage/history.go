// Package storage persists transfer history in SQLite. Sessions themselves
// live in memory; history is the only durable state this service keeps.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/moyoez/codedrop/types"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("storage: not found")

// DefaultListLimit caps history listings.
const DefaultListLimit = 100

var migrations = []string{
	`
CREATE TABLE IF NOT EXISTS transfer_history (
  id             TEXT PRIMARY KEY,
  participant_id TEXT NOT NULL,
  direction      TEXT NOT NULL CHECK(direction IN ('send','receive')),
  file_name      TEXT NOT NULL,
  file_size      INTEGER NOT NULL,
  peer_nickname  TEXT NOT NULL DEFAULT '',
  status         TEXT NOT NULL CHECK(status IN ('completed','cancelled','failed','expired')),
  created_at     INTEGER NOT NULL
);
`,
	`
CREATE INDEX IF NOT EXISTS idx_transfer_history_participant_time
ON transfer_history (participant_id, created_at DESC, id);
`,
}

// Store is a thin wrapper around a SQLite connection.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the history database at path and runs migrations.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create history db directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("run migration %d: %w", i, err)
		}
	}
	return &Store{db: db}, nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record inserts one immutable history row. Implements session.Recorder.
func (s *Store) Record(rec types.TransferHistoryRecord) error {
	if rec.ID == "" {
		return errors.New("id is required")
	}
	if rec.ParticipantID == "" {
		return errors.New("participant_id is required")
	}
	if !rec.Status.Terminal() {
		return fmt.Errorf("non-terminal status %q cannot be recorded", rec.Status)
	}
	_, err := s.db.Exec(
		`INSERT INTO transfer_history (
			id,
			participant_id,
			direction,
			file_name,
			file_size,
			peer_nickname,
			status,
			created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.ParticipantID,
		string(rec.Direction),
		rec.FileName,
		rec.FileSize,
		rec.PeerNickname,
		string(rec.Status),
		rec.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert history record %q: %w", rec.ID, err)
	}
	return nil
}

// ListByParticipant returns the participant's records, newest first.
func (s *Store) ListByParticipant(participantID string, limit int) ([]types.TransferHistoryRecord, error) {
	if limit <= 0 || limit > DefaultListLimit {
		limit = DefaultListLimit
	}
	rows, err := s.db.Query(
		`SELECT
			id,
			participant_id,
			direction,
			file_name,
			file_size,
			peer_nickname,
			status,
			created_at
		FROM transfer_history
		WHERE participant_id = ?
		ORDER BY created_at DESC, id
		LIMIT ?`,
		participantID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list history for %q: %w", participantID, err)
	}
	defer rows.Close()

	records := make([]types.TransferHistoryRecord, 0, limit)
	for rows.Next() {
		var rec types.TransferHistoryRecord
		var direction, status string
		var createdAt int64
		if err := rows.Scan(
			&rec.ID,
			&rec.ParticipantID,
			&direction,
			&rec.FileName,
			&rec.FileSize,
			&rec.PeerNickname,
			&status,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan history record: %w", err)
		}
		rec.Direction = types.TransferDirection(direction)
		rec.Status = types.SessionStatus(status)
		rec.CreatedAt = time.Unix(createdAt, 0).UTC()
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history records: %w", err)
	}
	return records, nil
}
