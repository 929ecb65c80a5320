// Package store records snapshots in a local SQLite database so that
// history can be reviewed across invocations.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"github.com/surge-devops/surge/internal/collect"
)

// DefaultKeep is how many samples Prune retains when no limit is configured.
const DefaultKeep = 1000

const schema = `
CREATE TABLE IF NOT EXISTS samples (
	id       TEXT PRIMARY KEY,
	taken_at INTEGER NOT NULL,
	hostname TEXT NOT NULL,
	payload  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_samples_taken_at ON samples(taken_at);
`

// Sample is one recorded snapshot.
type Sample struct {
	ID       string            `json:"id"`
	TakenAt  time.Time         `json:"taken_at"`
	Hostname string            `json:"hostname"`
	Snapshot *collect.Snapshot `json:"snapshot"`
}

// Store is a SQLite-backed sample log.
type Store struct {
	db   *sql.DB
	path string
}

// DefaultPath returns $XDG_DATA_HOME/surge/history.db, falling back to
// ~/.local/share/surge/history.db.
func DefaultPath() string {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		dir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dir, "surge", "history.db")
}

// Open opens (creating if needed) the database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("open history database: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA synchronous = NORMAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set synchronous pragma: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create history schema: %w", err)
	}

	log.Debug().Str("path", path).Msg("history store opened")
	return &Store{db: db, path: path}, nil
}

// Path is the database file location.
func (s *Store) Path() string { return s.path }

// Close releases the database handle.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record stores snap under a fresh UUID and returns the sample.
func (s *Store) Record(ctx context.Context, snap *collect.Snapshot) (Sample, error) {
	if snap == nil {
		return Sample{}, errors.New("record: nil snapshot")
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return Sample{}, fmt.Errorf("encode snapshot: %w", err)
	}
	taken := snap.TakenAt
	if taken.IsZero() {
		taken = time.Now()
	}
	sample := Sample{
		ID:       uuid.NewString(),
		TakenAt:  taken,
		Hostname: snap.Host.Hostname,
		Snapshot: snap,
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO samples (id, taken_at, hostname, payload) VALUES (?, ?, ?, ?)",
		sample.ID, taken.UnixNano(), sample.Hostname, string(payload))
	if err != nil {
		return Sample{}, fmt.Errorf("insert sample: %w", err)
	}
	return sample, nil
}

// Recent returns up to limit samples, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Sample, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, taken_at, hostname, payload FROM samples ORDER BY taken_at DESC, rowid DESC LIMIT ?",
		limit)
	if err != nil {
		return nil, fmt.Errorf("query samples: %w", err)
	}
	defer rows.Close()

	var out []Sample
	for rows.Next() {
		var (
			sample  Sample
			takenNs int64
			payload string
		)
		if err := rows.Scan(&sample.ID, &takenNs, &sample.Hostname, &payload); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		sample.TakenAt = time.Unix(0, takenNs)
		var snap collect.Snapshot
		if err := json.Unmarshal([]byte(payload), &snap); err != nil {
			log.Warn().Err(err).Str("id", sample.ID).Msg("skipping undecodable sample")
			continue
		}
		sample.Snapshot = &snap
		out = append(out, sample)
	}
	return out, rows.Err()
}

// Count returns the number of stored samples.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM samples").Scan(&n); err != nil {
		return 0, fmt.Errorf("count samples: %w", err)
	}
	return n, nil
}

// Prune deletes all but the newest keep samples and reports how many rows
// were removed.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		return 0, fmt.Errorf("keep must not be negative, got %d", keep)
	}
	res, err := s.db.ExecContext(ctx, `
DELETE FROM samples WHERE id NOT IN (
	SELECT id FROM samples ORDER BY taken_at DESC, rowid DESC LIMIT ?
)`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune samples: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n > 0 {
		log.Debug().Int64("removed", n).Int("keep", keep).Msg("history pruned")
	}
	return n, nil
}

// Sink returns a function suitable for the scheduler that records each
// snapshot and prunes to keep.
func (s *Store) Sink(keep int) func(context.Context, *collect.Snapshot) error {
	if keep <= 0 {
		keep = DefaultKeep
	}
	return func(ctx context.Context, snap *collect.Snapshot) error {
		if _, err := s.Record(ctx, snap); err != nil {
			return err
		}
		_, err := s.Prune(ctx, keep)
		return err
	}
}
