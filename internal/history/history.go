package history

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

const defaultRunsTable = "ledger_runs"

// Run statuses.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Run is one recorded synchronisation pass over the shop API.
type Run struct {
	ID          string
	StartedAt   time.Time
	FinishedAt  time.Time
	WindowStart time.Time
	Fetched     int
	New         int
	Updated     int
	Unchanged   int
	Skipped     int
	Status      string
	Error       string
}

// Store is a Postgres implementation for run history records.
type Store struct {
	db    *sql.DB
	table string
}

// NewStore constructs a run history store.
func NewStore(db *sql.DB, opts ...Option) *Store {
	store := &Store{db: db, table: defaultRunsTable}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// Option configures the history store.
type Option func(*Store)

// WithTable overrides the table name.
func WithTable(table string) Option {
	return func(store *Store) {
		if table != "" {
			store.table = table
		}
	}
}

// EnsureSchema creates the runs table when it does not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if s == nil || s.db == nil {
		return errors.New("history store: nil db")
	}
	query := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	id CHAR(32) PRIMARY KEY,
	started_at TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ NOT NULL,
	window_start TIMESTAMPTZ NOT NULL,
	fetched INT NOT NULL,
	new_orders INT NOT NULL,
	updated INT NOT NULL,
	unchanged INT NOT NULL,
	skipped INT NOT NULL,
	status VARCHAR(16) NOT NULL,
	error TEXT NOT NULL DEFAULT ''
)`, s.table)

	_, err := s.db.ExecContext(ctx, query)
	return err
}

// RecordRun writes a run record and returns its id.
func (s *Store) RecordRun(ctx context.Context, run Run) (string, error) {
	if s == nil || s.db == nil {
		return "", errors.New("history store: nil db")
	}
	id := run.ID
	if id == "" {
		id = newRunID()
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	id,
	started_at,
	finished_at,
	window_start,
	fetched,
	new_orders,
	updated,
	unchanged,
	skipped,
	status,
	error
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
)
ON CONFLICT (id)
DO NOTHING`, s.table)

	_, err := s.db.ExecContext(ctx, query,
		id,
		run.StartedAt.UTC(),
		run.FinishedAt.UTC(),
		run.WindowStart.UTC(),
		run.Fetched,
		run.New,
		run.Updated,
		run.Unchanged,
		run.Skipped,
		run.Status,
		run.Error,
	)
	if err != nil {
		return "", err
	}
	return id, nil
}

// LastSuccessful returns the most recent StatusOK run, or nil when no
// run has completed yet.
func (s *Store) LastSuccessful(ctx context.Context) (*Run, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("history store: nil db")
	}
	query := fmt.Sprintf(`
SELECT id, started_at, finished_at, window_start, fetched, new_orders, updated, unchanged, skipped, status, error
FROM %s
WHERE status = $1
ORDER BY finished_at DESC
LIMIT 1`, s.table)

	var run Run
	row := s.db.QueryRowContext(ctx, query, StatusOK)
	if err := row.Scan(
		&run.ID,
		&run.StartedAt,
		&run.FinishedAt,
		&run.WindowStart,
		&run.Fetched,
		&run.New,
		&run.Updated,
		&run.Unchanged,
		&run.Skipped,
		&run.Status,
		&run.Error,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &run, nil
}

func newRunID() string {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return hex.EncodeToString(buf[:])
	}
	// UUIDv4 variant bits.
	buf[6] = (buf[6] & 0x0f) | 0x40
	buf[8] = (buf[8] & 0x3f) | 0x80
	return hex.EncodeToString(buf[:])
}
