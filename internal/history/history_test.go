package history

import (
	"context"
	"database/sql"
	"os"
	"strings"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func TestNilStoreGuards(t *testing.T) {
	var store *Store
	ctx := context.Background()

	if err := store.EnsureSchema(ctx); err == nil {
		t.Fatal("expected error from nil store")
	}
	if _, err := store.RecordRun(ctx, Run{}); err == nil {
		t.Fatal("expected error from nil store")
	}
	if _, err := store.LastSuccessful(ctx); err == nil {
		t.Fatal("expected error from nil store")
	}

	empty := NewStore(nil)
	if err := empty.EnsureSchema(ctx); err == nil {
		t.Fatal("expected error from store without db")
	}
}

func TestWithTable(t *testing.T) {
	store := NewStore(nil, WithTable("runs_v2"))
	if store.table != "runs_v2" {
		t.Fatalf("table = %q, want runs_v2", store.table)
	}
	store = NewStore(nil, WithTable(""))
	if store.table != defaultRunsTable {
		t.Fatalf("empty table option must keep default, got %q", store.table)
	}
}

func TestPostgresRoundTrip(t *testing.T) {
	dsn := os.Getenv("PG_DSN")
	if dsn == "" {
		t.Skip("PG_DSN not set")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	store := NewStore(db, WithTable("ledger_runs_it"))
	if err := store.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	defer db.ExecContext(ctx, "DROP TABLE IF EXISTS ledger_runs_it")

	finished := time.Now().UTC().Truncate(time.Second)
	okID, err := store.RecordRun(ctx, Run{
		StartedAt:   finished.Add(-time.Minute),
		FinishedAt:  finished,
		WindowStart: finished.AddDate(0, 0, -30),
		Fetched:     12,
		New:         3,
		Updated:     2,
		Unchanged:   6,
		Skipped:     1,
		Status:      StatusOK,
	})
	if err != nil {
		t.Fatalf("record ok run: %v", err)
	}
	if _, err := store.RecordRun(ctx, Run{
		StartedAt:  finished.Add(-3 * time.Minute),
		FinishedAt: finished.Add(-2 * time.Minute),
		Status:     StatusFailed,
		Error:      "window fetch aborted",
	}); err != nil {
		t.Fatalf("record failed run: %v", err)
	}

	last, err := store.LastSuccessful(ctx)
	if err != nil {
		t.Fatalf("last successful: %v", err)
	}
	if last == nil || last.ID != okID {
		t.Fatalf("last successful = %+v, want run %s", last, okID)
	}
	if last.Fetched != 12 || last.New != 3 || last.Unchanged != 6 || last.Skipped != 1 {
		t.Fatalf("counters not restored: %+v", last)
	}
	if last.Status != StatusOK || last.Error != "" {
		t.Fatalf("status fields not restored: %+v", last)
	}
	if !last.FinishedAt.UTC().Equal(finished) {
		t.Fatalf("finished_at = %v, want %v", last.FinishedAt.UTC(), finished)
	}
}

func TestNewRunID(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 10; i++ {
		id := newRunID()
		if len(id) != 32 {
			t.Fatalf("id %q has length %d, want 32", id, len(id))
		}
		if strings.ToLower(id) != id {
			t.Fatalf("id %q is not lowercase hex", id)
		}
		if seen[id] {
			t.Fatalf("id %q repeated", id)
		}
		seen[id] = true
	}
}
