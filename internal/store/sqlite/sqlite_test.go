package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/loykin/welltrack/internal/record"
	"github.com/loykin/welltrack/internal/store"
	"github.com/loykin/welltrack/internal/store/storetest"
)

func open(t *testing.T, path string) *DB {
	t.Helper()
	db, err := New(path)
	if err != nil {
		t.Fatalf("sqlite open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := db.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	return db
}

func TestSQLiteConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return open(t, ":memory:") })
}

func TestSQLiteRejectsEmptyPath(t *testing.T) {
	if _, err := New("  "); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestSQLitePersistsISODates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tracking_data.db")
	db := open(t, path)
	ctx := context.Background()
	start := record.MustParseDate("2024-01-01")
	if err := db.Upsert(ctx, record.New("SNN-11", "Rig Release", &start, &start)); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	var raw string
	if err := db.db.QueryRowContext(ctx, `SELECT start_date FROM process_data WHERE well=? AND process=?`, "SNN-11", "Rig Release").Scan(&raw); err != nil {
		t.Fatalf("raw select: %v", err)
	}
	if raw != "2024-01-01" {
		t.Fatalf("expected ISO date text, got %q", raw)
	}
	_ = db.Close()

	// reopen and read back
	again := open(t, path)
	got, err := again.Get(ctx, "SNN-11", "Rig Release")
	if err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
	if !got.Start.Equal(start) || !got.End.Equal(start) {
		t.Fatalf("unexpected record after reopen: %+v", got)
	}
}

func TestSQLiteEnsureSchemaIdempotent(t *testing.T) {
	db := open(t, ":memory:")
	if err := db.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("second ensure schema: %v", err)
	}
}
