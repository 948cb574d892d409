package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/loykin/welltrack/internal/record"
	"github.com/loykin/welltrack/internal/store"
)

// DB implements store.Store for SQLite (modernc.org/sqlite driver, CGO-free).
// DSN is a filesystem path to the SQLite database file. Use ":memory:" for in-memory.

type DB struct {
	db *sql.DB
}

// New opens a SQLite database at path.
func New(path string) (*DB, error) {
	p := strings.TrimSpace(path)
	if p == "" {
		return nil, errors.New("empty sqlite path")
	}
	d, err := sql.Open("sqlite", p)
	if err != nil {
		return nil, err
	}
	if p == ":memory:" {
		// every pooled connection would otherwise get its own empty database
		d.SetMaxOpenConns(1)
	}
	// busy timeout helps with short concurrent locks
	_, _ = d.Exec("PRAGMA busy_timeout=3000;")
	return &DB{db: d}, nil
}

func (s *DB) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS process_data(
			well TEXT NOT NULL,
			process TEXT NOT NULL,
			start_date TEXT NULL,
			end_date TEXT NULL,
			PRIMARY KEY (well, process)
		);`,
		`CREATE TABLE IF NOT EXISTS workflow_type(
			well TEXT PRIMARY KEY,
			workflow TEXT NOT NULL
		);`,
	}
	for _, q := range stmts {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

func (s *DB) Close() error { return s.db.Close() }

func (s *DB) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *DB) Upsert(ctx context.Context, rec record.Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO process_data(well, process, start_date, end_date)
		VALUES(?, ?, ?, ?)
		ON CONFLICT(well, process) DO UPDATE SET
			start_date=excluded.start_date,
			end_date=excluded.end_date;`,
		rec.Well, rec.Process, store.DateArg(rec.Start), store.DateArg(rec.End))
	return err
}

func (s *DB) Delete(ctx context.Context, well, process string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM process_data WHERE well=? AND process=?;`, well, process)
	return err
}

func (s *DB) Get(ctx context.Context, well, process string) (record.Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT well, process, start_date, end_date
		FROM process_data
		WHERE well=? AND process=?;`, well, process)
	return store.ScanRecord(row)
}

func (s *DB) ListForWell(ctx context.Context, well string) ([]record.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT well, process, start_date, end_date
		FROM process_data
		WHERE well=?
		ORDER BY process;`, well)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	return store.ScanRecords(rows)
}

func (s *DB) ListAll(ctx context.Context) ([]record.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT well, process, start_date, end_date
		FROM process_data
		ORDER BY well, process;`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	return store.ScanRecords(rows)
}

func (s *DB) SetWorkflowType(ctx context.Context, well, workflow string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO workflow_type(well, workflow) VALUES(?, ?)
		ON CONFLICT(well) DO UPDATE SET workflow=excluded.workflow;`, well, workflow)
	return err
}

func (s *DB) GetWorkflowType(ctx context.Context, well string) (string, error) {
	var wf string
	err := s.db.QueryRowContext(ctx, `SELECT workflow FROM workflow_type WHERE well=?;`, well).Scan(&wf)
	if errors.Is(err, sql.ErrNoRows) {
		return "", store.ErrNotFound
	}
	return wf, err
}

var _ store.Store = (*DB)(nil)
