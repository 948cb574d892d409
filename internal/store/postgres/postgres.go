package postgres

import (
	"context"
	"database/sql"
	"errors"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/loykin/welltrack/internal/record"
	"github.com/loykin/welltrack/internal/store"
)

type DB struct {
	db *sql.DB
}

// New opens a Postgres connection pool through the pgx stdlib driver.
func New(dsn string) (*DB, error) {
	d, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	return &DB{db: d}, nil
}

// NewWithDB wraps an existing handle; tests use it with sqlmock.
func NewWithDB(db *sql.DB) *DB { return &DB{db: db} }

func (p *DB) EnsureSchema(ctx context.Context) error {
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
		if _, err := p.db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

func (p *DB) Close() error { return p.db.Close() }

func (p *DB) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

func (p *DB) Upsert(ctx context.Context, rec record.Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO process_data(well, process, start_date, end_date)
		VALUES($1,$2,$3,$4)
		ON CONFLICT(well, process) DO UPDATE SET
			start_date=EXCLUDED.start_date,
			end_date=EXCLUDED.end_date;`,
		rec.Well, rec.Process, store.DateArg(rec.Start), store.DateArg(rec.End))
	return err
}

func (p *DB) Delete(ctx context.Context, well, process string) error {
	_, err := p.db.ExecContext(ctx, `DELETE FROM process_data WHERE well=$1 AND process=$2;`, well, process)
	return err
}

func (p *DB) Get(ctx context.Context, well, process string) (record.Record, error) {
	row := p.db.QueryRowContext(ctx, `
		SELECT well, process, start_date, end_date
		FROM process_data
		WHERE well=$1 AND process=$2;`, well, process)
	return store.ScanRecord(row)
}

func (p *DB) ListForWell(ctx context.Context, well string) ([]record.Record, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT well, process, start_date, end_date
		FROM process_data
		WHERE well=$1
		ORDER BY process;`, well)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return store.ScanRecords(rows)
}

func (p *DB) ListAll(ctx context.Context) ([]record.Record, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT well, process, start_date, end_date
		FROM process_data
		ORDER BY well, process;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return store.ScanRecords(rows)
}

func (p *DB) SetWorkflowType(ctx context.Context, well, workflow string) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO workflow_type(well, workflow) VALUES($1,$2)
		ON CONFLICT(well) DO UPDATE SET workflow=EXCLUDED.workflow;`, well, workflow)
	return err
}

func (p *DB) GetWorkflowType(ctx context.Context, well string) (string, error) {
	var wf string
	err := p.db.QueryRowContext(ctx, `SELECT workflow FROM workflow_type WHERE well=$1;`, well).Scan(&wf)
	if errors.Is(err, sql.ErrNoRows) {
		return "", store.ErrNotFound
	}
	return wf, err
}

var _ store.Store = (*DB)(nil)
