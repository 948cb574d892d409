package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/loykin/welltrack/internal/record"
)

// ErrNotFound is returned by Get and GetWorkflowType when no row exists for the key.
var ErrNotFound = errors.New("not found")

// Store persists process records keyed by (well, process) and the per-well
// workflow selection. Upsert replaces the whole record (last write wins) and
// rejects a start date after the end date without touching the stored row.
// Delete is idempotent.
type Store interface {
	EnsureSchema(ctx context.Context) error

	Upsert(ctx context.Context, rec record.Record) error
	Delete(ctx context.Context, well, process string) error
	Get(ctx context.Context, well, process string) (record.Record, error)
	ListForWell(ctx context.Context, well string) ([]record.Record, error)
	ListAll(ctx context.Context) ([]record.Record, error)

	SetWorkflowType(ctx context.Context, well, workflow string) error
	GetWorkflowType(ctx context.Context, well string) (string, error)

	Ping(ctx context.Context) error
	Close() error
}

// Rows is the subset of *sql.Rows used by ScanRecords.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

// ScanRecords reads (well, process, start_date, end_date) rows.
func ScanRecords(rows Rows) ([]record.Record, error) {
	out := make([]record.Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ScanRecord reads a single (well, process, start_date, end_date) row and maps
// sql.ErrNoRows to ErrNotFound.
func ScanRecord(row interface{ Scan(dest ...any) error }) (record.Record, error) {
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return record.Record{}, ErrNotFound
	}
	return rec, err
}

func scanRecord(row interface{ Scan(dest ...any) error }) (record.Record, error) {
	var (
		rec        record.Record
		start, end nullDate
	)
	if err := row.Scan(&rec.Well, &rec.Process, &start, &end); err != nil {
		return record.Record{}, err
	}
	rec.Start = start.ptr()
	rec.End = end.ptr()
	return rec, nil
}

// DateArg converts an optional date into a driver argument (ISO string or NULL).
func DateArg(d *record.Date) any {
	if d == nil {
		return nil
	}
	return d.String()
}

type nullDate struct {
	d     record.Date
	valid bool
}

func (n *nullDate) Scan(src any) error {
	if src == nil {
		n.valid = false
		return nil
	}
	if err := n.d.Scan(src); err != nil {
		return err
	}
	n.valid = !n.d.IsZero()
	return nil
}

func (n nullDate) ptr() *record.Date {
	if !n.valid {
		return nil
	}
	d := n.d
	return &d
}
