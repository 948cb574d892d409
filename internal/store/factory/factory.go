package factory

import (
	"errors"
	"fmt"
	"strings"

	"github.com/loykin/welltrack/internal/store"
	pg "github.com/loykin/welltrack/internal/store/postgres"
	sq "github.com/loykin/welltrack/internal/store/sqlite"
)

// NewFromDSN selects a store implementation based on DSN.
// Supported:
//   - sqlite:  "sqlite://<path>" or bare filepath (treated as sqlite)
//   - postgres: DSN starting with "postgres://" or "postgresql://"
//   - memory:  "memory://" (process-local, lost on exit)
func NewFromDSN(dsn string) (store.Store, error) {
	d := strings.TrimSpace(dsn)
	ld := strings.ToLower(d)
	if ld == "" {
		return nil, errors.New("empty DSN")
	}
	if strings.HasPrefix(ld, "memory://") {
		return store.NewMemory(), nil
	}
	if strings.HasPrefix(ld, "postgres://") || strings.HasPrefix(ld, "postgresql://") {
		return pg.New(d)
	}
	if strings.HasPrefix(ld, "sqlite://") {
		path := d[len("sqlite://"):]
		return sq.New(path)
	}
	if i := strings.Index(ld, "://"); i > 0 {
		return nil, fmt.Errorf("unsupported store scheme %q", d[:i])
	}
	// default to sqlite path
	return sq.New(d)
}
