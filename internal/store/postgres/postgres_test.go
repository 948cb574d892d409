package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/loykin/welltrack/internal/record"
	"github.com/loykin/welltrack/internal/store"
	"github.com/loykin/welltrack/internal/store/storetest"
)

func TestPostgresUpsert_SQL(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	p := NewWithDB(db)
	start := record.MustParseDate("2024-01-01")

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO process_data(well, process, start_date, end_date)")).
		WithArgs("SNN-11", "Frac Execution", "2024-01-01", nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = p.Upsert(context.Background(), record.New("SNN-11", "Frac Execution", &start, nil))
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpsert_ValidationBeforeSQL(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	p := NewWithDB(db)
	start := record.MustParseDate("2024-01-02")
	end := record.MustParseDate("2024-01-01")

	err = p.Upsert(context.Background(), record.New("SNN-11", "Frac Execution", &start, &end))
	var ve *record.ValidationError
	assert.True(t, errors.As(err, &ve))
	// no statement may reach the database
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGet_SQL(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	p := NewWithDB(db)
	q := regexp.QuoteMeta("SELECT well, process, start_date, end_date")

	mock.ExpectQuery(q).
		WithArgs("SNN-11", "On stream").
		WillReturnRows(sqlmock.NewRows([]string{"well", "process", "start_date", "end_date"}).
			AddRow("SNN-11", "On stream", "2024-04-01", nil))

	rec, err := p.Get(context.Background(), "SNN-11", "On stream")
	require.NoError(t, err)
	assert.Equal(t, "2024-04-01", rec.Start.String())
	assert.Nil(t, rec.End)

	mock.ExpectQuery(q).
		WithArgs("SNN-11", "Unhook").
		WillReturnRows(sqlmock.NewRows([]string{"well", "process", "start_date", "end_date"}))

	_, err = p.Get(context.Background(), "SNN-11", "Unhook")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresWorkflowType_SQL(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	p := NewWithDB(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT workflow FROM workflow_type WHERE well=$1")).
		WithArgs("SR-603").
		WillReturnError(sql.ErrNoRows)

	_, err = p.GetWorkflowType(context.Background(), "SR-603")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// startPostgresContainer starts a PostgreSQL container for tests
// and returns a DSN suitable for pgx stdlib. It skips the test if Docker is unavailable.
func startPostgresContainer(t *testing.T) (dsn string, terminate func()) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
	)
	if err != nil {
		cancel()
		t.Skipf("Failed to start PostgreSQL container: %v", err)
		return "", nil
	}

	host, err := container.Host(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		cancel()
		t.Skipf("Failed to get host info: %v", err)
		return "", nil
	}

	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		_ = container.Terminate(ctx)
		cancel()
		t.Skipf("Failed to get mapped port: %v", err)
		return "", nil
	}

	dsn = fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port())

	terminate = func() {
		_ = container.Terminate(ctx)
		cancel()
	}

	return dsn, terminate
}

func waitForPostgres(t *testing.T, dsn string) {
	// Try to ping until timeout; helps when container reports ready but DB not yet accepting connections
	deadline := time.Now().Add(45 * time.Second)
	for {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		db, err := sql.Open("pgx", dsn)
		if err == nil {
			if err = db.PingContext(ctx); err == nil {
				_ = db.Close()
				cancel()
				return
			}
			_ = db.Close()
		}
		cancel()
		if time.Now().After(deadline) {
			t.Fatalf("postgres not ready in time: %v", err)
		}
		time.Sleep(500 * time.Millisecond)
	}
}

func TestPostgresConformance(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	dsn, terminate := startPostgresContainer(t)
	defer terminate()
	waitForPostgres(t, dsn)

	storetest.Run(t, func(t *testing.T) store.Store {
		p, err := New(dsn)
		if err != nil {
			t.Fatalf("open: %v", err)
		}
		ctx := context.Background()
		if err := p.EnsureSchema(ctx); err != nil {
			t.Fatalf("ensure schema: %v", err)
		}
		// each subtest starts from empty tables
		if _, err := p.db.ExecContext(ctx, `TRUNCATE process_data, workflow_type;`); err != nil {
			t.Fatalf("truncate: %v", err)
		}
		t.Cleanup(func() { _ = p.Close() })
		return p
	})
}
