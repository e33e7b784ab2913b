package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jengacalc/jengacalc/internal/dbx"
	"github.com/jengacalc/jengacalc/internal/server/config"
	"github.com/jengacalc/jengacalc/internal/server/models"
	"github.com/jengacalc/jengacalc/internal/server/repositories/entitlements"
	"github.com/jengacalc/jengacalc/internal/server/repositories/payments"
	"github.com/jengacalc/jengacalc/internal/server/repositories/sessions"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

func TestNewSQLRepositoryManager_ReturnsInterface(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	var _ RepositoryManager = NewSQLRepositoryManager(db, dbx.Postgres)
}

func TestFactories_ReturnConcreteRepos(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	for _, d := range []dbx.Dialect{dbx.Postgres, dbx.SQLite} {
		m := NewSQLRepositoryManager(db, d)

		var _ entitlements.Repository = m.Entitlements()
		var _ payments.Repository = m.Payments()
		var _ sessions.Repository = m.Sessions()

		assert.IsType(t, &entitlements.SQLRepository{}, m.Entitlements())
		assert.IsType(t, &payments.SQLRepository{}, m.Payments())
		assert.IsType(t, &sessions.SQLRepository{}, m.Sessions())
	}
}

func TestRunMigrations_DirPerDialect(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	var gotDir string
	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		gotDir = dir
		if len(opts) != 0 {
			return errors.New("unexpected opts")
		}
		return nil
	}
	defer func() { gooseUpContext = orig }()

	require.NoError(t, NewSQLRepositoryManager(db, dbx.Postgres).RunMigrations(context.Background()))
	assert.Equal(t, "postgres", gotDir)

	require.NoError(t, NewSQLRepositoryManager(db, dbx.SQLite).RunMigrations(context.Background()))
	assert.Equal(t, "sqlite", gotDir)
}

func TestRunMigrations_Error(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("boom")
	}
	defer func() { gooseUpContext = orig }()

	m := NewSQLRepositoryManager(db, dbx.Postgres)
	if err := m.RunMigrations(context.Background()); err == nil || err.Error() != "boom" {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestWithinTx_CommitAndRollback(t *testing.T) {
	db, mock := newDB(t)
	defer db.Close()

	m := NewSQLRepositoryManager(db, dbx.Postgres)

	mock.ExpectBegin()
	mock.ExpectCommit()
	require.NoError(t, m.WithinTx(context.Background(), func(ctx context.Context, tm RepositoryManager) error {
		assert.NotSame(t, m, tm)
		return nil
	}))

	mock.ExpectBegin()
	mock.ExpectRollback()
	err := m.WithinTx(context.Background(), func(ctx context.Context, tm RepositoryManager) error {
		return errors.New("fail")
	})
	require.EqualError(t, err, "fail")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTx_Nested(t *testing.T) {
	db, mock := newDB(t)
	defer db.Close()

	m := NewSQLRepositoryManager(db, dbx.Postgres)

	mock.ExpectBegin()
	mock.ExpectCommit()
	err := m.WithinTx(context.Background(), func(ctx context.Context, outer RepositoryManager) error {
		return outer.WithinTx(ctx, func(ctx context.Context, inner RepositoryManager) error {
			assert.Same(t, outer, inner, "nested call reuses the transaction")
			return nil
		})
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOpenSQL_SQLiteEndToEnd(t *testing.T) {
	ctx := context.Background()
	m, err := OpenSQL(ctx, config.BackendSQLite, ":memory:")
	require.NoError(t, err)
	defer m.Close(ctx)

	require.NoError(t, m.RunMigrations(ctx))
	require.NoError(t, m.Ping(ctx))

	// a failed transaction leaves neither the payment nor the tokens behind
	err = m.WithinTx(ctx, func(ctx context.Context, tm RepositoryManager) error {
		ok, err := tm.Payments().Record(ctx, &models.Payment{Reference: "ref-1", Email: "b@gmail.com",
			Amount: 30000, Kind: models.PaymentTokens, CreatedAt: time.Now()})
		require.NoError(t, err)
		require.True(t, ok)
		if _, err := tm.Entitlements().AddTokens(ctx, "b@gmail.com", 300); err != nil {
			return err
		}
		return errors.New("late failure")
	})
	require.Error(t, err)

	_, err = m.Entitlements().Get(ctx, "b@gmail.com")
	assert.Error(t, err)
	list, err := m.Payments().ListByEmail(ctx, "b@gmail.com")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestOpenSQL_OpenError(t *testing.T) {
	orig := sqlOpen
	sqlOpen = func(driverName, dataSourceName string) (*sql.DB, error) {
		return nil, errors.New("no driver")
	}
	defer func() { sqlOpen = orig }()

	_, err := OpenSQL(context.Background(), config.BackendPostgres, "postgres://x")
	require.ErrorContains(t, err, "db open error")
}

func TestNew_UnknownBackend(t *testing.T) {
	_, err := New(context.Background(), &config.Config{StorageBackend: "cassandra"})
	require.ErrorContains(t, err, "unknown storage backend")
}
