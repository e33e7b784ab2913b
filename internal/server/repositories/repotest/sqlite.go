// Package repotest provides database fixtures for repository and service tests.
package repotest

import (
	"context"
	"database/sql"
	"testing"

	"github.com/jengacalc/jengacalc/internal/server/migrations"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// NewSQLite opens a private in-memory SQLite database with all migrations
// applied. A single connection is kept open so the database lives for the
// whole test.
func NewSQLite(t testing.TB) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	t.Cleanup(func() { _ = db.Close() })

	goose.SetBaseFS(migrations.Migrations)
	require.NoError(t, goose.SetDialect("sqlite3"))
	require.NoError(t, goose.UpContext(context.Background(), db, migrations.SQLiteDir))

	return db
}
