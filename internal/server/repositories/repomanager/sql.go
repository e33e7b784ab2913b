package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jengacalc/jengacalc/internal/dbx"
	"github.com/jengacalc/jengacalc/internal/server/config"
	"github.com/jengacalc/jengacalc/internal/server/migrations"
	"github.com/jengacalc/jengacalc/internal/server/repositories/entitlements"
	"github.com/jengacalc/jengacalc/internal/server/repositories/payments"
	"github.com/jengacalc/jengacalc/internal/server/repositories/sessions"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// SQLRepositoryManager serves PostgreSQL and SQLite. Inside WithinTx conn is
// the transaction; otherwise it is the pool.
type SQLRepositoryManager struct {
	db      *sql.DB
	conn    dbx.DBTX
	dialect dbx.Dialect
	inTx    bool
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// sqlOpen is a seam for testing sql.Open.
var sqlOpen = sql.Open

// OpenSQL opens a database for backend ("postgres" or "sqlite") and verifies
// the connection.
func OpenSQL(ctx context.Context, backend, dsn string) (*SQLRepositoryManager, error) {
	driver, dialect := "pgx", dbx.Postgres
	if backend == config.BackendSQLite {
		driver, dialect = "sqlite", dbx.SQLite
	}

	db, err := sqlOpen(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	if dialect == dbx.SQLite {
		// one writer at a time; concurrent requests queue on the pool
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	return NewSQLRepositoryManager(db, dialect), nil
}

// NewSQLRepositoryManager wraps an already opened database.
func NewSQLRepositoryManager(db *sql.DB, dialect dbx.Dialect) *SQLRepositoryManager {
	return &SQLRepositoryManager{db: db, conn: db, dialect: dialect}
}

func (m *SQLRepositoryManager) Entitlements() entitlements.Repository {
	if m.dialect == dbx.Postgres {
		return entitlements.NewPostgresRepository(m.conn)
	}
	return entitlements.NewSQLiteRepository(m.conn)
}

func (m *SQLRepositoryManager) Payments() payments.Repository {
	if m.dialect == dbx.Postgres {
		return payments.NewPostgresRepository(m.conn)
	}
	return payments.NewSQLiteRepository(m.conn)
}

func (m *SQLRepositoryManager) Sessions() sessions.Repository {
	if m.dialect == dbx.Postgres {
		return sessions.NewPostgresRepository(m.conn)
	}
	return sessions.NewSQLiteRepository(m.conn)
}

func (m *SQLRepositoryManager) WithinTx(ctx context.Context, fn func(ctx context.Context, m RepositoryManager) error) error {
	if m.inTx {
		return fn(ctx, m)
	}
	return dbx.WithTx(ctx, m.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, &SQLRepositoryManager{db: m.db, conn: tx, dialect: m.dialect, inTx: true})
	})
}

// RunMigrations sets up goose with the embedded migrations for the dialect
// and applies them.
func (m *SQLRepositoryManager) RunMigrations(ctx context.Context) error {
	gooseDialect, dir := "pgx", migrations.PostgresDir
	if m.dialect == dbx.SQLite {
		gooseDialect, dir = "sqlite3", migrations.SQLiteDir
	}

	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect(gooseDialect); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, m.db, dir); err != nil {
		return err
	}
	return nil
}

func (m *SQLRepositoryManager) Ping(ctx context.Context) error {
	return m.db.PingContext(ctx)
}

func (m *SQLRepositoryManager) Close(context.Context) error {
	return m.db.Close()
}
