package entitlements

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jengacalc/jengacalc/internal/common"
	"github.com/jengacalc/jengacalc/internal/dbx"
	"github.com/jengacalc/jengacalc/internal/server/models"
)

const columns = `id, email, calculations_used, subscription_active, subscription_expires, token_balance, created_at, updated_at`

// SQLRepository implements Repository over dbx.DBTX for PostgreSQL and SQLite.
// Timestamps are stored as unix seconds.
type SQLRepository struct {
	db      dbx.DBTX
	dialect dbx.Dialect
}

// NewPostgresRepository constructs a repository bound to a PostgreSQL DBTX.
func NewPostgresRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db, dialect: dbx.Postgres}
}

// NewSQLiteRepository constructs a repository bound to a SQLite DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db, dialect: dbx.SQLite}
}

func (r *SQLRepository) FindOrCreate(ctx context.Context, email string) (*models.Entitlement, error) {
	ts := now().Unix()
	query := r.dialect.Rebind(
		`INSERT INTO entitlements (id, email, created_at, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (email) DO NOTHING`)

	if _, err := r.db.ExecContext(ctx, query, uuid.NewString(), email, ts, ts); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return r.Get(ctx, email)
}

func (r *SQLRepository) Get(ctx context.Context, email string) (*models.Entitlement, error) {
	query := r.dialect.Rebind(`SELECT ` + columns + ` FROM entitlements WHERE email = ?`)

	e, err := scanEntitlement(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return e, nil
}

func (r *SQLRepository) ConsumeFreeCalculation(ctx context.Context, email string, limit int64) (*models.Entitlement, bool, error) {
	query := r.dialect.Rebind(
		`UPDATE entitlements
		 SET calculations_used = calculations_used + 1, updated_at = ?
		 WHERE email = ? AND calculations_used < ?
		 RETURNING ` + columns)

	e, err := scanEntitlement(r.db.QueryRowContext(ctx, query, now().Unix(), email, limit))
	if err == nil {
		return e, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("db error: %w", err)
	}

	e, err = r.Get(ctx, email)
	if err != nil {
		return nil, false, err
	}
	return e, false, nil
}

func (r *SQLRepository) ActivateSubscription(ctx context.Context, email string, expires time.Time) (*models.Entitlement, error) {
	ts := now().Unix()
	query := r.dialect.Rebind(
		`INSERT INTO entitlements (id, email, subscription_active, subscription_expires, created_at, updated_at)
		 VALUES (?, ?, TRUE, ?, ?, ?)
		 ON CONFLICT (email) DO UPDATE
		 SET subscription_active = TRUE,
		     subscription_expires = excluded.subscription_expires,
		     updated_at = excluded.updated_at
		 RETURNING ` + columns)

	e, err := scanEntitlement(r.db.QueryRowContext(ctx, query, uuid.NewString(), email, expires.Unix(), ts, ts))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return e, nil
}

func (r *SQLRepository) AddTokens(ctx context.Context, email string, n int64) (*models.Entitlement, error) {
	ts := now().Unix()
	query := r.dialect.Rebind(
		`INSERT INTO entitlements (id, email, token_balance, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (email) DO UPDATE
		 SET token_balance = entitlements.token_balance + excluded.token_balance,
		     updated_at = excluded.updated_at
		 RETURNING ` + columns)

	e, err := scanEntitlement(r.db.QueryRowContext(ctx, query, uuid.NewString(), email, n, ts, ts))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return e, nil
}

func (r *SQLRepository) ResetUsage(ctx context.Context, email string) (*models.Entitlement, error) {
	query := r.dialect.Rebind(
		`UPDATE entitlements
		 SET calculations_used = 0, updated_at = ?
		 WHERE email = ?
		 RETURNING ` + columns)

	e, err := scanEntitlement(r.db.QueryRowContext(ctx, query, now().Unix(), email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return e, nil
}

func scanEntitlement(row *sql.Row) (*models.Entitlement, error) {
	var (
		e                models.Entitlement
		expires          sql.NullInt64
		created, updated int64
	)
	err := row.Scan(&e.ID, &e.Email, &e.CalculationsUsed, &e.SubscriptionActive, &expires,
		&e.TokenBalance, &created, &updated)
	if err != nil {
		return nil, err
	}
	if expires.Valid {
		t := time.Unix(expires.Int64, 0).UTC()
		e.SubscriptionExpires = &t
	}
	e.CreatedAt = time.Unix(created, 0).UTC()
	e.UpdatedAt = time.Unix(updated, 0).UTC()
	return &e, nil
}
