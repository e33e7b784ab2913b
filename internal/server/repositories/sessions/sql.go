package sessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jengacalc/jengacalc/internal/common"
	"github.com/jengacalc/jengacalc/internal/dbx"
	"github.com/jengacalc/jengacalc/internal/server/models"
)

// SQLRepository implements Repository for PostgreSQL and SQLite.
type SQLRepository struct {
	db      dbx.DBTX
	dialect dbx.Dialect
}

func NewPostgresRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db, dialect: dbx.Postgres}
}

func NewSQLiteRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db, dialect: dbx.SQLite}
}

func (r *SQLRepository) Create(ctx context.Context, s *models.Session) error {
	query := r.dialect.Rebind(
		`INSERT INTO sessions (id, email, verified, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?)`)

	if _, err := r.db.ExecContext(ctx, query, s.ID, s.Email, s.Verified, s.CreatedAt.Unix(), s.ExpiresAt.Unix()); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLRepository) Find(ctx context.Context, id string) (*models.Session, error) {
	query := r.dialect.Rebind(
		`SELECT id, email, verified, created_at, expires_at
		 FROM sessions
		 WHERE id = ?`)

	var (
		s                models.Session
		created, expires int64
	)
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&s.ID, &s.Email, &s.Verified, &created, &expires); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	s.CreatedAt = time.Unix(created, 0).UTC()
	s.ExpiresAt = time.Unix(expires, 0).UTC()
	return &s, nil
}

func (r *SQLRepository) Delete(ctx context.Context, id string) error {
	query := r.dialect.Rebind(`DELETE FROM sessions WHERE id = ?`)
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query := r.dialect.Rebind(`DELETE FROM sessions WHERE expires_at <= ?`)
	res, err := r.db.ExecContext(ctx, query, now.Unix())
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
