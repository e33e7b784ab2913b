package payments

import (
	"context"
	"fmt"
	"time"

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

func (r *SQLRepository) Record(ctx context.Context, p *models.Payment) (bool, error) {
	query := r.dialect.Rebind(
		`INSERT INTO payments (reference, email, amount, kind, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (reference) DO NOTHING`)

	res, err := r.db.ExecContext(ctx, query, p.Reference, p.Email, p.Amount, string(p.Kind), p.CreatedAt.Unix())
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n == 1, nil
}

func (r *SQLRepository) ListByEmail(ctx context.Context, email string) ([]*models.Payment, error) {
	query := r.dialect.Rebind(
		`SELECT reference, email, amount, kind, created_at
		 FROM payments
		 WHERE email = ?
		 ORDER BY created_at DESC`)

	rows, err := r.db.QueryContext(ctx, query, email)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Payment
	for rows.Next() {
		var (
			p       models.Payment
			kind    string
			created int64
		)
		if err := rows.Scan(&p.Reference, &p.Email, &p.Amount, &kind, &created); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		p.Kind = models.PaymentKind(kind)
		p.CreatedAt = time.Unix(created, 0).UTC()
		result = append(result, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
