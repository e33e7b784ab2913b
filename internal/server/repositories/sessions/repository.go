// Package sessions persists server-side login sessions.
package sessions

import (
	"context"
	"time"

	"github.com/jengacalc/jengacalc/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, s *models.Session) error
	// Find returns common.ErrorNotFound when the session does not exist.
	Find(ctx context.Context, id string) (*models.Session, error)
	Delete(ctx context.Context, id string) error
	// DeleteExpired removes sessions whose expiry is not after now and
	// returns how many were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
