// Package challenges stores pending one-time codes and the per-email
// code-request history used for rate limiting.
//
// Two implementations are provided: an in-process map (default) and Redis for
// deployments running more than one server instance.
package challenges

import (
	"context"
	"time"

	"github.com/jengacalc/jengacalc/internal/server/models"
)

type Repository interface {
	// Get returns common.ErrorNotFound when no challenge is stored. Expired
	// challenges may still be returned; callers check expiry themselves.
	Get(ctx context.Context, email string) (*models.Challenge, error)
	// Put stores c, replacing any previous challenge for the same email.
	// The store may forget it after retain.
	Put(ctx context.Context, c *models.Challenge, retain time.Duration) error
	// Delete removes the challenge for email only while it still carries
	// codeHash, and reports whether it did. A challenge replaced by a newer
	// Put is left alone.
	Delete(ctx context.Context, email string, codeHash []byte) (bool, error)
	// IncrementAttempts bumps the failed-attempt counter and returns the new
	// value, or common.ErrorNotFound when no challenge is stored.
	IncrementAttempts(ctx context.Context, email string) (int, error)
	// AllowRequest records a code request at now unless limit requests were
	// already recorded within the preceding window. Check and record are atomic.
	AllowRequest(ctx context.Context, email string, now time.Time, window time.Duration, limit int) (bool, error)
	// Sweep reclaims entries that can no longer affect any decision.
	Sweep(ctx context.Context, now time.Time) error
}
