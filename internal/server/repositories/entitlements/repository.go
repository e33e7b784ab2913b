// Package entitlements stores the per-email usage and subscription record.
package entitlements

import (
	"context"
	"time"

	"github.com/jengacalc/jengacalc/internal/server/models"
)

// Repository is the Entitlement Store. Every mutation is a single atomic
// statement at the storage layer.
type Repository interface {
	// FindOrCreate returns the record for email, creating a zeroed one on
	// first touch.
	FindOrCreate(ctx context.Context, email string) (*models.Entitlement, error)
	// Get returns common.ErrorNotFound for an unknown email.
	Get(ctx context.Context, email string) (*models.Entitlement, error)
	// ConsumeFreeCalculation increments calculations_used only while it is
	// below limit. The bool reports whether a unit was consumed.
	ConsumeFreeCalculation(ctx context.Context, email string, limit int64) (*models.Entitlement, bool, error)
	// ActivateSubscription upserts the record and replaces any prior expiry.
	ActivateSubscription(ctx context.Context, email string, expires time.Time) (*models.Entitlement, error)
	// AddTokens upserts the record and increments token_balance by n.
	AddTokens(ctx context.Context, email string, n int64) (*models.Entitlement, error)
	// ResetUsage sets calculations_used back to zero.
	ResetUsage(ctx context.Context, email string) (*models.Entitlement, error)
}

// now is a seam for tests.
var now = func() time.Time { return time.Now().UTC() }
