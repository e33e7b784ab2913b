// Package payments records processed provider transactions so that webhook
// redeliveries are applied once.
package payments

import (
	"context"

	"github.com/jengacalc/jengacalc/internal/server/models"
)

type Repository interface {
	// Record stores p unless its reference was already recorded. The bool is
	// false for a duplicate.
	Record(ctx context.Context, p *models.Payment) (bool, error)
	// ListByEmail returns the payments for email, newest first.
	ListByEmail(ctx context.Context, email string) ([]*models.Payment, error)
}
