// Package models defines server-side data models persisted by the repositories.
package models

import "time"

// Entitlement is the per-identity usage and subscription record.
type Entitlement struct {
	ID                  string     `bson:"_id"`
	Email               string     `bson:"email"`
	CalculationsUsed    int64      `bson:"calculations_used"`
	SubscriptionActive  bool       `bson:"subscription_active"`
	SubscriptionExpires *time.Time `bson:"subscription_expires,omitempty"`
	TokenBalance        int64      `bson:"token_balance"`
	CreatedAt           time.Time  `bson:"created_at"`
	UpdatedAt           time.Time  `bson:"updated_at"`
}

// HasActiveSubscription reports whether the subscription is in force at now.
// A stale SubscriptionActive flag with a past expiry counts as inactive.
func (e *Entitlement) HasActiveSubscription(now time.Time) bool {
	return e.SubscriptionActive && e.SubscriptionExpires != nil && e.SubscriptionExpires.After(now)
}
