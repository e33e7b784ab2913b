package models

import "time"

// PaymentKind classifies a confirmed charge.
type PaymentKind string

const (
	PaymentSubscription PaymentKind = "subscription"
	PaymentTokens       PaymentKind = "tokens"
)

// Payment is a processed provider transaction. Reference is unique; a second
// delivery of the same reference is a no-op.
type Payment struct {
	Reference string      `bson:"_id"`
	Email     string      `bson:"email"`
	Amount    int64       `bson:"amount"`
	Kind      PaymentKind `bson:"kind"`
	CreatedAt time.Time   `bson:"created_at"`
}
