package models

import "time"

// Challenge is a pending one-time code for an email. Only the argon2 digest
// of the code is kept.
type Challenge struct {
	Email     string
	CodeHash  []byte
	Salt      []byte
	CreatedAt time.Time
	Attempts  int
}

// Expired reports whether the challenge is older than ttl at now.
func (c *Challenge) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(c.CreatedAt) > ttl
}
