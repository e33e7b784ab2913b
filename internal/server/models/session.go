package models

import "time"

// Session binds a browser session to a verified email.
type Session struct {
	ID        string    `bson:"_id"`
	Email     string    `bson:"email"`
	Verified  bool      `bson:"verified"`
	CreatedAt time.Time `bson:"created_at"`
	ExpiresAt time.Time `bson:"expires_at"`
}
