package types

import "time"

// Session is an authenticated client. Each login creates one; logout removes it.
type Session struct {
	ID         string        `json:"id" db:"id"`
	Identifier string        `json:"identifier" db:"identifier"`
	Role       Role          `json:"role" db:"role"`
	Chat       *ChatIdentity `json:"chat,omitempty" db:"-"`
	CreatedAt  time.Time     `json:"created_at" db:"created_at"`
	ExpiresAt  time.Time     `json:"expires_at" db:"expires_at"`
}

// Expired reports whether the session is past its expiry at now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}
