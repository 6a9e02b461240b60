package model

import (
	"time"
)

// MagicToken is a single-use, time-limited login credential bound to an
// email address. Rows are short-lived: expired tokens are purged on sight,
// used tokens survive for a short grace window so duplicate clicks on the
// same link (back button, mail client prefetch) still succeed.
type MagicToken struct {
	Token     string     `db:"token"`
	Email     string     `db:"email"`
	IssuedAt  time.Time  `db:"issued_at"`
	ExpiresAt time.Time  `db:"expires_at"`
	UsedAt    *time.Time `db:"used_at"`
}

func (t *MagicToken) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}

func (t *MagicToken) IsUsed() bool {
	return t.UsedAt != nil
}
