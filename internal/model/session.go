package model

import (
	"time"
)

// PartnerSession is a durable bearer session established by magic-link
// verification. PartnerID is derived deterministically from the email, so
// the same address always maps to the same partner identity.
//
// Sessions expire on an absolute 30-day clock measured from CreatedAt and
// are never extended by use.
type PartnerSession struct {
	SessionToken string    `db:"session_token"`
	PartnerID    string    `db:"partner_id"`
	Email        string    `db:"email"`
	CreatedAt    time.Time `db:"created_at"`
}

func (s *PartnerSession) IsExpired(lifetime time.Duration) bool {
	return time.Since(s.CreatedAt) > lifetime
}
