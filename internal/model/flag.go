package model

import (
	"time"
)

const (
	FlagHold  = "hold"
	FlagFraud = "fraud"
	FlagDMCA  = "dmca"
)

// PartnerFlag marks a partner for trust & safety review. A "hold" blocks
// payouts and publication until an administrator removes it; there is no
// automatic expiry. At most one row exists per (partner_id, flag) pair,
// enforced by a unique index.
type PartnerFlag struct {
	ID        string    `db:"id"`
	PartnerID string    `db:"partner_id"`
	Flag      string    `db:"flag"`
	Metadata  string    `db:"metadata"`
	CreatedAt time.Time `db:"created_at"`
}

func ValidFlag(flag string) bool {
	switch flag {
	case FlagHold, FlagFraud, FlagDMCA:
		return true
	}
	return false
}
