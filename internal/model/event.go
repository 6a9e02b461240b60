package model

import (
	"time"
)

const (
	EventKindClick      = "click"
	EventKindView       = "view"
	EventKindConversion = "conversion"
)

// MetricEvent is an append-only record of partner activity. PartnerID is
// nullable: anonymous events are recorded but never considered by the risk
// sweep. Metadata is an opaque JSON payload supplied by the caller.
type MetricEvent struct {
	ID        string    `db:"id"`
	PartnerID *string   `db:"partner_id"`
	Kind      string    `db:"kind"`
	Timestamp time.Time `db:"ts"`
	Metadata  string    `db:"metadata"`
}

func ValidEventKind(kind string) bool {
	switch kind {
	case EventKindClick, EventKindView, EventKindConversion:
		return true
	}
	return false
}
