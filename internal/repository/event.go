package repository

import (
	"time"

	"github.com/contentflow/partnerhub/internal/model"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// PartnerClickCount is one row of the sweep's windowed group-by.
type PartnerClickCount struct {
	PartnerID string `db:"partner_id"`
	Count     int    `db:"count"`
}

type EventRepository interface {
	Create(event *model.MetricEvent) error
	ClickVelocity(since time.Time, minCount int) ([]PartnerClickCount, error)
	CountByPartnerAndKind(partnerID, kind string, since time.Time) (int, error)
}

type eventRepository struct {
	db *sqlx.DB
}

func NewEventRepository(db *sqlx.DB) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) Create(event *model.MetricEvent) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Metadata == "" {
		event.Metadata = "{}"
	}

	query := `
		INSERT INTO metric_events (id, partner_id, kind, ts, metadata)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.Exec(query,
		event.ID,
		event.PartnerID,
		event.Kind,
		event.Timestamp,
		event.Metadata,
	)
	return err
}

// ClickVelocity returns partners with at least minCount click events since
// the cutoff. Anonymous events (NULL partner_id) are excluded: a partner
// that cannot be identified cannot be flagged.
func (r *eventRepository) ClickVelocity(since time.Time, minCount int) ([]PartnerClickCount, error) {
	counts := []PartnerClickCount{}
	query := `
		SELECT partner_id, COUNT(*) AS count
		FROM metric_events
		WHERE kind = $1
		  AND ts >= $2
		  AND partner_id IS NOT NULL
		GROUP BY partner_id
		HAVING COUNT(*) >= $3
	`
	err := r.db.Select(&counts, query, model.EventKindClick, since, minCount)
	return counts, err
}

func (r *eventRepository) CountByPartnerAndKind(partnerID, kind string, since time.Time) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM metric_events WHERE partner_id = $1 AND kind = $2 AND ts >= $3`

	err := r.db.Get(&count, query, partnerID, kind, since)
	return count, err
}
