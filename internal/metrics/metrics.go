// Package metrics exposes Prometheus instrumentation for the partner
// service: magic-link issuance, session creation, event ingestion and the
// risk sweep. Scraped via GET /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MagicLinksIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "partnerhub_magic_links_issued_total",
		Help: "Magic-link tokens issued.",
	})

	SessionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "partnerhub_sessions_created_total",
		Help: "Partner sessions created by magic-link verification.",
	})

	EventsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "partnerhub_metric_events_total",
		Help: "Metric events recorded, by kind.",
	}, []string{"kind"})

	PartnersFlagged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "partnerhub_partners_flagged_total",
		Help: "Partners newly placed on hold by the risk sweep.",
	})

	SweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "partnerhub_risk_sweep_duration_seconds",
		Help:    "Duration of risk sweep runs.",
		Buckets: prometheus.DefBuckets,
	})
)
