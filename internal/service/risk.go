package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/contentflow/partnerhub/internal/metrics"
	"github.com/contentflow/partnerhub/internal/model"
	"github.com/contentflow/partnerhub/internal/repository"
)

var (
	ErrInvalidEventKind = errors.New("invalid event kind")
	ErrInvalidFlag      = errors.New("invalid flag")
	ErrFlagExists       = errors.New("flag already exists for partner")
)

// RiskService detects abnormal click velocity and manages partner flags.
// A partner over the click threshold is placed on "hold", which blocks
// payouts and publication until an administrator clears the flag. Holds
// never expire on their own.
type RiskService struct {
	eventRepository repository.EventRepository
	flagRepository  repository.FlagRepository
	maxClicks       int
	window          time.Duration
}

func NewRiskService(
	eventRepository repository.EventRepository,
	flagRepository repository.FlagRepository,
	maxClicks int,
	window time.Duration,
) *RiskService {
	return &RiskService{
		eventRepository: eventRepository,
		flagRepository:  flagRepository,
		maxClicks:       maxClicks,
		window:          window,
	}
}

// RecordEvent appends a metric event. An empty partnerID records an
// anonymous event, which the sweep never considers.
func (s *RiskService) RecordEvent(partnerID, kind string, metadata map[string]any) error {
	if !model.ValidEventKind(kind) {
		return fmt.Errorf("%w: %q", ErrInvalidEventKind, kind)
	}

	event := &model.MetricEvent{
		Kind:      kind,
		Timestamp: time.Now(),
		Metadata:  marshalMetadata(metadata),
	}
	if partnerID != "" {
		event.PartnerID = &partnerID
	}

	err := s.eventRepository.Create(event)
	if err != nil {
		return fmt.Errorf("failed to record event: %w", err)
	}

	metrics.EventsRecorded.WithLabelValues(kind).Inc()
	return nil
}

// Sweep scans click events in the trailing window and places every partner
// at or over the threshold on hold. Returns the number of newly-flagged
// partners; partners already on hold are not re-counted. Zero arguments fall
// back to the configured defaults.
//
// The count is evaluated at sweep time, not continuously: a burst that
// straddles two sweep runs is only caught if it persists into the next
// window.
func (s *RiskService) Sweep(maxClicks int, window time.Duration) (int, error) {
	if maxClicks <= 0 {
		maxClicks = s.maxClicks
	}
	if window <= 0 {
		window = s.window
	}

	start := time.Now()
	defer func() {
		metrics.SweepDuration.Observe(time.Since(start).Seconds())
	}()

	suspicious, err := s.eventRepository.ClickVelocity(start.Add(-window), maxClicks)
	if err != nil {
		return 0, fmt.Errorf("failed to scan click velocity: %w", err)
	}

	flagged := 0
	for _, p := range suspicious {
		inserted, err := s.flagRepository.Create(&model.PartnerFlag{
			PartnerID: p.PartnerID,
			Flag:      model.FlagHold,
			Metadata: marshalMetadata(map[string]any{
				"reason":      "velocity",
				"clicks":      p.Count,
				"detected_at": start.UTC().Format(time.RFC3339),
			}),
		})
		if err != nil {
			// One partner failing to flag must not abort the sweep for the
			// rest.
			slog.Warn("failed to flag partner", "partner_id", p.PartnerID, "error", err)
			continue
		}
		if inserted {
			flagged++
			metrics.PartnersFlagged.Inc()
			slog.Warn("partner placed on hold", "partner_id", p.PartnerID, "clicks", p.Count, "window", window)
		}
	}

	if flagged > 0 {
		slog.Info("risk sweep flagged partners", "flagged", flagged, "over_threshold", len(suspicious))
	}
	return flagged, nil
}

// IsOnHold reports whether the partner has an active hold flag. Payout and
// publication callers must refuse the action when true.
func (s *RiskService) IsOnHold(partnerID string) (bool, error) {
	return s.flagRepository.Exists(partnerID, model.FlagHold)
}

// AddFlag attaches a trust & safety flag to a partner. Duplicate
// (partner, flag) pairs are rejected.
func (s *RiskService) AddFlag(partnerID, flag string, metadata map[string]any) (string, error) {
	if !model.ValidFlag(flag) {
		return "", fmt.Errorf("%w: %q", ErrInvalidFlag, flag)
	}

	f := &model.PartnerFlag{
		PartnerID: partnerID,
		Flag:      flag,
		Metadata:  marshalMetadata(metadata),
	}
	inserted, err := s.flagRepository.Create(f)
	if err != nil {
		return "", fmt.Errorf("failed to add flag: %w", err)
	}
	if !inserted {
		return "", ErrFlagExists
	}

	slog.Info("partner flag added", "partner_id", partnerID, "flag", flag)
	return f.ID, nil
}

// RemoveFlag clears a flag. This is the only way a partner is ever un-held.
func (s *RiskService) RemoveFlag(partnerID, flag string) (bool, error) {
	removed, err := s.flagRepository.Delete(partnerID, flag)
	if err != nil {
		return false, fmt.Errorf("failed to remove flag: %w", err)
	}
	if removed {
		slog.Info("partner flag removed", "partner_id", partnerID, "flag", flag)
	}
	return removed, nil
}

func (s *RiskService) Flags(partnerID string) ([]model.PartnerFlag, error) {
	return s.flagRepository.ByPartnerID(partnerID)
}

// HeldPartners lists all active hold flags for the admin review queue.
func (s *RiskService) HeldPartners() ([]model.PartnerFlag, error) {
	return s.flagRepository.ByFlag(model.FlagHold)
}

func marshalMetadata(metadata map[string]any) string {
	if len(metadata) == 0 {
		return "{}"
	}
	b, err := json.Marshal(metadata)
	if err != nil {
		slog.Warn("failed to marshal event metadata", "error", err)
		return "{}"
	}
	return string(b)
}
