package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/contentflow/partnerhub/internal/ctxkeys"
	"github.com/contentflow/partnerhub/internal/service"
)

type trackHandler struct {
	riskService *service.RiskService
}

func NewTrackHandler(riskService *service.RiskService) *trackHandler {
	return &trackHandler{riskService: riskService}
}

type recordEventRequest struct {
	Kind     string         `json:"kind"`
	Metadata map[string]any `json:"metadata"`
}

// RecordEvent appends a metric event. The partner is taken from the session
// cookie when present; otherwise the event is recorded anonymously and never
// considered by the risk sweep.
func (h *trackHandler) RecordEvent(w http.ResponseWriter, r *http.Request) {
	var req recordEventRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	partnerID := ""
	if session := ctxkeys.Session(r.Context()); session != nil {
		partnerID = session.PartnerID
	}

	err = h.riskService.RecordEvent(partnerID, req.Kind, req.Metadata)
	if err != nil {
		slog.Warn("failed to record event", "error", err, "kind", req.Kind)
		respondError(w, http.StatusBadRequest, "invalid event")
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]bool{"recorded": true})
}

// Status reports whether the authenticated partner is under review. Payout
// and publication clients check this before allowing either action.
func (h *trackHandler) Status(w http.ResponseWriter, r *http.Request) {
	session := ctxkeys.Session(r.Context())

	onHold, err := h.riskService.IsOnHold(session.PartnerID)
	if err != nil {
		slog.Error("failed to check hold status", "error", err, "partner_id", session.PartnerID)
		respondError(w, http.StatusInternalServerError, "failed to check status")
		return
	}

	resp := map[string]any{
		"partner_id": session.PartnerID,
		"on_hold":    onHold,
	}
	if onHold {
		resp["message"] = "account under review"
	}
	respondJSON(w, http.StatusOK, resp)
}
