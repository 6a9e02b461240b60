package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/contentflow/partnerhub/internal/model"
	"github.com/contentflow/partnerhub/internal/service"
)

type adminHandler struct {
	authService *service.AuthService
	riskService *service.RiskService
}

func NewAdminHandler(authService *service.AuthService, riskService *service.RiskService) *adminHandler {
	return &adminHandler{
		authService: authService,
		riskService: riskService,
	}
}

type adminLoginRequest struct {
	Password string `json:"password"`
}

func (h *adminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req adminLoginRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, err := h.authService.AdminLogin(req.Password)
	if err != nil {
		slog.Warn("admin login failed", "error", err)
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"token": token})
}

// TriggerSweep runs the risk sweep on demand. Safe to race with the
// scheduled sweep; duplicate holds are prevented at the storage layer.
func (h *adminHandler) TriggerSweep(w http.ResponseWriter, r *http.Request) {
	flagged, err := h.riskService.Sweep(0, 0)
	if err != nil {
		slog.Error("manual risk sweep failed", "error", err)
		respondError(w, http.StatusInternalServerError, "sweep failed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]int{"flagged": flagged})
}

func (h *adminHandler) HeldPartners(w http.ResponseWriter, r *http.Request) {
	held, err := h.riskService.HeldPartners()
	if err != nil {
		slog.Error("failed to list held partners", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to list held partners")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"held": flagsResponse(held)})
}

func (h *adminHandler) PartnerFlags(w http.ResponseWriter, r *http.Request) {
	partnerID := r.PathValue("id")

	flags, err := h.riskService.Flags(partnerID)
	if err != nil {
		slog.Error("failed to list partner flags", "error", err, "partner_id", partnerID)
		respondError(w, http.StatusInternalServerError, "failed to list flags")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"flags": flagsResponse(flags)})
}

type addFlagRequest struct {
	Flag     string         `json:"flag"`
	Metadata map[string]any `json:"metadata"`
}

func (h *adminHandler) AddFlag(w http.ResponseWriter, r *http.Request) {
	partnerID := r.PathValue("id")

	var req addFlagRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id, err := h.riskService.AddFlag(partnerID, req.Flag, req.Metadata)
	if err != nil {
		if errors.Is(err, service.ErrFlagExists) {
			respondError(w, http.StatusConflict, "flag already exists for partner")
			return
		}
		if errors.Is(err, service.ErrInvalidFlag) {
			respondError(w, http.StatusBadRequest, "invalid flag")
			return
		}
		slog.Error("failed to add flag", "error", err, "partner_id", partnerID)
		respondError(w, http.StatusInternalServerError, "failed to add flag")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *adminHandler) RemoveFlag(w http.ResponseWriter, r *http.Request) {
	partnerID := r.PathValue("id")
	flag := r.PathValue("flag")

	removed, err := h.riskService.RemoveFlag(partnerID, flag)
	if err != nil {
		slog.Error("failed to remove flag", "error", err, "partner_id", partnerID, "flag", flag)
		respondError(w, http.StatusInternalServerError, "failed to remove flag")
		return
	}
	if !removed {
		respondError(w, http.StatusNotFound, "flag not found")
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"removed": true})
}

type flagJSON struct {
	ID        string          `json:"id"`
	PartnerID string          `json:"partner_id"`
	Flag      string          `json:"flag"`
	Metadata  json.RawMessage `json:"metadata"`
	CreatedAt string          `json:"created_at"`
}

func flagsResponse(flags []model.PartnerFlag) []flagJSON {
	out := make([]flagJSON, 0, len(flags))
	for _, f := range flags {
		meta := json.RawMessage(f.Metadata)
		if !json.Valid(meta) {
			meta = json.RawMessage("{}")
		}
		out = append(out, flagJSON{
			ID:        f.ID,
			PartnerID: f.PartnerID,
			Flag:      f.Flag,
			Metadata:  meta,
			CreatedAt: f.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return out
}
