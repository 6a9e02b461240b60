package handler

import (
	"net/http"

	"github.com/jmoiron/sqlx"
)

type healthHandler struct {
	db *sqlx.DB
}

func NewHealthHandler(db *sqlx.DB) *healthHandler {
	return &healthHandler{db: db}
}

func (h *healthHandler) Health(w http.ResponseWriter, r *http.Request) {
	err := h.db.Ping()
	if err != nil {
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "down"})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
