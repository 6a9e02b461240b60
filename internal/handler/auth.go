package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/contentflow/partnerhub/internal/config"
	"github.com/contentflow/partnerhub/internal/ctxkeys"
	"github.com/contentflow/partnerhub/internal/service"
	"github.com/contentflow/partnerhub/internal/validation"
)

type authHandler struct {
	authService *service.AuthService
	cfg         *config.Config
}

func NewAuthHandler(authService *service.AuthService, cfg *config.Config) *authHandler {
	return &authHandler{
		authService: authService,
		cfg:         cfg,
	}
}

type magicLinkRequest struct {
	Email   string `json:"email"`
	BaseURL string `json:"base_url"`
}

// SendMagicLink issues a sign-in token and emails the link. The response
// never reveals whether the address is known; in development the link is
// included so the flow works without a mail provider.
func (h *authHandler) SendMagicLink(w http.ResponseWriter, r *http.Request) {
	var req magicLinkRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	email := strings.TrimSpace(req.Email)
	if email == "" {
		respondError(w, http.StatusBadRequest, "email is required")
		return
	}

	err = validation.ValidateEmail(email)
	if err != nil {
		respondError(w, http.StatusBadRequest, "please provide a valid email address")
		return
	}

	link, err := h.authService.IssueMagicLink(email, req.BaseURL)
	if err != nil {
		slog.Error("failed to issue magic link", "error", err, "email", email)
		respondError(w, http.StatusInternalServerError, "failed to send magic link")
		return
	}

	resp := map[string]any{
		"sent":       true,
		"expires_at": link.ExpiresAt.UTC().Format(time.RFC3339),
	}
	if h.cfg.IsDevelopment() {
		resp["link"] = link.Link
	}
	respondJSON(w, http.StatusOK, resp)
}

// VerifyMagicLink exchanges a token for a partner session cookie. Not-found
// and expired tokens get the same generic message so the endpoint leaks no
// validity information.
func (h *authHandler) VerifyMagicLink(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		respondError(w, http.StatusBadRequest, "token is required")
		return
	}

	session, err := h.authService.VerifyMagicLink(token)
	if err != nil {
		slog.Warn("magic link verification failed", "error", err)
		respondError(w, http.StatusUnauthorized, "invalid or expired link, request a new one")
		return
	}

	h.authService.SetSessionCookie(w, session.SessionToken, session.CreatedAt.Add(h.authService.SessionLifetime()))

	respondJSON(w, http.StatusOK, map[string]string{
		"partner_id": session.PartnerID,
		"email":      session.Email,
	})
}

// Session returns the authenticated partner's session info.
func (h *authHandler) Session(w http.ResponseWriter, r *http.Request) {
	session := ctxkeys.Session(r.Context())
	if session == nil {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"partner_id": session.PartnerID,
		"email":      session.Email,
		"created_at": session.CreatedAt.UTC().Format(time.RFC3339),
	})
}

func (h *authHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(service.SessionCookieName)
	if err == nil {
		_, err = h.authService.InvalidateSession(cookie.Value)
		if err != nil {
			slog.Warn("failed to invalidate session", "error", err)
		}
	}

	h.authService.ClearSessionCookie(w)
	respondJSON(w, http.StatusOK, map[string]bool{"logged_out": true})
}
