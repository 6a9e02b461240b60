package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/contentflow/partnerhub/internal/ctxkeys"
	"github.com/contentflow/partnerhub/internal/model"
	"github.com/contentflow/partnerhub/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAdminAuthService() *service.AuthService {
	// Repositories are not touched by the admin JWT paths
	return service.NewAuthService(
		nil, nil, nil,
		"http://localhost",
		"test-secret",
		"admin-pw",
		false,
		time.Hour,
		15*time.Minute,
		5*time.Minute,
		30*24*time.Hour,
	)
}

func TestRequirePartner(t *testing.T) {
	handler := RequirePartner(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/me/status", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	session := &model.PartnerSession{PartnerID: "p1", Email: "alice@example.com"}
	req = httptest.NewRequest(http.MethodGet, "/api/me/status", nil)
	req = req.WithContext(ctxkeys.WithSession(req.Context(), session))
	rec = httptest.NewRecorder()
	handler(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAdmin(t *testing.T) {
	auth := newAdminAuthService()

	var sawAdmin bool
	handler := RequireAdmin(auth)(func(w http.ResponseWriter, r *http.Request) {
		sawAdmin = ctxkeys.IsAdmin(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	// Missing header
	req := httptest.NewRequest(http.MethodPost, "/api/admin/risk/sweep", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Garbage token
	req = httptest.NewRequest(http.MethodPost, "/api/admin/risk/sweep", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec = httptest.NewRecorder()
	handler(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Valid token
	token, err := auth.AdminLogin("admin-pw")
	require.NoError(t, err)

	req = httptest.NewRequest(http.MethodPost, "/api/admin/risk/sweep", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	handler(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, sawAdmin)
}
