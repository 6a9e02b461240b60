package service

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"
	"time"

	"github.com/contentflow/partnerhub/internal/model"
	"github.com/contentflow/partnerhub/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueMagicLink(t *testing.T) {
	ts := newTestServices(t)

	link, err := ts.auth.IssueMagicLink("alice@example.com", "")
	require.NoError(t, err)

	assert.Len(t, link.Token, 64) // 32 random bytes, hex encoded
	assert.Equal(t, "http://localhost:8090/api/auth/verify?token="+link.Token, link.Link)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), link.ExpiresAt, 5*time.Second)
}

func TestIssueMagicLinkCustomBaseURL(t *testing.T) {
	ts := newTestServices(t)

	link, err := ts.auth.IssueMagicLink("alice@example.com", "https://partners.contentflow.app/")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(link.Link, "https://partners.contentflow.app/api/auth/verify?token="))
}

func TestVerifyMagicLinkCreatesSession(t *testing.T) {
	ts := newTestServices(t)

	link, err := ts.auth.IssueMagicLink("alice@example.com", "")
	require.NoError(t, err)

	session, err := ts.auth.VerifyMagicLink(link.Token)
	require.NoError(t, err)

	assert.Equal(t, "alice@example.com", session.Email)
	assert.Equal(t, ts.auth.PartnerID("alice@example.com"), session.PartnerID)
	assert.NotEmpty(t, session.SessionToken)

	got, err := ts.auth.VerifySession(session.SessionToken)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, session.PartnerID, got.PartnerID)
}

func TestVerifyMagicLinkIdempotentWithinGrace(t *testing.T) {
	ts := newTestServices(t)

	link, err := ts.auth.IssueMagicLink("alice@example.com", "")
	require.NoError(t, err)

	first, err := ts.auth.VerifyMagicLink(link.Token)
	require.NoError(t, err)

	// A second click on the same link (back button, prefetch) must succeed
	// and must not create a second session.
	second, err := ts.auth.VerifyMagicLink(link.Token)
	require.NoError(t, err)
	assert.Equal(t, first.SessionToken, second.SessionToken)

	var count int
	err = ts.db.Get(&count, `SELECT COUNT(*) FROM partner_sessions WHERE partner_id = $1`, first.PartnerID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestVerifyMagicLinkAfterGraceWindow(t *testing.T) {
	ts := newTestServices(t)

	usedAt := time.Now().Add(-10 * time.Minute)
	err := ts.tokens.Create(&model.MagicToken{
		Token:     "stale-used-token",
		Email:     "alice@example.com",
		IssuedAt:  time.Now().Add(-12 * time.Minute),
		ExpiresAt: time.Now().Add(3 * time.Minute),
		UsedAt:    &usedAt,
	})
	require.NoError(t, err)

	_, err = ts.auth.VerifyMagicLink("stale-used-token")
	assert.ErrorIs(t, err, repository.ErrTokenNotFound)

	// Row was purged
	_, err = ts.tokens.ByToken("stale-used-token")
	assert.ErrorIs(t, err, repository.ErrTokenNotFound)
}

func TestVerifyMagicLinkUnknownToken(t *testing.T) {
	ts := newTestServices(t)

	_, err := ts.auth.VerifyMagicLink("never-issued")
	assert.ErrorIs(t, err, repository.ErrTokenNotFound)
}

func TestVerifyMagicLinkExpired(t *testing.T) {
	ts := newTestServices(t)

	err := ts.tokens.Create(&model.MagicToken{
		Token:     "expired-token",
		Email:     "alice@example.com",
		IssuedAt:  time.Now().Add(-16 * time.Minute),
		ExpiresAt: time.Now().Add(-time.Minute),
	})
	require.NoError(t, err)

	_, err = ts.auth.VerifyMagicLink("expired-token")
	assert.ErrorIs(t, err, repository.ErrTokenExpired)

	// Expired token is purged on sight; a retry looks never-issued.
	_, err = ts.auth.VerifyMagicLink("expired-token")
	assert.ErrorIs(t, err, repository.ErrTokenNotFound)
}

func TestPartnerIDDeterministic(t *testing.T) {
	ts := newTestServices(t)

	sum := sha256.Sum256([]byte("alice@example.com"))
	want := hex.EncodeToString(sum[:])[:16]

	assert.Equal(t, want, ts.auth.PartnerID("alice@example.com"))
	assert.Equal(t, want, ts.auth.PartnerID("  Alice@Example.COM  "))
	assert.NotEqual(t, want, ts.auth.PartnerID("bob@example.com"))
}

func TestReAuthenticationMapsToSamePartner(t *testing.T) {
	ts := newTestServices(t)

	first, err := ts.auth.IssueMagicLink("alice@example.com", "")
	require.NoError(t, err)
	s1, err := ts.auth.VerifyMagicLink(first.Token)
	require.NoError(t, err)

	second, err := ts.auth.IssueMagicLink("alice@example.com", "")
	require.NoError(t, err)
	s2, err := ts.auth.VerifyMagicLink(second.Token)
	require.NoError(t, err)

	assert.Equal(t, s1.PartnerID, s2.PartnerID)
	// Active session is reused, not duplicated
	assert.Equal(t, s1.SessionToken, s2.SessionToken)
}

func TestVerifySessionLifetime(t *testing.T) {
	ts := newTestServices(t)

	err := ts.sessions.Create(&model.PartnerSession{
		SessionToken: "fresh-session",
		PartnerID:    "p1",
		Email:        "alice@example.com",
		CreatedAt:    time.Now().Add(-29 * 24 * time.Hour),
	})
	require.NoError(t, err)

	got, err := ts.auth.VerifySession("fresh-session")
	require.NoError(t, err)
	assert.NotNil(t, got)

	err = ts.sessions.Create(&model.PartnerSession{
		SessionToken: "old-session",
		PartnerID:    "p2",
		Email:        "bob@example.com",
		CreatedAt:    time.Now().Add(-31 * 24 * time.Hour),
	})
	require.NoError(t, err)

	got, err = ts.auth.VerifySession("old-session")
	require.NoError(t, err)
	assert.Nil(t, got)

	// Expired session was deleted on read
	_, err = ts.sessions.ByToken("old-session")
	assert.ErrorIs(t, err, repository.ErrSessionNotFound)
}

func TestInvalidateSession(t *testing.T) {
	ts := newTestServices(t)

	link, err := ts.auth.IssueMagicLink("alice@example.com", "")
	require.NoError(t, err)
	session, err := ts.auth.VerifyMagicLink(link.Token)
	require.NoError(t, err)

	existed, err := ts.auth.InvalidateSession(session.SessionToken)
	require.NoError(t, err)
	assert.True(t, existed)

	existed, err = ts.auth.InvalidateSession(session.SessionToken)
	require.NoError(t, err)
	assert.False(t, existed)

	got, err := ts.auth.VerifySession(session.SessionToken)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCleanup(t *testing.T) {
	ts := newTestServices(t)

	err := ts.tokens.Create(&model.MagicToken{
		Token:     "expired",
		Email:     "a@example.com",
		ExpiresAt: time.Now().Add(-time.Hour),
	})
	require.NoError(t, err)

	usedAt := time.Now().Add(-time.Hour)
	err = ts.tokens.Create(&model.MagicToken{
		Token:     "used-past-grace",
		Email:     "b@example.com",
		ExpiresAt: time.Now().Add(time.Hour),
		UsedAt:    &usedAt,
	})
	require.NoError(t, err)

	err = ts.tokens.Create(&model.MagicToken{
		Token:     "live",
		Email:     "c@example.com",
		ExpiresAt: time.Now().Add(10 * time.Minute),
	})
	require.NoError(t, err)

	err = ts.sessions.Create(&model.PartnerSession{
		SessionToken: "ancient",
		PartnerID:    "p1",
		Email:        "a@example.com",
		CreatedAt:    time.Now().Add(-40 * 24 * time.Hour),
	})
	require.NoError(t, err)
	err = ts.sessions.Create(&model.PartnerSession{
		SessionToken: "current",
		PartnerID:    "p2",
		Email:        "b@example.com",
		CreatedAt:    time.Now(),
	})
	require.NoError(t, err)

	err = ts.auth.Cleanup()
	require.NoError(t, err)

	_, err = ts.tokens.ByToken("expired")
	assert.ErrorIs(t, err, repository.ErrTokenNotFound)
	_, err = ts.tokens.ByToken("used-past-grace")
	assert.ErrorIs(t, err, repository.ErrTokenNotFound)
	_, err = ts.tokens.ByToken("live")
	assert.NoError(t, err)

	_, err = ts.sessions.ByToken("ancient")
	assert.ErrorIs(t, err, repository.ErrSessionNotFound)
	_, err = ts.sessions.ByToken("current")
	assert.NoError(t, err)

	// Redundant call is a no-op
	err = ts.auth.Cleanup()
	require.NoError(t, err)
}

func TestAdminLogin(t *testing.T) {
	ts := newTestServices(t)

	_, err := ts.auth.AdminLogin("wrong")
	assert.ErrorIs(t, err, ErrInvalidAdminCredentials)

	token, err := ts.auth.AdminLogin("test-admin-password")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	assert.NoError(t, ts.auth.VerifyAdminJWT(token))
	assert.Error(t, ts.auth.VerifyAdminJWT("not-a-jwt"))
}
