package service

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/contentflow/partnerhub/internal/metrics"
	"github.com/contentflow/partnerhub/internal/model"
	"github.com/contentflow/partnerhub/internal/repository"
	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidAdminCredentials = errors.New("invalid admin credentials")

// SessionCookieName is the cookie carrying the partner session token.
const SessionCookieName = "partner_session"

// MagicLink is the result of issuing a token: the raw token, the absolute
// verification URL and the expiry timestamp.
type MagicLink struct {
	Token     string
	Link      string
	ExpiresAt time.Time
}

type AuthService struct {
	tokenRepository   repository.TokenRepository
	sessionRepository repository.SessionRepository
	emailService      *EmailService
	appURL            string
	jwtSecret         string
	adminPassword     string
	isProduction      bool
	adminJWTExpiry    time.Duration
	tokenExpiry       time.Duration
	reuseGrace        time.Duration
	sessionLifetime   time.Duration
}

func NewAuthService(
	tokenRepository repository.TokenRepository,
	sessionRepository repository.SessionRepository,
	emailService *EmailService,
	appURL string,
	jwtSecret string,
	adminPassword string,
	isProduction bool,
	adminJWTExpiry time.Duration,
	tokenExpiry time.Duration,
	reuseGrace time.Duration,
	sessionLifetime time.Duration,
) *AuthService {
	return &AuthService{
		tokenRepository:   tokenRepository,
		sessionRepository: sessionRepository,
		emailService:      emailService,
		appURL:            appURL,
		jwtSecret:         jwtSecret,
		adminPassword:     adminPassword,
		isProduction:      isProduction,
		adminJWTExpiry:    adminJWTExpiry,
		tokenExpiry:       tokenExpiry,
		reuseGrace:        reuseGrace,
		sessionLifetime:   sessionLifetime,
	}
}

func (s *AuthService) GenerateToken() (string, error) {
	bytes := make([]byte, 32)
	_, err := rand.Read(bytes)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// PartnerID derives the stable partner identity from an email address.
// The same address always yields the same ID, so re-authentication maps to
// the same partner account.
func (s *AuthService) PartnerID(email string) string {
	sum := sha256.Sum256([]byte(normalizeEmail(email)))
	return hex.EncodeToString(sum[:])[:16]
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

// IssueMagicLink creates a short-lived single-use token for the address and
// dispatches the sign-in email. Email failure is not an authentication
// failure: the link is logged and still returned, so a development or admin
// caller can surface it directly.
func (s *AuthService) IssueMagicLink(email, baseURL string) (*MagicLink, error) {
	email = normalizeEmail(email)

	if baseURL == "" {
		baseURL = s.appURL
	}

	raw, err := s.GenerateToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	now := time.Now()
	token := &model.MagicToken{
		Token:     raw,
		Email:     email,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.tokenExpiry),
	}
	err = s.tokenRepository.Create(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create token: %w", err)
	}

	link := fmt.Sprintf("%s/api/auth/verify?token=%s", strings.TrimRight(baseURL, "/"), raw)

	err = s.emailService.SendMagicLink(email, link)
	if err != nil {
		slog.Warn("magic link email dispatch failed, link still valid", "error", err, "email", email)
	}

	metrics.MagicLinksIssued.Inc()
	slog.Info("magic link issued", "email", email, "expires_at", token.ExpiresAt)

	return &MagicLink{
		Token:     raw,
		Link:      link,
		ExpiresAt: token.ExpiresAt,
	}, nil
}

// VerifyMagicLink validates a token and returns the partner session,
// creating one if the partner has none. Verification is idempotent for the
// reuse grace window: a second click on the same link succeeds and returns
// the same session. Past the grace window the token row is deleted and the
// token behaves as never issued.
func (s *AuthService) VerifyMagicLink(raw string) (*model.PartnerSession, error) {
	token, err := s.tokenRepository.ByToken(raw)
	if err != nil {
		return nil, err
	}

	now := time.Now()

	if token.IsExpired() {
		// Purge immediately so a retry cannot distinguish expired from
		// never-issued.
		if delErr := s.tokenRepository.Delete(raw); delErr != nil {
			slog.Warn("failed to purge expired token", "error", delErr)
		}
		return nil, repository.ErrTokenExpired
	}

	if token.IsUsed() && now.Sub(*token.UsedAt) > s.reuseGrace {
		if delErr := s.tokenRepository.Delete(raw); delErr != nil {
			slog.Warn("failed to purge used token", "error", delErr)
		}
		return nil, repository.ErrTokenNotFound
	}

	session, err := s.sessionForPartner(s.PartnerID(token.Email), token.Email)
	if err != nil {
		return nil, err
	}

	if !token.IsUsed() {
		err = s.tokenRepository.MarkUsed(raw, now)
		if err != nil {
			slog.Warn("failed to mark token used", "error", err)
		}
	}

	slog.Info("partner authenticated via magic link", "partner_id", session.PartnerID, "email", session.Email)
	return session, nil
}

// sessionForPartner reuses the partner's active session when one exists so
// repeated verifies do not proliferate sessions.
func (s *AuthService) sessionForPartner(partnerID, email string) (*model.PartnerSession, error) {
	existing, err := s.sessionRepository.ByPartnerID(partnerID)
	if err == nil {
		if !existing.IsExpired(s.sessionLifetime) {
			return existing, nil
		}
		_, err = s.sessionRepository.Delete(existing.SessionToken)
		if err != nil {
			return nil, fmt.Errorf("failed to delete expired session: %w", err)
		}
	} else if !errors.Is(err, repository.ErrSessionNotFound) {
		return nil, fmt.Errorf("failed to look up session: %w", err)
	}

	sessionToken, err := s.GenerateToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}

	session := &model.PartnerSession{
		SessionToken: sessionToken,
		PartnerID:    partnerID,
		Email:        email,
		CreatedAt:    time.Now(),
	}
	err = s.sessionRepository.Create(session)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	metrics.SessionsCreated.Inc()
	return session, nil
}

// VerifySession returns the session for a token, or nil if the token is
// unknown or the session is past its absolute lifetime. Expired sessions are
// deleted on read; they are never refreshed, a partner re-authenticates
// after 30 days regardless of activity.
func (s *AuthService) VerifySession(sessionToken string) (*model.PartnerSession, error) {
	session, err := s.sessionRepository.ByToken(sessionToken)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, nil
		}
		return nil, err
	}

	if session.IsExpired(s.sessionLifetime) {
		_, err = s.sessionRepository.Delete(sessionToken)
		if err != nil {
			slog.Warn("failed to delete expired session", "error", err)
		}
		return nil, nil
	}

	return session, nil
}

// InvalidateSession removes a session unconditionally. Used for logout.
func (s *AuthService) InvalidateSession(sessionToken string) (bool, error) {
	return s.sessionRepository.Delete(sessionToken)
}

// Cleanup purges expired magic tokens (and used tokens past grace) and
// sessions past their absolute lifetime. Runs on the maintenance timer; safe
// to call concurrently or redundantly.
func (s *AuthService) Cleanup() error {
	tokens, err := s.tokenRepository.DeleteExpired(time.Now(), s.reuseGrace)
	if err != nil {
		return fmt.Errorf("failed to clean up tokens: %w", err)
	}

	sessions, err := s.sessionRepository.DeleteOlderThan(time.Now().Add(-s.sessionLifetime))
	if err != nil {
		return fmt.Errorf("failed to clean up sessions: %w", err)
	}

	if tokens > 0 || sessions > 0 {
		slog.Info("auth cleanup", "tokens_purged", tokens, "sessions_purged", sessions)
	}
	return nil
}

// AdminLogin exchanges the configured admin password for a short-lived JWT
// used as a bearer token on the admin API.
func (s *AuthService) AdminLogin(password string) (string, error) {
	if s.adminPassword == "" {
		return "", fmt.Errorf("admin API disabled: %w", ErrInvalidAdminCredentials)
	}
	if subtle.ConstantTimeCompare([]byte(password), []byte(s.adminPassword)) != 1 {
		return "", ErrInvalidAdminCredentials
	}

	claims := jwt.MapClaims{
		"role": "admin",
		"exp":  time.Now().Add(s.adminJWTExpiry).Unix(),
		"iat":  time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

func (s *AuthService) VerifyAdminJWT(tokenString string) error {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return fmt.Errorf("invalid token")
	}
	if role, _ := claims["role"].(string); role != "admin" {
		return fmt.Errorf("invalid token role")
	}

	return nil
}

func (s *AuthService) SetSessionCookie(w http.ResponseWriter, sessionToken string, expiry time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    sessionToken,
		Expires:  expiry,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *AuthService) ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Expires:  time.Unix(0, 0),
		Path:     "/",
		HttpOnly: true,
		Secure:   s.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
}

// SessionLifetime is exposed so handlers can set matching cookie expiry.
func (s *AuthService) SessionLifetime() time.Duration {
	return s.sessionLifetime
}
