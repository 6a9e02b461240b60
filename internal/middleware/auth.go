package middleware

import (
	"net/http"
	"strings"

	"github.com/contentflow/partnerhub/internal/ctxkeys"
	"github.com/contentflow/partnerhub/internal/service"
)

// SessionMiddleware resolves the partner session cookie and adds the session
// to the request context when valid. Expired or unknown sessions clear the
// cookie and continue unauthenticated.
func SessionMiddleware(authService *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(service.SessionCookieName)
			if err != nil {
				// No cookie, continue without auth
				next.ServeHTTP(w, r)
				return
			}

			session, err := authService.VerifySession(cookie.Value)
			if err != nil || session == nil {
				authService.ClearSessionCookie(w)
				next.ServeHTTP(w, r)
				return
			}

			ctx := ctxkeys.WithSession(r.Context(), session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequirePartner ensures the request carries a valid partner session.
func RequirePartner(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := ctxkeys.Session(r.Context())
		if session == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"authentication required"}`))
			return
		}
		next.ServeHTTP(w, r)
	}
}

// RequireAdmin ensures the request carries a valid admin bearer token.
func RequireAdmin(authService *service.AuthService) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"missing bearer token"}`))
				return
			}

			err := authService.VerifyAdminJWT(token)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"invalid bearer token"}`))
				return
			}

			next.ServeHTTP(w, r.WithContext(ctxkeys.WithAdmin(r.Context())))
		}
	}
}
