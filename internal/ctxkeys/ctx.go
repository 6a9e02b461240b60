package ctxkeys

import (
	"context"

	"github.com/contentflow/partnerhub/internal/model"
)

// contextKey is a type for context keys to avoid collisions
type contextKey string

const (
	SessionKey contextKey = "partner_session"
	AdminKey   contextKey = "admin"
)

func Session(ctx context.Context) *model.PartnerSession {
	session, _ := ctx.Value(SessionKey).(*model.PartnerSession)
	return session
}

func WithSession(ctx context.Context, session *model.PartnerSession) context.Context {
	return context.WithValue(ctx, SessionKey, session)
}

func IsAdmin(ctx context.Context) bool {
	admin, _ := ctx.Value(AdminKey).(bool)
	return admin
}

func WithAdmin(ctx context.Context) context.Context {
	return context.WithValue(ctx, AdminKey, true)
}
