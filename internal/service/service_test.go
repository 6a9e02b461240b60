package service

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/contentflow/partnerhub/internal/db"
	"github.com/contentflow/partnerhub/internal/repository"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := db.Init("sqlite", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = database.Close()
	})

	err = db.RunMigrations(database.DB, "sqlite")
	require.NoError(t, err)

	return database
}

type testServices struct {
	db       *sqlx.DB
	tokens   repository.TokenRepository
	sessions repository.SessionRepository
	events   repository.EventRepository
	flags    repository.FlagRepository
	auth     *AuthService
	risk     *RiskService
}

func newTestServices(t *testing.T) *testServices {
	t.Helper()

	database := newTestDB(t)

	tokens := repository.NewTokenRepository(database)
	sessions := repository.NewSessionRepository(database)
	events := repository.NewEventRepository(database)
	flags := repository.NewFlagRepository(database)

	email := NewEmailService("", "partners@test.local", "ContentFlow", true)
	auth := NewAuthService(
		tokens,
		sessions,
		email,
		"http://localhost:8090",
		"test-secret",
		"test-admin-password",
		false,
		time.Hour,
		15*time.Minute,
		5*time.Minute,
		30*24*time.Hour,
	)
	risk := NewRiskService(events, flags, 40, 10*time.Minute)

	return &testServices{
		db:       database,
		tokens:   tokens,
		sessions: sessions,
		events:   events,
		flags:    flags,
		auth:     auth,
		risk:     risk,
	}
}

func (ts *testServices) recordClicks(t *testing.T, partnerID string, count int) {
	t.Helper()
	for i := 0; i < count; i++ {
		err := ts.risk.RecordEvent(partnerID, "click", map[string]any{"seq": i})
		require.NoError(t, err)
	}
}
