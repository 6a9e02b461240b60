package scheduler

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/contentflow/partnerhub/internal/db"
	"github.com/contentflow/partnerhub/internal/model"
	"github.com/contentflow/partnerhub/internal/repository"
	"github.com/contentflow/partnerhub/internal/service"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	db       *sqlx.DB
	tokens   repository.TokenRepository
	sessions repository.SessionRepository
	events   repository.EventRepository
	auth     *service.AuthService
	risk     *service.RiskService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	database, err := db.Init("sqlite", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = database.Close()
	})
	require.NoError(t, db.RunMigrations(database.DB, "sqlite"))

	tokens := repository.NewTokenRepository(database)
	sessions := repository.NewSessionRepository(database)
	events := repository.NewEventRepository(database)
	flags := repository.NewFlagRepository(database)

	email := service.NewEmailService("", "test@test.local", "test", true)
	auth := service.NewAuthService(
		tokens, sessions, email,
		"http://localhost:8090",
		"test-secret",
		"",
		false,
		time.Hour,
		15*time.Minute,
		5*time.Minute,
		30*24*time.Hour,
	)
	risk := service.NewRiskService(events, flags, 40, 10*time.Minute)

	return &testEnv{
		db:       database,
		tokens:   tokens,
		sessions: sessions,
		events:   events,
		auth:     auth,
		risk:     risk,
	}
}

func TestSchedulerRunsJobs(t *testing.T) {
	env := newTestEnv(t)

	// Seed a click burst and stale auth rows for the loops to pick up
	partnerID := "p1"
	for i := 0; i < 45; i++ {
		require.NoError(t, env.events.Create(&model.MetricEvent{
			PartnerID: &partnerID,
			Kind:      model.EventKindClick,
		}))
	}
	require.NoError(t, env.tokens.Create(&model.MagicToken{
		Token:     "stale",
		Email:     "a@example.com",
		ExpiresAt: time.Now().Add(-time.Hour),
	}))

	s := New(env.auth, env.risk, 20*time.Millisecond, 20*time.Millisecond)
	s.Start()

	// Give both tickers a few rounds
	require.Eventually(t, func() bool {
		onHold, err := env.risk.IsOnHold(partnerID)
		return err == nil && onHold
	}, 2*time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		_, err := env.tokens.ByToken("stale")
		return errors.Is(err, repository.ErrTokenNotFound)
	}, 2*time.Second, 10*time.Millisecond)

	s.Stop()
}

func TestSchedulerStopIsPromptAndIdempotent(t *testing.T) {
	env := newTestEnv(t)

	s := New(env.auth, env.risk, time.Hour, time.Hour)
	s.Start()

	done := make(chan struct{})
	go func() {
		s.Stop()
		s.Stop() // second call must not panic or block
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return promptly")
	}

	assert.NotPanics(t, func() { s.Stop() })
}
