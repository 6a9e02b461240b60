package app

import (
	"fmt"

	"github.com/contentflow/partnerhub/internal/config"
	"github.com/contentflow/partnerhub/internal/db"
	"github.com/contentflow/partnerhub/internal/repository"
	"github.com/contentflow/partnerhub/internal/scheduler"
	"github.com/contentflow/partnerhub/internal/service"
	"github.com/jmoiron/sqlx"
)

type App struct {
	Cfg          *config.Config
	DB           *sqlx.DB
	AuthService  *service.AuthService
	RiskService  *service.RiskService
	EmailService *service.EmailService
	Scheduler    *scheduler.Scheduler
}

func New(cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %v", err)
	}

	// Run database migrations
	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %v", err)
	}

	// Repositories
	tokenRepository := repository.NewTokenRepository(database)
	sessionRepository := repository.NewSessionRepository(database)
	eventRepository := repository.NewEventRepository(database)
	flagRepository := repository.NewFlagRepository(database)

	// Services
	emailService := service.NewEmailService(
		cfg.ResendAPIKey,
		cfg.EmailFrom,
		cfg.AppName,
		cfg.IsDevelopment(),
	)
	authService := service.NewAuthService(
		tokenRepository,
		sessionRepository,
		emailService,
		cfg.AppURL,
		cfg.JWTSecret,
		cfg.AdminPassword,
		cfg.IsProduction(),
		cfg.AdminJWTExpiry,
		cfg.TokenMagicLinkExpiry,
		cfg.TokenReuseGrace,
		cfg.SessionLifetime,
	)
	riskService := service.NewRiskService(
		eventRepository,
		flagRepository,
		cfg.RiskMaxClicksPerWindow,
		cfg.RiskClickWindow,
	)

	sched := scheduler.New(authService, riskService, cfg.RiskSweepInterval, cfg.CleanupInterval)

	return &App{
		Cfg:          cfg,
		DB:           database,
		AuthService:  authService,
		RiskService:  riskService,
		EmailService: emailService,
		Scheduler:    sched,
	}, nil
}

func (a *App) Close() error {
	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
