// Package scheduler runs the periodic background jobs: the risk sweep and
// auth storage cleanup. Jobs also have on-demand admin triggers, so every
// job must tolerate running concurrently with itself.
package scheduler

import (
	"log/slog"
	"sync"
	"time"

	"github.com/contentflow/partnerhub/internal/service"
)

// startupSweepDelay gives the server a moment to finish boot before the
// first sweep runs.
const startupSweepDelay = 30 * time.Second

type Scheduler struct {
	authService     *service.AuthService
	riskService     *service.RiskService
	sweepInterval   time.Duration
	cleanupInterval time.Duration

	stop chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

func New(authService *service.AuthService, riskService *service.RiskService, sweepInterval, cleanupInterval time.Duration) *Scheduler {
	return &Scheduler{
		authService:     authService,
		riskService:     riskService,
		sweepInterval:   sweepInterval,
		cleanupInterval: cleanupInterval,
		stop:            make(chan struct{}),
	}
}

func (s *Scheduler) Start() {
	s.wg.Add(2)
	go s.sweepLoop()
	go s.cleanupLoop()
	slog.Info("scheduler started", "sweep_interval", s.sweepInterval, "cleanup_interval", s.cleanupInterval)
}

// Stop halts the timers and waits for loops to exit. In-flight jobs run to
// completion; sweeps finish well within the interval so no cancellation is
// needed.
func (s *Scheduler) Stop() {
	s.once.Do(func() {
		close(s.stop)
	})
	s.wg.Wait()
	slog.Info("scheduler stopped")
}

func (s *Scheduler) sweepLoop() {
	defer s.wg.Done()

	initial := time.NewTimer(startupSweepDelay)
	defer initial.Stop()

	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-initial.C:
			s.runSweep()
		case <-ticker.C:
			s.runSweep()
		case <-s.stop:
			return
		}
	}
}

func (s *Scheduler) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runCleanup()
		case <-s.stop:
			return
		}
	}
}

func (s *Scheduler) runSweep() {
	flagged, err := s.riskService.Sweep(0, 0)
	if err != nil {
		slog.Error("risk sweep failed", "error", err)
		return
	}
	if flagged > 0 {
		slog.Info("risk sweep completed", "flagged", flagged)
	}
}

func (s *Scheduler) runCleanup() {
	err := s.authService.Cleanup()
	if err != nil {
		slog.Error("auth cleanup failed", "error", err)
	}
}
