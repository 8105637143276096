package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	syncapp "github.com/loyalty/backend/internal/application/sync"
	"github.com/loyalty/backend/internal/infrastructure/config"
)

// SyncScheduler drives the timer-based sync runs: incremental syncs on a
// fixed interval and one full sync per day at the configured hour.
type SyncScheduler struct {
	orchestrator *syncapp.Orchestrator
	cfg          *config.SyncConfig
	logger       *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
	active bool
}

// NewSyncScheduler creates a sync scheduler
func NewSyncScheduler(orchestrator *syncapp.Orchestrator, cfg *config.SyncConfig, logger *zap.Logger) *SyncScheduler {
	return &SyncScheduler{
		orchestrator: orchestrator,
		cfg:          cfg,
		logger:       logger.Named("scheduler"),
	}
}

// Start launches the timer loops. Calling Start on a running or disabled
// scheduler is a no-op.
func (s *SyncScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active || !s.cfg.Enabled {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.active = true

	s.wg.Add(2)
	go s.incrementalLoop(ctx)
	go s.fullLoop(ctx)

	s.logger.Info("Sync scheduler started",
		zap.Duration("incremental_interval", s.cfg.IncrementalInterval),
		zap.Int("full_sync_hour", s.cfg.FullSyncHour),
	)
}

// Stop cancels the timer loops and waits for any in-flight run to return
func (s *SyncScheduler) Stop() {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.active = false
	cancel := s.cancel
	s.mu.Unlock()

	cancel()
	s.wg.Wait()
	s.logger.Info("Sync scheduler stopped")
}

// incrementalLoop triggers incremental runs on the configured interval
func (s *SyncScheduler) incrementalLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.IncrementalInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runIncremental(ctx)
		}
	}
}

// fullLoop triggers one full run per day at the configured local hour
func (s *SyncScheduler) fullLoop(ctx context.Context) {
	defer s.wg.Done()

	for {
		timer := time.NewTimer(time.Until(s.nextFullRun(time.Now())))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.runFull(ctx)
		}
	}
}

// nextFullRun returns the next occurrence of the configured hour
func (s *SyncScheduler) nextFullRun(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), s.cfg.FullSyncHour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

func (s *SyncScheduler) runIncremental(ctx context.Context) {
	if err := s.orchestrator.RunIncrementalSync(ctx); err != nil {
		s.logRunError("incremental", err)
	}
}

func (s *SyncScheduler) runFull(ctx context.Context) {
	if err := s.orchestrator.RunFullSync(ctx); err != nil {
		s.logRunError("full", err)
	}
}

// logRunError downgrades the expected skip conditions to debug noise
func (s *SyncScheduler) logRunError(mode string, err error) {
	switch {
	case errors.Is(err, syncapp.ErrSyncAlreadyRunning):
		s.logger.Debug("Skipped scheduled sync, another run is active", zap.String("mode", mode))
	case errors.Is(err, syncapp.ErrAuthCooldown):
		s.logger.Warn("Skipped scheduled sync during auth cooldown", zap.String("mode", mode))
	case errors.Is(err, context.Canceled):
	default:
		s.logger.Error("Scheduled sync failed", zap.String("mode", mode), zap.Error(err))
	}
}
