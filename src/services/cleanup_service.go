package services

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/khabaroff/lms-admin/src/logging"
)

// CleanupService periodically deletes expired and revoked tokens. It is off by
// default; cron can call `lms-admin tokens cleanup` instead.
type CleanupService struct {
	tokens   *TokenService
	enabled  bool
	interval time.Duration
	logger   zerolog.Logger

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewCleanupService creates a new cleanup service
func NewCleanupService(tokens *TokenService, enabled bool, interval time.Duration) *CleanupService {
	if interval <= 0 {
		interval = time.Hour
	}
	return &CleanupService{
		tokens:   tokens,
		enabled:  enabled,
		interval: interval,
		logger:   logging.NewLogger("cleanup_service"),
		done:     make(chan struct{}),
	}
}

// Start starts the cleanup loop
func (cs *CleanupService) Start(ctx context.Context) {
	if !cs.enabled {
		cs.logger.Info().Msg("Token cleanup service is disabled")
		return
	}

	cs.wg.Add(1)
	go func() {
		defer cs.wg.Done()

		ticker := time.NewTicker(cs.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				cs.logger.Info().Msg("Token cleanup service stopped")
				return
			case <-cs.done:
				cs.logger.Info().Msg("Token cleanup service stopped")
				return
			case <-ticker.C:
				if _, err := cs.RunOnce(ctx); err != nil {
					cs.logger.Error().Err(err).Msg("Token cleanup failed")
				}
			}
		}
	}()

	cs.logger.Info().Dur("interval", cs.interval).Msg("Token cleanup service started")
}

// Stop stops the cleanup loop and waits for an in-flight sweep. Safe to call more than once.
func (cs *CleanupService) Stop() {
	cs.stopOnce.Do(func() { close(cs.done) })
	cs.wg.Wait()
}

// RunOnce performs one sweep and returns the number of deleted rows
func (cs *CleanupService) RunOnce(ctx context.Context) (int64, error) {
	return cs.tokens.CleanupExpiredTokens(ctx)
}
