package web

import (
	"context"
	"time"

	"viz-agent/config"
	"viz-agent/web/middleware"
	"viz-agent/web/session"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StartSessionCleanup periodically evicts sessions idle longer than the
// retention age and drops their rate-limit buckets. Blocks until the context
// is cancelled; run it in its own goroutine.
func StartSessionCleanup(ctx context.Context, cfg *config.Config, store *session.Store, limiter *middleware.SessionRateLimiter, logger *zap.Logger) {
	if !cfg.CleanupEnabled {
		logger.Info("Session cleanup disabled")
		return
	}

	logger.Info("Session cleanup started",
		zap.Duration("interval", cfg.CleanupInterval),
		zap.Duration("retention_age", cfg.SessionRetentionAge))

	ticker := time.NewTicker(cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Session cleanup stopped")
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-cfg.SessionRetentionAge)
			deleted := store.DeleteStale(cutoff)
			limiter.DropSessions(func(id uuid.UUID) bool {
				return store.Has(id)
			})

			if deleted > 0 {
				logger.Info("Evicted stale sessions",
					zap.Int("deleted", deleted),
					zap.Int("remaining", store.Len()))
			}
		}
	}
}
