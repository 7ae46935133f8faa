package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/dmitrymomot/storefront/pkg/logger"
)

// RunCleanup calls store.DeleteExpired every interval until ctx is done.
// Stores without native expiry, such as PostgresStore, need it.
func RunCleanup(ctx context.Context, store Store, interval time.Duration, log *slog.Logger) {
	if interval <= 0 {
		return
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := store.DeleteExpired(ctx); err != nil && ctx.Err() == nil {
				log.WarnContext(ctx, "expired session cleanup failed",
					logger.Component("session"),
					logger.Error(err),
				)
			}
		}
	}
}
