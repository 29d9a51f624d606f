// Package scheduler triggers a roster sync on a fixed wall-clock interval,
// sized so a day of runs stays inside the OpenDota quota.
package scheduler

import (
	"context"
	"time"

	"dota-tracker/internal/config"
	"dota-tracker/internal/service"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

// Register wires the recurring sync trigger into the fx lifecycle. Overlap is
// harmless: Start is a no-op while a run is active.
func Register(lc fx.Lifecycle, syncSvc *service.SyncService, cfg *config.Config, logger zerolog.Logger) {
	ctx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			logger.Info().Dur("interval", cfg.SyncInterval).Msg("sync scheduler started")
			go run(ctx, syncSvc, cfg.SyncInterval, logger)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}

func run(ctx context.Context, syncSvc *service.SyncService, interval time.Duration, logger zerolog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("sync scheduler stopped")
			return
		case <-ticker.C:
			if _, err := syncSvc.Start(ctx); err != nil {
				logger.Error().Err(err).Msg("scheduled sync failed to start")
			}
		}
	}
}
