package fx

import (
	"dota-tracker/internal/api"
	"dota-tracker/internal/auth"
	"dota-tracker/internal/config"
	"dota-tracker/internal/database"
	"dota-tracker/internal/logger"
	"dota-tracker/internal/repository"
	"dota-tracker/internal/server"
	"dota-tracker/internal/service"
	"dota-tracker/internal/ws"

	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(logger.New),
	fx.Provide(config.Load),
	fx.Provide(database.New),
	// repos
	fx.Provide(repository.NewPlayerRepository),
	fx.Provide(repository.NewUserRepository),
	// api client
	fx.Provide(api.NewClient),
	fx.Provide(func(c *api.Client) service.StatsClient { return c }),
	// fanout
	fx.Provide(ws.NewHub),
	fx.Provide(func(h *ws.Hub) service.Notifier { return h }),
	// auth
	fx.Provide(auth.NewJWTManager),
	fx.Provide(auth.NewService),
	// svc
	fx.Provide(service.NewSyncService),
	// http surface
	fx.Provide(server.NewHandler),
)
