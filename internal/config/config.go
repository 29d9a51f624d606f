package config

import (
	"fmt"
	"os"
	"time"

	"dota-tracker/internal/constants"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

type Config struct {
	DBPath      string
	ServerPort  string
	LogLevel    string
	FrontendURL string

	OpenDotaURL string

	JWTSecret     string
	TokenTTL      time.Duration
	AdminUser     string
	AdminPassword string

	SyncInterval time.Duration
	PlayerDelay  time.Duration
	RegionDelay  time.Duration
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		DBPath:        getEnv("DB_PATH", "dota_tracker.db"),
		ServerPort:    getEnv("SERVER_PORT", "5500"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		FrontendURL:   getEnv("FRONTEND_URL", "http://localhost:3000"),
		OpenDotaURL:   getEnv("OPENDOTA_URL", "https://api.opendota.com/api"),
		JWTSecret:     getEnv("JWT_SECRET", ""),
		TokenTTL:      getDuration("TOKEN_TTL", constants.DefaultTokenTTL, logger),
		AdminUser:     getEnv("ADMIN_USER", "admin"),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		SyncInterval:  getDuration("SYNC_INTERVAL", constants.DefaultSyncInterval, logger),
		PlayerDelay:   getDuration("SYNC_PLAYER_DELAY", constants.PlayerSyncDelay, logger),
		RegionDelay:   getDuration("SYNC_REGION_DELAY", constants.RegionLookupDelay, logger),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	logger.Info().
		Str("db_path", cfg.DBPath).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Dur("sync_interval", cfg.SyncInterval).
		Msg("configuration loaded")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration, logger zerolog.Logger) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		logger.Warn().Str("key", key).Str("value", v).Msg("invalid duration, using default")
		return fallback
	}
	return d
}

var Module = fx.Provide(Load)
