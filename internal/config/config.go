package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

type Config struct {
	APIKey              string
	DBPath              string
	ServerPort          string
	LogLevel            string
	DemoMode            bool
	LeaderboardInterval time.Duration
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		APIKey:              getEnv("BATTLELOG_API_KEY", ""),
		DBPath:              getEnv("DB_PATH", "battlelog.db"),
		ServerPort:          getEnv("SERVER_PORT", "8080"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		DemoMode:            getEnvBool("ENABLE_DEMO_ENDPOINTS", false),
		LeaderboardInterval: getEnvDuration("LEADERBOARD_INTERVAL", 5*time.Minute),
	}

	if cfg.APIKey == "" {
		// Not fatal: the ingest API rejects every request until a key
		// is configured, but read-only endpoints still work.
		logger.Warn().Msg("BATTLELOG_API_KEY not set, all ingest requests will be rejected")
	}

	logger.Info().
		Str("db_path", cfg.DBPath).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Bool("demo_mode", cfg.DemoMode).
		Dur("leaderboard_interval", cfg.LeaderboardInterval).
		Msg("configuration loaded")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

var Module = fx.Provide(Load)
