package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"league-tracker/internal/constants"
)

type Config struct {
	// Default upstream credential. A request may override it with the
	// X-Riot-Token header; with no default and no header the lookup fails
	// upstream with a 403.
	RiotAPIKey string

	DBPath     string
	ServerPort string
	LogLevel   string

	// Spacing between participants in the enrichment pipeline.
	EnrichInterval time.Duration

	// How many mastery rows to request per participant.
	MasteryCount int
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		RiotAPIKey:     getEnv("RIOT_API_KEY", ""),
		DBPath:         getEnv("DB_PATH", "league.db"),
		ServerPort:     getEnv("SERVER_PORT", "8080"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		EnrichInterval: constants.DefaultEnrichInterval,
		MasteryCount:   constants.TopMasteryCount,
	}

	if ms := getEnv("ENRICH_INTERVAL_MS", ""); ms != "" {
		v, err := strconv.Atoi(ms)
		if err != nil || v < 0 {
			return nil, fmt.Errorf("invalid ENRICH_INTERVAL_MS %q", ms)
		}
		cfg.EnrichInterval = time.Duration(v) * time.Millisecond
	}

	if n := getEnv("MASTERY_COUNT", ""); n != "" {
		v, err := strconv.Atoi(n)
		if err != nil || v < 1 {
			return nil, fmt.Errorf("invalid MASTERY_COUNT %q", n)
		}
		cfg.MasteryCount = v
	}

	logger.Info().
		Str("db_path", cfg.DBPath).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Dur("enrich_interval", cfg.EnrichInterval).
		Int("mastery_count", cfg.MasteryCount).
		Bool("default_key_set", cfg.RiotAPIKey != "").
		Msg("configuration loaded")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

var Module = fx.Provide(Load)
