package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Config struct {
	Server struct {
		Port         string
		ReadTimeout  time.Duration
		WriteTimeout time.Duration
	}

	Providers struct {
		TomTomAPIKey      string
		OpenWeatherAPIKey string
	}

	Cache struct {
		LiveTTL      time.Duration
		SyntheticTTL time.Duration
		MaxSize      int
	}

	Upstream struct {
		Timeout        time.Duration
		MaxRetries     int
		RetryDelay     time.Duration
		Multiplier     float64
		BreakerTimeout time.Duration
	}

	Warmer struct {
		Schedule     string
		DefaultAreas []string
	}
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if err := godotenv.Load(); err != nil {
		zap.L().Info("No .env file found, using environment variables")
	}

	cfg := &Config{}

	// Server configuration
	cfg.Server.Port = getEnv("PORT", "8001")
	cfg.Server.ReadTimeout = parseDuration(getEnv("READ_TIMEOUT", "10s"))
	cfg.Server.WriteTimeout = parseDuration(getEnv("WRITE_TIMEOUT", "10s"))

	// Provider credentials. Missing keys are not fatal: the gateway runs
	// in fully synthetic mode for any unconfigured provider.
	cfg.Providers.TomTomAPIKey = getEnv("TOMTOM_API_KEY", "")
	cfg.Providers.OpenWeatherAPIKey = getEnv("OPENWEATHER_API_KEY", "")

	// Cache configuration. Synthetic readings get a shorter TTL so real
	// data is retried sooner.
	cfg.Cache.LiveTTL = parseDuration(getEnv("CACHE_LIVE_TTL", "5m"))
	cfg.Cache.SyntheticTTL = parseDuration(getEnv("CACHE_SYNTHETIC_TTL", "1m"))
	cfg.Cache.MaxSize = parseInt(getEnv("CACHE_MAX_SIZE", "256"))

	// Upstream call budget
	cfg.Upstream.Timeout = parseDuration(getEnv("UPSTREAM_TIMEOUT", "5s"))
	cfg.Upstream.MaxRetries = parseInt(getEnv("MAX_RETRIES", "2"))
	cfg.Upstream.RetryDelay = parseDuration(getEnv("RETRY_DELAY", "500ms"))
	cfg.Upstream.Multiplier = parseFloat(getEnv("RETRY_MULTIPLIER", "2"))
	cfg.Upstream.BreakerTimeout = parseDuration(getEnv("CIRCUIT_BREAKER_TIMEOUT", "30s"))

	// Cache warmer
	cfg.Warmer.Schedule = getEnv("WARM_SCHEDULE", "@every 5m")
	areas := getEnv("WARM_AREAS", "Silk Board,Marathahalli,Koramangala,Whitefield")
	cfg.Warmer.DefaultAreas = splitAndTrim(areas)

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitAndTrim(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func parseDuration(value string) time.Duration {
	duration, err := time.ParseDuration(value)
	if err != nil {
		zap.L().Warn("Failed to parse duration", zap.String("value", value), zap.Error(err))
		return 0
	}
	return duration
}

func parseInt(value string) int {
	intValue, err := strconv.Atoi(value)
	if err != nil {
		zap.L().Warn("Failed to parse int", zap.String("value", value), zap.Error(err))
		return 0
	}
	return intValue
}

func parseFloat(value string) float64 {
	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		zap.L().Warn("Failed to parse float", zap.String("value", value), zap.Error(err))
		return 0
	}
	return floatValue
}
