package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	AppEnv   string
	LogLevel slog.Level
	HTTPAddr string

	// DBDriver is "postgres" or "sqlite3"
	DBDriver       string
	DatabaseURL    string
	SQLitePath     string
	DBMaxOpenConns int
	MigrationsPath string

	// RedisAddr and NATSURL are optional; empty disables the integration
	RedisAddr string
	NATSURL   string
	MQTTURL   string

	WeatherBaseURL string
	WeatherTimeout time.Duration
	ForecastTTL    time.Duration
	RulesCacheTTL  time.Duration
	MarketTick     time.Duration

	AdminJWTSecret string
}

func (c Config) IsDev() bool { return c.AppEnv == "dev" }

func LoadFromEnv() (Config, error) {
	appEnv := envOr("APP_ENV", "dev")
	switch appEnv {
	case "dev", "prod":
	default:
		return Config{}, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", appEnv)
	}

	level, err := ParseLogLevel(envOr("LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, err
	}

	driver := envOr("DB_DRIVER", "sqlite3")
	switch driver {
	case "postgres", "sqlite3":
	default:
		return Config{}, fmt.Errorf("invalid DB_DRIVER %q (allowed: postgres, sqlite3)", driver)
	}

	databaseURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if driver == "postgres" && databaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required when DB_DRIVER=postgres")
	}

	maxOpenConns, err := envInt("DB_MAX_OPEN_CONNS", 1)
	if err != nil {
		return Config{}, err
	}

	weatherTimeout, err := envDuration("WEATHER_TIMEOUT", 5*time.Second)
	if err != nil {
		return Config{}, err
	}
	forecastTTL, err := envDuration("FORECAST_TTL", 30*time.Minute)
	if err != nil {
		return Config{}, err
	}
	rulesCacheTTL, err := envDuration("RULES_CACHE_TTL", 0)
	if err != nil {
		return Config{}, err
	}
	marketTick, err := envDuration("MARKET_TICK", 10*time.Second)
	if err != nil {
		return Config{}, err
	}
	if marketTick == 0 {
		return Config{}, fmt.Errorf("MARKET_TICK must be positive")
	}

	secret := strings.TrimSpace(os.Getenv("ADMIN_JWT_SECRET"))
	if appEnv == "prod" && len(secret) < 32 {
		return Config{}, fmt.Errorf("ADMIN_JWT_SECRET must be at least 32 characters in prod")
	}
	if secret == "" {
		secret = "dev-only-admin-secret-change-me-please"
	}

	return Config{
		AppEnv:         appEnv,
		LogLevel:       level,
		HTTPAddr:       envOr("HTTP_ADDR", ":8080"),
		DBDriver:       driver,
		DatabaseURL:    databaseURL,
		SQLitePath:     envOr("SQLITE_PATH", "data/agrisense.db"),
		DBMaxOpenConns: maxOpenConns,
		MigrationsPath: envOr("MIGRATIONS_PATH", "migrations"),
		RedisAddr:      strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		NATSURL:        strings.TrimSpace(os.Getenv("NATS_URL")),
		MQTTURL:        strings.TrimSpace(os.Getenv("MQTT_URL")),
		WeatherBaseURL: envOr("WEATHER_BASE_URL", "https://api.open-meteo.com/v1/forecast"),
		WeatherTimeout: weatherTimeout,
		ForecastTTL:    forecastTTL,
		RulesCacheTTL:  rulesCacheTTL,
		MarketTick:     marketTick,
		AdminJWTSecret: secret,
	}, nil
}

// ParseLogLevel maps debug/info/warn/error to a slog level
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return n, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s %q: must not be negative", key, s)
	}
	return d, nil
}
