package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	TelegramToken string
	DBDSN         string
	Environment   string
	HTTPAddr      string
	Timezone      *time.Location

	TxMaxRetries uint64
	TxRetryBase  time.Duration

	NotifyTimeout      time.Duration
	StalePendingAfter  time.Duration
	StaleCheckInterval time.Duration

	// Не больше RateLimitMax запросов пользователя за RateLimitWindow; 0 - без ограничения
	RateLimitMax    int
	RateLimitWindow time.Duration
}

// Load читает конфигурацию из .env (если есть) и переменных окружения
func Load() (*Config, error) {
	// .env необязателен: в контейнере всё приходит через окружение
	_ = godotenv.Load(".env")

	return FromEnv(os.Getenv)
}

// FromEnv собирает конфигурацию через getenv, применяя значения по умолчанию
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		TelegramToken: getenv("TELEGRAM_TOKEN"),
		DBDSN:         getenv("DB_DSN"),
		Environment:   stringOr(getenv("ENV"), "development"),
		HTTPAddr:      stringOr(getenv("HTTP_ADDR"), ":8080"),
	}

	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is required but not set")
	}
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required but not set")
	}

	var err error
	if cfg.Timezone, err = time.LoadLocation(stringOr(getenv("TIMEZONE"), "UTC")); err != nil {
		return nil, fmt.Errorf("TIMEZONE: %w", err)
	}
	if cfg.TxMaxRetries, err = parseUint(getenv, "TX_MAX_RETRIES", 3); err != nil {
		return nil, err
	}
	if cfg.TxRetryBase, err = parseDuration(getenv, "TX_RETRY_BASE", 20*time.Millisecond); err != nil {
		return nil, err
	}
	if cfg.NotifyTimeout, err = parseDuration(getenv, "NOTIFY_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.StalePendingAfter, err = parseDuration(getenv, "STALE_PENDING_AFTER", 72*time.Hour); err != nil {
		return nil, err
	}
	if cfg.StaleCheckInterval, err = parseDuration(getenv, "STALE_CHECK_INTERVAL", time.Hour); err != nil {
		return nil, err
	}
	rateMax, err := parseUint(getenv, "RATE_LIMIT_MAX", 100)
	if err != nil {
		return nil, err
	}
	cfg.RateLimitMax = int(rateMax)
	if cfg.RateLimitWindow, err = parseDuration(getenv, "RATE_LIMIT_WINDOW", time.Minute); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func stringOr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func parseUint(getenv func(string) string, key string, def uint64) (uint64, error) {
	raw := getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid number %q", key, raw)
	}
	return v, nil
}

func parseDuration(getenv func(string) string, key string, def time.Duration) (time.Duration, error) {
	raw := getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("%s: invalid duration %q", key, raw)
	}
	return v, nil
}
