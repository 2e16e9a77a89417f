package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envOf(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv(envOf(map[string]string{
		"TELEGRAM_TOKEN": "token",
		"DB_DSN":         "postgres://localhost/slotswap",
	}))
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, time.UTC, cfg.Timezone)
	assert.Equal(t, uint64(3), cfg.TxMaxRetries)
	assert.Equal(t, 20*time.Millisecond, cfg.TxRetryBase)
	assert.Equal(t, 5*time.Second, cfg.NotifyTimeout)
	assert.Equal(t, 72*time.Hour, cfg.StalePendingAfter)
	assert.Equal(t, time.Hour, cfg.StaleCheckInterval)
	assert.Equal(t, 100, cfg.RateLimitMax)
	assert.Equal(t, time.Minute, cfg.RateLimitWindow)
}

func TestFromEnv_Overrides(t *testing.T) {
	cfg, err := FromEnv(envOf(map[string]string{
		"TELEGRAM_TOKEN":      "token",
		"DB_DSN":              "dsn",
		"ENV":                 "production",
		"TX_MAX_RETRIES":      "5",
		"STALE_PENDING_AFTER": "24h",
		"RATE_LIMIT_MAX":      "20",
		"RATE_LIMIT_WINDOW":   "30s",
	}))
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, uint64(5), cfg.TxMaxRetries)
	assert.Equal(t, 24*time.Hour, cfg.StalePendingAfter)
	assert.Equal(t, 20, cfg.RateLimitMax)
	assert.Equal(t, 30*time.Second, cfg.RateLimitWindow)
}

func TestFromEnv_ZeroDisables(t *testing.T) {
	cfg, err := FromEnv(envOf(map[string]string{
		"TELEGRAM_TOKEN": "token",
		"DB_DSN":         "dsn",
		"TX_MAX_RETRIES": "0",
		"RATE_LIMIT_MAX": "0",
	}))
	require.NoError(t, err)

	assert.Equal(t, uint64(0), cfg.TxMaxRetries)
	assert.Equal(t, 0, cfg.RateLimitMax)
}

func TestFromEnv_Errors(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		key  string
	}{
		{"missing token", map[string]string{"DB_DSN": "dsn"}, "TELEGRAM_TOKEN"},
		{"missing dsn", map[string]string{"TELEGRAM_TOKEN": "t"}, "DB_DSN"},
		{"bad retries", map[string]string{"TELEGRAM_TOKEN": "t", "DB_DSN": "dsn", "TX_MAX_RETRIES": "-1"}, "TX_MAX_RETRIES"},
		{"bad rate limit", map[string]string{"TELEGRAM_TOKEN": "t", "DB_DSN": "dsn", "RATE_LIMIT_MAX": "many"}, "RATE_LIMIT_MAX"},
		{"bad rate window", map[string]string{"TELEGRAM_TOKEN": "t", "DB_DSN": "dsn", "RATE_LIMIT_WINDOW": "0s"}, "RATE_LIMIT_WINDOW"},
		{"bad duration", map[string]string{"TELEGRAM_TOKEN": "t", "DB_DSN": "dsn", "NOTIFY_TIMEOUT": "soon"}, "NOTIFY_TIMEOUT"},
		{"bad timezone", map[string]string{"TELEGRAM_TOKEN": "t", "DB_DSN": "dsn", "TIMEZONE": "Mars/Olympus"}, "TIMEZONE"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := FromEnv(envOf(tc.env))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.key)
		})
	}
}
