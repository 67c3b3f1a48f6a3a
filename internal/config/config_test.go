package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := parse([]byte("telegram:\n  token: \"123:abc\"\n"))
	require.NoError(t, err)

	require.Equal(t, "123:abc", cfg.Telegram.Token)
	require.Equal(t, 10*time.Second, cfg.Telegram.PollTimeout.Std())
	require.Equal(t, "info", cfg.Logging.Level)
	require.True(t, cfg.Logging.Console, "console logging on when no sink configured")
	require.Equal(t, "./data/pricewatch.db", cfg.Storage.Path)
	require.Equal(t, 5*time.Second, cfg.Storage.BusyTimeout.Std())
	require.Equal(t, "https://api.moneyplace.io", cfg.Prices.BaseURL)
	require.Equal(t, 4, cfg.Prices.Concurrency)
	require.Equal(t, []string{"wb", "ozon", "mm"}, cfg.Prices.Markets)
	require.Equal(t, 3, cfg.Notifier.RatePerSec)
	require.Equal(t, []string{"all", "changes"}, cfg.Notifier.Modes)
	require.Equal(t, "UTC", cfg.Scheduler.Timezone)
}

func TestParseFull(t *testing.T) {
	src := `
telegram:
  token: "123:abc"
  poll_timeout: 30s
logging:
  level: debug
  file:
    enabled: true
    path: /var/log/pw.log
storage:
  path: /var/lib/pw.db
  busy_timeout: 2s
prices:
  base_url: http://localhost:9090
  timeout: 3s
  concurrency: 8
  markets: [wb, ozon]
notifier:
  rate_per_sec: 1
  modes: [all, changes]
scheduler:
  timezone: Europe/Moscow
`
	cfg, err := parse([]byte(src))
	require.NoError(t, err)
	require.Equal(t, 30*time.Second, cfg.Telegram.PollTimeout.Std())
	require.Equal(t, "debug", cfg.Logging.Level)
	require.True(t, cfg.Logging.File.Enabled)
	require.False(t, cfg.Logging.Console)
	require.Equal(t, "/var/lib/pw.db", cfg.Storage.Path)
	require.Equal(t, "http://localhost:9090", cfg.Prices.BaseURL)
	require.Equal(t, 8, cfg.Prices.Concurrency)
	require.Equal(t, []string{"wb", "ozon"}, cfg.Prices.Markets)
	require.Equal(t, "Europe/Moscow", cfg.Scheduler.Timezone)
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := parse([]byte("telegram:\n  token: x\n  tocen: oops\n"))
	require.Error(t, err)
}

func TestParseRejectsBadDuration(t *testing.T) {
	_, err := parse([]byte("telegram:\n  token: x\n  poll_timeout: fast\n"))
	require.ErrorContains(t, err, "invalid duration")
}

func TestTokenFromEnv(t *testing.T) {
	t.Setenv("TG_TOKEN", "env:token")
	cfg, err := parse([]byte("logging:\n  level: warn\n"))
	require.NoError(t, err)
	require.Equal(t, "env:token", cfg.Telegram.Token)
}

func TestMissingTokenFails(t *testing.T) {
	t.Setenv("TG_TOKEN", "")
	_, err := parse([]byte("logging:\n  level: warn\n"))
	require.ErrorContains(t, err, "token")
}

func TestValidateModes(t *testing.T) {
	_, err := parse([]byte("telegram:\n  token: x\nnotifier:\n  modes: [only-one]\n"))
	require.ErrorContains(t, err, "modes")
}

func TestValidateTimezone(t *testing.T) {
	_, err := parse([]byte("telegram:\n  token: x\nscheduler:\n  timezone: Mars/Olympus\n"))
	require.ErrorContains(t, err, "timezone")
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("telegram:\n  token: \"123:abc\"\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "123:abc", cfg.Telegram.Token)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
