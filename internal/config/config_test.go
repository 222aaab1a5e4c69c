package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vn.io.arda/console-sync/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.Cache.FreshWindow)
	assert.Equal(t, 256, cfg.Cache.MaxEntries)
	assert.Equal(t, 30*time.Second, cfg.Poller.Interval)
	assert.Equal(t, "continue", cfg.Batch.FailurePolicy)
	assert.False(t, cfg.Database.Enabled)
	assert.Contains(t, cfg.Kafka.Topics, "review-events")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ARDA_CONSOLE_POLLER_INTERVAL", "45s")
	t.Setenv("ARDA_CONSOLE_BATCH_FAILURE_POLICY", "stop")
	t.Setenv("API_BASE_URL", "https://console.example.com/api")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("ARDA_CONSOLE_SERVER_SUBJECT", "moderator-1")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 45*time.Second, cfg.Poller.Interval)
	assert.Equal(t, "stop", cfg.Batch.FailurePolicy)
	assert.Equal(t, "https://console.example.com/api", cfg.Remote.BaseURL)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.Equal(t, "moderator-1", cfg.Server.Subject)
	assert.Equal(t, "s3cret", cfg.Server.JWTSecret)
}

func TestDSN(t *testing.T) {
	d := config.DatabaseConfig{Host: "db", Port: 5432, Name: "arda_console", User: "u", Password: "p"}
	assert.Equal(t, "host=db port=5432 dbname=arda_console user=u password=p sslmode=disable", d.DSN())
}
