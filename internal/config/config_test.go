package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "venue-sync.outbound", cfg.Sync.OutboundStream)
	assert.False(t, cfg.Sync.Enabled)
	assert.Equal(t, 4, cfg.Reconcile.Workers)
	assert.Equal(t, "@every 15m", cfg.Reconcile.SweepSchedule)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SYNC_ENABLED", "true")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("RECONCILE_WORKERS", "8")
	t.Setenv("DATABASE_DSN", "postgres://u:p@db:5432/venues")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.True(t, cfg.Sync.Enabled)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, 8, cfg.Reconcile.Workers)
	assert.Equal(t, "postgres://u:p@db:5432/venues", cfg.Database.DSN)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, err := LoadConfig(t.TempDir())
		require.NoError(t, err)
		return cfg
	}

	cfg := base()
	cfg.AppEnv = "prod"
	assert.ErrorContains(t, cfg.Validate(), "AUTH_JWT_SECRET")

	cfg = base()
	cfg.Sync.Enabled = true
	cfg.Redis.Addr = ""
	assert.ErrorContains(t, cfg.Validate(), "REDIS_ADDR")

	cfg = base()
	cfg.Timezone = "Mars/Olympus"
	assert.ErrorContains(t, cfg.Validate(), "TIMEZONE")
}
