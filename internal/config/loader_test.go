package config

import (
	"path/filepath"
	"testing"
	"time"

	gfconfig "github.com/fulmenhq/gofulmen/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("LoadDefaults", func(t *testing.T) {
		t.Setenv("XDG_DATA_HOME", t.TempDir())

		cfg, err := Load(NewViper())
		require.NoError(t, err)
		require.NotNil(t, cfg)

		assert.Equal(t, "https://api.nal.usda.gov/fdc/v1", cfg.API.BaseURL)
		assert.Equal(t, 10*time.Second, cfg.API.Timeout)
		assert.Equal(t, 1000, cfg.API.RateLimit)
		assert.Equal(t, time.Hour, cfg.API.RateWindow)

		assert.Equal(t, "libsql", cfg.Store.Driver)
		expectedStorePath := filepath.Join(gfconfig.GetAppDataDir("nutrilens"), "nutrilens.db")
		assert.Equal(t, expectedStorePath, cfg.Store.Path)
		assert.Equal(t, "", cfg.Store.URL)

		assert.Equal(t, "info", cfg.Logging.Level)
		assert.False(t, cfg.Metrics.Enabled)
	})

	t.Run("RuntimeOverrides", func(t *testing.T) {
		v := NewViper()
		v.Set("api.rate_limit", 50)
		v.Set("api.timeout", "3s")
		v.Set("store.driver", "sqlite")

		cfg, err := Load(v)
		require.NoError(t, err)

		assert.Equal(t, 50, cfg.API.RateLimit)
		assert.Equal(t, 3*time.Second, cfg.API.Timeout)
		assert.Equal(t, "sqlite", cfg.Store.Driver)
		assert.Equal(t, time.Hour, cfg.API.RateWindow)
	})

	t.Run("EnvOverrides", func(t *testing.T) {
		t.Setenv("NUTRILENS_API_RATE_LIMIT", "900")
		t.Setenv("NUTRILENS_LOGGING_LEVEL", "warn")
		t.Setenv("NUTRILENS_METRICS_ENABLED", "true")
		t.Setenv("NUTRILENS_API_RATE_WINDOW", "30m")

		cfg, err := Load(NewViper())
		require.NoError(t, err)

		assert.Equal(t, 900, cfg.API.RateLimit)
		assert.Equal(t, "warn", cfg.Logging.Level)
		assert.True(t, cfg.Metrics.Enabled)
		assert.Equal(t, 30*time.Minute, cfg.API.RateWindow)
	})

	t.Run("ConfigPrecedence", func(t *testing.T) {
		t.Setenv("NUTRILENS_API_RATE_LIMIT", "400")

		v := NewViper()
		v.Set("api.rate_limit", 300)

		cfg, err := Load(v)
		require.NoError(t, err)
		assert.Equal(t, 300, cfg.API.RateLimit)
	})

	t.Run("InvalidRateLimit", func(t *testing.T) {
		v := NewViper()
		v.Set("api.rate_limit", 0)

		_, err := Load(v)
		require.Error(t, err)
	})
}

func TestGetConfig(t *testing.T) {
	cfg, err := Load(NewViper())
	require.NoError(t, err)

	retrieved := GetConfig()
	require.NotNil(t, retrieved)
	assert.Equal(t, cfg.API.BaseURL, retrieved.API.BaseURL)
}
