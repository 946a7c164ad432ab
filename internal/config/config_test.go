package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.App.Env)
	assert.Equal(t, slog.LevelInfo, cfg.App.LogLevel)
	assert.Equal(t, "sqlite", cfg.DB.Driver)
	assert.Equal(t, "weather_data.db", cfg.DB.Path)
	assert.Equal(t, 180*time.Second, cfg.Poller.Interval)
	assert.Equal(t, 30*time.Second, cfg.Poller.FetchTimeout)
	assert.Equal(t, "weather_data.xlsx", cfg.Export.Path)
	assert.Equal(t, "repeat", cfg.Command.Mode)
	assert.True(t, cfg.Command.Enabled)
	assert.False(t, cfg.HTTP.Enabled)
	assert.False(t, cfg.Redis.Enabled)
	assert.False(t, cfg.MQTT.Enabled)
	assert.Equal(t, 10*time.Second, cfg.MQTT.ConnectTimeout)
	assert.Equal(t, 360*time.Second, cfg.Cache.TTL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("POLL_INTERVAL", "5s")
	t.Setenv("POLL_FETCH_TIMEOUT", "1m")
	t.Setenv("COMMAND_MODE", "ONCE")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DB_DRIVER", "mysql")
	t.Setenv("HTTP_ALLOW_ORIGINS", "http://a.local, http://b.local")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.Poller.Interval)
	// Таймаут запроса не больше интервала
	assert.Equal(t, 5*time.Second, cfg.Poller.FetchTimeout)
	assert.Equal(t, "once", cfg.Command.Mode)
	assert.Equal(t, slog.LevelDebug, cfg.App.LogLevel)
	assert.Equal(t, "3306", cfg.DB.Port)
	assert.Equal(t, []string{"http://a.local", "http://b.local"}, cfg.HTTP.AllowOrigins)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string][2]string{
		"command mode": {"COMMAND_MODE", "twice"},
		"db driver":    {"DB_DRIVER", "oracle"},
		"log level":    {"LOG_LEVEL", "loud"},
		"export fmt":   {"EXPORT_FORMAT", "pdf"},
		"latitude":     {"WEATHER_LATITUDE", "123"},
	}

	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv(kv[0], kv[1])
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
