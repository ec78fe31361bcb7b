package server

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "server.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.Equal(t, 20, cfg.TickRate)
	require.Equal(t, 16.0, cfg.CellSize)
	require.Equal(t, 30.0, cfg.AOIRadius)
	require.Equal(t, 25, cfg.TileRadius)
	require.Equal(t, 100, cfg.TickHistory)
	require.Equal(t, 20, cfg.RateLimit)
	require.Equal(t, "./data", cfg.DataDir)
	require.Equal(t, time.Minute, cfg.SaveInterval)
	require.Equal(t, "0.0.0.0:8765", cfg.WebSocket.Addr)
	require.False(t, cfg.QUIC.Enabled)

	require.NoError(t, cfg.Validate())
	require.Equal(t, 50*time.Millisecond, cfg.TickTarget())
}

func TestLoadConfig(t *testing.T) {
	t.Run("Overrides layer onto defaults", func(t *testing.T) {
		path := writeConfigFile(t, `
tick_rate: 30
rate_limit: 50
data_dir: /var/lib/world
websocket:
  addr: "127.0.0.1:9000"
quic:
  enabled: true
  addr: ":9001"
`)
		cfg, err := LoadConfig(path)
		require.NoError(t, err)

		require.Equal(t, 30, cfg.TickRate)
		require.Equal(t, 50, cfg.RateLimit)
		require.Equal(t, "/var/lib/world", cfg.DataDir)
		require.Equal(t, "127.0.0.1:9000", cfg.WebSocket.Addr)
		require.True(t, cfg.QUIC.Enabled)
		require.Equal(t, ":9001", cfg.QUIC.Addr)

		// Untouched keys keep their defaults.
		require.Equal(t, 30.0, cfg.AOIRadius)
		require.Equal(t, 25, cfg.TileRadius)
	})

	t.Run("Missing file fails", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
		require.Error(t, err)
	})

	t.Run("Malformed yaml fails", func(t *testing.T) {
		path := writeConfigFile(t, "tick_rate: [not a number")
		_, err := LoadConfig(path)
		require.Error(t, err)
	})

	t.Run("Invalid values fail validation", func(t *testing.T) {
		path := writeConfigFile(t, "tick_rate: -5\n")
		_, err := LoadConfig(path)
		require.ErrorContains(t, err, "tick_rate")
	})
}

func TestConfig_Validate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"Zero tick rate", func(c *Config) { c.TickRate = 0 }},
		{"Negative cell size", func(c *Config) { c.CellSize = -1 }},
		{"Zero aoi radius", func(c *Config) { c.AOIRadius = 0 }},
		{"Zero rate limit", func(c *Config) { c.RateLimit = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestConfig_TickTarget(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TickRate = 50
	require.Equal(t, 20*time.Millisecond, cfg.TickTarget())

	cfg.TickRate = 1
	require.Equal(t, time.Second, cfg.TickTarget())
}
