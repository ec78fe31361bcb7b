package server

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gaiasync/gaiasync/internal/core/scheduler"
	"github.com/gaiasync/gaiasync/internal/core/transport/quic"
	"github.com/gaiasync/gaiasync/internal/core/transport/ws"
)

// Config holds the full server configuration. Zero values are not
// usable; start from DefaultConfig and override.
type Config struct {
	// TickRate is simulation ticks per second.
	TickRate int `yaml:"tick_rate"`

	// CellSize is the spatial hash cell edge in world units.
	CellSize float64 `yaml:"cell_size"`

	// AOIRadius bounds which entities a session hears about.
	AOIRadius float64 `yaml:"aoi_radius"`

	// TileRadius is the terrain window edge sent with full snapshots.
	TileRadius int `yaml:"tile_radius"`

	// TickHistory is how many tick timings the monitor retains.
	TickHistory int `yaml:"tick_history"`

	// RateLimit is inbound messages per second per connection.
	RateLimit int `yaml:"rate_limit"`

	// DataDir is the character store location.
	DataDir string `yaml:"data_dir"`

	// SaveInterval is how often in-game characters are snapshotted.
	SaveInterval time.Duration `yaml:"save_interval"`

	LogLevel string `yaml:"log_level"`

	WebSocket ws.Config  `yaml:"websocket"`
	QUIC      QUICConfig `yaml:"quic"`
}

// QUICConfig wraps the QUIC endpoint settings with an enable switch;
// the endpoint stays off unless configured on.
type QUICConfig struct {
	Enabled     bool `yaml:"enabled"`
	quic.Config `yaml:",inline"`
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	wsCfg := ws.DefaultConfig()
	wsCfg.Addr = "0.0.0.0:8765"

	return Config{
		TickRate:     scheduler.DefaultTickRate,
		CellSize:     16,
		AOIRadius:    30,
		TileRadius:   25,
		TickHistory:  100,
		RateLimit:    20,
		DataDir:      "./data",
		SaveInterval: 60 * time.Second,
		LogLevel:     "info",
		WebSocket:    wsCfg,
		QUIC:         QUICConfig{Enabled: false, Config: quic.DefaultConfig()},
	}
}

// LoadConfig reads a YAML config file over the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects configurations the server cannot run with.
func (c Config) Validate() error {
	if c.TickRate <= 0 {
		return fmt.Errorf("config: tick_rate must be positive, got %d", c.TickRate)
	}
	if c.CellSize <= 0 {
		return fmt.Errorf("config: cell_size must be positive, got %v", c.CellSize)
	}
	if c.AOIRadius <= 0 {
		return fmt.Errorf("config: aoi_radius must be positive, got %v", c.AOIRadius)
	}
	if c.RateLimit <= 0 {
		return fmt.Errorf("config: rate_limit must be positive, got %d", c.RateLimit)
	}
	return nil
}

// TickTarget returns the wall-clock duration of one tick.
func (c Config) TickTarget() time.Duration {
	return time.Duration(int64(time.Second) / int64(c.TickRate))
}
