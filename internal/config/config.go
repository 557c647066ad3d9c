package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/1broseidon/meterdeck/internal/meter"
	"gopkg.in/yaml.v3"
)

// FeedKind selects where trades come from.
type FeedKind string

const (
	FeedNone  FeedKind = "none"
	FeedRedis FeedKind = "redis"
	FeedStdin FeedKind = "stdin"
)

const (
	DefaultSnapDistance     = 10
	DefaultAutosaveSeconds  = 30
	DefaultMeterWidth       = 60
	DefaultMeterHeight      = 180
	DefaultRedisAddr        = "localhost:6379"
	DefaultRedisChannel     = "trades"
	DefaultReconnectSeconds = 2
	MaxBorderWidth          = 20

	// ExpiryLayout is the time layout of MeterSpec.Expiry.
	ExpiryLayout = "2006-01-02"
)

// FeedConfig configures the market-data stream.
type FeedConfig struct {
	Kind             FeedKind `yaml:"kind"`
	RedisAddr        string   `yaml:"redis_addr,omitempty"`
	RedisPassword    string   `yaml:"redis_password,omitempty"`
	RedisDB          int      `yaml:"redis_db,omitempty"`
	RedisChannel     string   `yaml:"redis_channel,omitempty"`
	ReconnectSeconds int      `yaml:"reconnect_seconds,omitempty"`
}

// MeterDefaults is the size given to meters created without explicit geometry.
type MeterDefaults struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// MeterSpec describes one meter window and the strike it tracks.
type MeterSpec struct {
	ID       string      `yaml:"id"`
	Strike   float64     `yaml:"strike"`
	Right    meter.Right `yaml:"right"`
	Expiry   string      `yaml:"expiry,omitempty"` // YYYY-MM-DD; empty matches any expiry
	Inverted bool        `yaml:"inverted,omitempty"`
	X        int         `yaml:"x"`
	Y        int         `yaml:"y"`
	Width    int         `yaml:"width,omitempty"`
	Height   int         `yaml:"height,omitempty"`
}

// Config is the effective meterdeck configuration.
type Config struct {
	SnapEnabled      bool          `yaml:"snap_enabled"`
	SnapDistance     int           `yaml:"snap_distance"`
	AlwaysOnTop      bool          `yaml:"always_on_top"`
	BorderWidth      int           `yaml:"border_width"`
	LogLevel         string        `yaml:"log_level"`
	ToggleSnapHotkey string        `yaml:"toggle_snap_hotkey,omitempty"`
	AddMeterHotkey   string        `yaml:"add_meter_hotkey,omitempty"`
	AutosaveSeconds  int           `yaml:"autosave_seconds"`
	Display          string        `yaml:"display,omitempty"`
	MeterDefaults    MeterDefaults `yaml:"meter_defaults"`
	Feed             FeedConfig    `yaml:"feed"`
	Meters           []MeterSpec   `yaml:"meters,omitempty"`

	// path is where Save writes; empty means DefaultConfigPath.
	path string
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		SnapEnabled:      true,
		SnapDistance:     DefaultSnapDistance,
		AlwaysOnTop:      true,
		LogLevel:         "info",
		ToggleSnapHotkey: "Mod4-Shift-s",
		AddMeterHotkey:   "Mod4-Shift-m",
		AutosaveSeconds:  DefaultAutosaveSeconds,
		MeterDefaults: MeterDefaults{
			Width:  DefaultMeterWidth,
			Height: DefaultMeterHeight,
		},
		Feed: FeedConfig{
			Kind:             FeedNone,
			RedisAddr:        DefaultRedisAddr,
			RedisChannel:     DefaultRedisChannel,
			ReconnectSeconds: DefaultReconnectSeconds,
		},
	}
}

// Path returns the file this config was loaded from, if any.
func (c *Config) Path() string {
	return c.path
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.Meters = append([]MeterSpec(nil), c.Meters...)
	return &out
}

// Save writes the configuration back to the file it was loaded from, or the
// default location when it was not loaded from a file.
func (c *Config) Save() error {
	if err := c.Validate(); err != nil {
		return err
	}

	path := c.path
	if path == "" {
		p, err := DefaultConfigPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write through a temp file so a crash mid-write keeps the old config.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace config file: %w", err)
	}
	return nil
}

// Validate checks the configuration for values the daemon cannot use.
func (c *Config) Validate() error {
	if c.SnapDistance <= 0 {
		return &ValidationError{Path: "snap_distance", Err: fmt.Errorf("snap_distance must be > 0")}
	}
	if c.BorderWidth < 0 || c.BorderWidth > MaxBorderWidth {
		return &ValidationError{Path: "border_width", Err: fmt.Errorf("border_width must be between 0 and %d", MaxBorderWidth)}
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warn, error")}
	}
	if c.AutosaveSeconds < 0 {
		return &ValidationError{Path: "autosave_seconds", Err: fmt.Errorf("autosave_seconds must be >= 0")}
	}
	if c.MeterDefaults.Width < meter.MinWidth || c.MeterDefaults.Height < meter.MinHeight {
		return &ValidationError{Path: "meter_defaults", Err: fmt.Errorf("meter_defaults must be at least %dx%d", meter.MinWidth, meter.MinHeight)}
	}

	switch c.Feed.Kind {
	case FeedNone, FeedStdin:
	case FeedRedis:
		if strings.TrimSpace(c.Feed.RedisAddr) == "" {
			return &ValidationError{Path: "feed.redis_addr", Err: fmt.Errorf("redis_addr is required for the redis feed")}
		}
		if strings.TrimSpace(c.Feed.RedisChannel) == "" {
			return &ValidationError{Path: "feed.redis_channel", Err: fmt.Errorf("redis_channel is required for the redis feed")}
		}
	default:
		return &ValidationError{Path: "feed.kind", Err: fmt.Errorf("feed.kind must be one of: none, redis, stdin")}
	}
	if c.Feed.ReconnectSeconds < 0 {
		return &ValidationError{Path: "feed.reconnect_seconds", Err: fmt.Errorf("reconnect_seconds must be >= 0")}
	}

	seen := make(map[string]struct{}, len(c.Meters))
	for i, m := range c.Meters {
		path := fmt.Sprintf("meters[%d]", i)
		if err := validateMeter(m); err != nil {
			return &ValidationError{Path: path, Err: err}
		}
		if _, dup := seen[m.ID]; dup {
			return &ValidationError{Path: path + ".id", Err: fmt.Errorf("duplicate meter id %q", m.ID)}
		}
		seen[m.ID] = struct{}{}
	}
	return nil
}

func validateMeter(m MeterSpec) error {
	if strings.TrimSpace(m.ID) == "" {
		return fmt.Errorf("id is required")
	}
	if m.Strike <= 0 {
		return fmt.Errorf("strike must be > 0")
	}
	if m.Right != meter.RightCall && m.Right != meter.RightPut {
		return fmt.Errorf("right must be CALL or PUT")
	}
	if m.Expiry != "" {
		if _, err := time.Parse(ExpiryLayout, m.Expiry); err != nil {
			return fmt.Errorf("expiry must be YYYY-MM-DD: %w", err)
		}
	}
	if m.Width != 0 && m.Width < meter.MinWidth {
		return fmt.Errorf("width must be >= %d", meter.MinWidth)
	}
	if m.Height != 0 && m.Height < meter.MinHeight {
		return fmt.Errorf("height must be >= %d", meter.MinHeight)
	}
	return nil
}
