package config

import (
	"fmt"
	"strings"

	"github.com/1broseidon/meterdeck/internal/meter"
)

type ValidationError struct {
	Path string
	Err  error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// BuildEffectiveConfig overlays raw on DefaultConfig.
func BuildEffectiveConfig(raw RawConfig) (*Config, error) {
	cfg := DefaultConfig()

	if raw.SnapEnabled != nil {
		cfg.SnapEnabled = *raw.SnapEnabled
	}
	if raw.SnapDistance != nil {
		cfg.SnapDistance = *raw.SnapDistance
	}
	if raw.AlwaysOnTop != nil {
		cfg.AlwaysOnTop = *raw.AlwaysOnTop
	}
	cfg.BorderWidth = derefInt(raw.BorderWidth, cfg.BorderWidth)
	if raw.LogLevel != nil {
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(*raw.LogLevel))
		if cfg.LogLevel == "warning" {
			cfg.LogLevel = "warn"
		}
	}
	if raw.ToggleSnapHotkey != nil {
		cfg.ToggleSnapHotkey = *raw.ToggleSnapHotkey
	}
	if raw.AddMeterHotkey != nil {
		cfg.AddMeterHotkey = *raw.AddMeterHotkey
	}
	if raw.AutosaveSeconds != nil {
		cfg.AutosaveSeconds = *raw.AutosaveSeconds
	}
	if raw.Display != nil {
		cfg.Display = *raw.Display
	}

	if d := raw.MeterDefaults; d != nil {
		cfg.MeterDefaults.Width = derefInt(d.Width, cfg.MeterDefaults.Width)
		cfg.MeterDefaults.Height = derefInt(d.Height, cfg.MeterDefaults.Height)
	}

	if f := raw.Feed; f != nil {
		if f.Kind != nil {
			cfg.Feed.Kind = FeedKind(strings.ToLower(strings.TrimSpace(*f.Kind)))
		}
		if f.RedisAddr != nil {
			cfg.Feed.RedisAddr = *f.RedisAddr
		}
		if f.RedisPassword != nil {
			cfg.Feed.RedisPassword = *f.RedisPassword
		}
		cfg.Feed.RedisDB = derefInt(f.RedisDB, cfg.Feed.RedisDB)
		if f.RedisChannel != nil {
			cfg.Feed.RedisChannel = *f.RedisChannel
		}
		cfg.Feed.ReconnectSeconds = derefInt(f.ReconnectSeconds, cfg.Feed.ReconnectSeconds)
	}

	for i, rm := range raw.Meters {
		right, err := meter.ParseRight(rm.Right)
		if err != nil {
			return nil, &ValidationError{Path: fmt.Sprintf("meters[%d].right", i), Err: err}
		}
		cfg.Meters = append(cfg.Meters, MeterSpec{
			ID:       strings.TrimSpace(rm.ID),
			Strike:   rm.Strike,
			Right:    right,
			Expiry:   strings.TrimSpace(rm.Expiry),
			Inverted: rm.Inverted,
			X:        rm.X,
			Y:        rm.Y,
			Width:    rm.Width,
			Height:   rm.Height,
		})
	}

	return cfg, nil
}

func derefInt(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}
