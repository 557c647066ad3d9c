package config

// RawConfig mirrors the YAML file. Pointer fields distinguish "not set" from
// zero values so unset keys keep their defaults.
type RawConfig struct {
	SnapEnabled      *bool             `yaml:"snap_enabled"`
	SnapDistance     *int              `yaml:"snap_distance"`
	AlwaysOnTop      *bool             `yaml:"always_on_top"`
	BorderWidth      *int              `yaml:"border_width"`
	LogLevel         *string           `yaml:"log_level"`
	ToggleSnapHotkey *string           `yaml:"toggle_snap_hotkey"`
	AddMeterHotkey   *string           `yaml:"add_meter_hotkey"`
	AutosaveSeconds  *int              `yaml:"autosave_seconds"`
	Display          *string           `yaml:"display"`
	MeterDefaults    *RawMeterDefaults `yaml:"meter_defaults"`
	Feed             *RawFeedConfig    `yaml:"feed"`
	Meters           []RawMeterSpec    `yaml:"meters"`
}

type RawMeterDefaults struct {
	Width  *int `yaml:"width"`
	Height *int `yaml:"height"`
}

type RawFeedConfig struct {
	Kind             *string `yaml:"kind"`
	RedisAddr        *string `yaml:"redis_addr"`
	RedisPassword    *string `yaml:"redis_password"`
	RedisDB          *int    `yaml:"redis_db"`
	RedisChannel     *string `yaml:"redis_channel"`
	ReconnectSeconds *int    `yaml:"reconnect_seconds"`
}

type RawMeterSpec struct {
	ID       string  `yaml:"id"`
	Strike   float64 `yaml:"strike"`
	Right    string  `yaml:"right"`
	Expiry   string  `yaml:"expiry"`
	Inverted bool    `yaml:"inverted"`
	X        int     `yaml:"x"`
	Y        int     `yaml:"y"`
	Width    int     `yaml:"width"`
	Height   int     `yaml:"height"`
}
