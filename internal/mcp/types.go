package mcp

import "github.com/1broseidon/meterdeck/internal/deck"

type GetStatusInput struct{}

// GetStatusOutput is the output for the get_status tool.
type GetStatusOutput struct {
	SnapEnabled   bool  `json:"snap_enabled"`
	SnapDistance  int   `json:"snap_distance"`
	MeterCount    int   `json:"meter_count"`
	UptimeSeconds int64 `json:"uptime_seconds"`
}

type ListMetersInput struct{}

// ListMetersOutput is the output for the list_meters tool.
type ListMetersOutput struct {
	Meters []deck.MeterInfo `json:"meters"`
}

// SetSnapInput is the input for the set_snap tool.
type SetSnapInput struct {
	Enabled bool `json:"enabled" jsonschema:"true to enable snapping, false to disable it"`
}

// SetSnapOutput is the output for the set_snap tool.
type SetSnapOutput struct {
	Enabled bool `json:"enabled"`
}

// AddMeterInput is the input for the add_meter tool.
type AddMeterInput struct {
	Strike   float64 `json:"strike,omitempty" jsonschema:"Strike price to tally (default: 5900)"`
	Right    string  `json:"right,omitempty" jsonschema:"CALL or PUT (default: CALL)"`
	Expiry   string  `json:"expiry,omitempty" jsonschema:"Expiry date as YYYY-MM-DD; empty matches trades of any expiry"`
	Inverted bool    `json:"inverted,omitempty" jsonschema:"Draw buy volume on top instead of the bottom"`
}

// AddMeterOutput is the output for the add_meter tool.
type AddMeterOutput struct {
	Meter deck.MeterInfo `json:"meter"`
}

// MeterInput names a single meter.
type MeterInput struct {
	ID string `json:"id" jsonschema:"Meter id or a unique prefix of it"`
}

// SetStrikeInput is the input for the set_strike tool.
type SetStrikeInput struct {
	ID     string  `json:"id" jsonschema:"Meter id or a unique prefix of it"`
	Strike float64 `json:"strike" jsonschema:"New strike price, must be positive"`
}

// MeterOutput echoes the meter a command was applied to.
type MeterOutput struct {
	ID string `json:"id"`
}
