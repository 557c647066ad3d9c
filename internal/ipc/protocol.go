package ipc

import (
	"encoding/json"
	"fmt"

	"github.com/1broseidon/meterdeck/internal/deck"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandGetStatus   CommandType = "GET_STATUS"
	CommandSetSnap     CommandType = "SET_SNAP"
	CommandToggleSnap  CommandType = "TOGGLE_SNAP"
	CommandListMeters  CommandType = "LIST_METERS"
	CommandAddMeter    CommandType = "ADD_METER"
	CommandCloseMeter  CommandType = "CLOSE_METER"
	CommandResetMeter  CommandType = "RESET_METER"
	CommandInvertMeter CommandType = "INVERT_METER"
	CommandSetStrike   CommandType = "SET_STRIKE"
	CommandReload      CommandType = "RELOAD"
)

const (
	StatusOK    = "OK"
	StatusError = "ERROR"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// StatusData represents the data returned by GET_STATUS
type StatusData struct {
	SnapEnabled   bool  `json:"snap_enabled"`
	SnapDistance  int   `json:"snap_distance"`
	MeterCount    int   `json:"meter_count"`
	UptimeSeconds int64 `json:"uptime_seconds"`
	DaemonRunning bool  `json:"daemon_running"`
}

// SnapData is returned by SET_SNAP and TOGGLE_SNAP.
type SnapData struct {
	Enabled bool `json:"enabled"`
}

type SetSnapPayload struct {
	Enabled bool `json:"enabled"`
}

// MetersData represents the data returned by LIST_METERS
type MetersData struct {
	Meters []deck.MeterInfo `json:"meters"`
}

// AddMeterPayload describes a new meter. Zero fields take daemon defaults.
type AddMeterPayload struct {
	ID       string  `json:"id,omitempty"`
	Strike   float64 `json:"strike,omitempty"`
	Right    string  `json:"right,omitempty"`
	Expiry   string  `json:"expiry,omitempty"`
	Inverted bool    `json:"inverted,omitempty"`
	X        int     `json:"x,omitempty"`
	Y        int     `json:"y,omitempty"`
	Width    int     `json:"width,omitempty"`
	Height   int     `json:"height,omitempty"`
}

// MeterPayload addresses one meter by id or unique id prefix.
type MeterPayload struct {
	ID string `json:"id"`
}

type SetStrikePayload struct {
	ID     string  `json:"id"`
	Strike float64 `json:"strike"`
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data any) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: StatusOK,
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: StatusError,
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
