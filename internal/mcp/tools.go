package mcp

import (
	"context"
	"fmt"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/meterdeck/internal/ipc"
)

func (s *Server) handleGetStatus(_ context.Context, _ *mcpsdk.CallToolRequest, _ GetStatusInput) (*mcpsdk.CallToolResult, GetStatusOutput, error) {
	st, err := s.client.GetStatus()
	if err != nil {
		return nil, GetStatusOutput{}, daemonError(err)
	}
	return nil, GetStatusOutput{
		SnapEnabled:   st.SnapEnabled,
		SnapDistance:  st.SnapDistance,
		MeterCount:    st.MeterCount,
		UptimeSeconds: st.UptimeSeconds,
	}, nil
}

func (s *Server) handleListMeters(_ context.Context, _ *mcpsdk.CallToolRequest, _ ListMetersInput) (*mcpsdk.CallToolResult, ListMetersOutput, error) {
	meters, err := s.client.ListMeters()
	if err != nil {
		return nil, ListMetersOutput{}, daemonError(err)
	}
	return nil, ListMetersOutput{Meters: meters}, nil
}

func (s *Server) handleSetSnap(_ context.Context, _ *mcpsdk.CallToolRequest, args SetSnapInput) (*mcpsdk.CallToolResult, SetSnapOutput, error) {
	enabled, err := s.client.SetSnap(args.Enabled)
	if err != nil {
		return nil, SetSnapOutput{}, daemonError(err)
	}
	s.logger.Info("snap toggled via mcp", "enabled", enabled)
	return nil, SetSnapOutput{Enabled: enabled}, nil
}

func (s *Server) handleAddMeter(_ context.Context, _ *mcpsdk.CallToolRequest, args AddMeterInput) (*mcpsdk.CallToolResult, AddMeterOutput, error) {
	if args.Strike < 0 {
		return nil, AddMeterOutput{}, fmt.Errorf("strike must be positive, got %v", args.Strike)
	}
	info, err := s.client.AddMeter(ipc.AddMeterPayload{
		Strike:   args.Strike,
		Right:    strings.TrimSpace(args.Right),
		Expiry:   strings.TrimSpace(args.Expiry),
		Inverted: args.Inverted,
	})
	if err != nil {
		return nil, AddMeterOutput{}, daemonError(err)
	}
	s.logger.Info("meter added via mcp", "id", info.ID, "strike", info.Strike, "right", info.Right)
	return nil, AddMeterOutput{Meter: *info}, nil
}

func (s *Server) handleCloseMeter(_ context.Context, _ *mcpsdk.CallToolRequest, args MeterInput) (*mcpsdk.CallToolResult, MeterOutput, error) {
	return s.meterCommand("close", args.ID, s.client.CloseMeter)
}

func (s *Server) handleResetMeter(_ context.Context, _ *mcpsdk.CallToolRequest, args MeterInput) (*mcpsdk.CallToolResult, MeterOutput, error) {
	return s.meterCommand("reset", args.ID, s.client.ResetMeter)
}

func (s *Server) handleInvertMeter(_ context.Context, _ *mcpsdk.CallToolRequest, args MeterInput) (*mcpsdk.CallToolResult, MeterOutput, error) {
	return s.meterCommand("invert", args.ID, s.client.InvertMeter)
}

func (s *Server) handleSetStrike(_ context.Context, _ *mcpsdk.CallToolRequest, args SetStrikeInput) (*mcpsdk.CallToolResult, MeterOutput, error) {
	if args.Strike <= 0 {
		return nil, MeterOutput{}, fmt.Errorf("strike must be positive, got %v", args.Strike)
	}
	return s.meterCommand("set_strike", args.ID, func(id string) error {
		return s.client.SetStrike(id, args.Strike)
	})
}

func (s *Server) meterCommand(action, id string, fn func(string) error) (*mcpsdk.CallToolResult, MeterOutput, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, MeterOutput{}, fmt.Errorf("id is required")
	}
	if err := fn(id); err != nil {
		return nil, MeterOutput{}, daemonError(err)
	}
	s.logger.Info("meter command via mcp", "action", action, "id", id)
	return nil, MeterOutput{ID: id}, nil
}

func daemonError(err error) error {
	return fmt.Errorf("meterdeck daemon: %w", err)
}
