package mcp

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/1broseidon/meterdeck/internal/deck"
	"github.com/1broseidon/meterdeck/internal/ipc"
	"github.com/1broseidon/meterdeck/internal/meter"
)

type fakeClient struct {
	snap    bool
	meters  []deck.MeterInfo
	added   []ipc.AddMeterPayload
	calls   []string
	strikes map[string]float64
	err     error
}

func (f *fakeClient) GetStatus() (*ipc.StatusData, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &ipc.StatusData{SnapEnabled: f.snap, SnapDistance: 10, MeterCount: len(f.meters), DaemonRunning: true}, nil
}

func (f *fakeClient) SetSnap(enabled bool) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	f.snap = enabled
	return f.snap, nil
}

func (f *fakeClient) ListMeters() ([]deck.MeterInfo, error) {
	return f.meters, f.err
}

func (f *fakeClient) AddMeter(p ipc.AddMeterPayload) (*deck.MeterInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.added = append(f.added, p)
	info := deck.MeterInfo{ID: "new", Strike: p.Strike, Right: meter.Right(p.Right)}
	f.meters = append(f.meters, info)
	return &info, nil
}

func (f *fakeClient) CloseMeter(id string) error  { return f.record("close " + id) }
func (f *fakeClient) ResetMeter(id string) error  { return f.record("reset " + id) }
func (f *fakeClient) InvertMeter(id string) error { return f.record("invert " + id) }

func (f *fakeClient) SetStrike(id string, strike float64) error {
	if f.strikes == nil {
		f.strikes = make(map[string]float64)
	}
	f.strikes[id] = strike
	return f.record("strike " + id)
}

func (f *fakeClient) record(call string) error {
	if f.err != nil {
		return f.err
	}
	f.calls = append(f.calls, call)
	return nil
}

func TestNewServerRegistersTools(t *testing.T) {
	s := NewServer(&fakeClient{}, nil)
	if s.mcpServer == nil {
		t.Fatal("expected underlying MCP server")
	}
}

func TestStatusAndSnapTools(t *testing.T) {
	fc := &fakeClient{snap: true, meters: []deck.MeterInfo{{ID: "a"}, {ID: "b"}}}
	s := NewServer(fc, nil)
	ctx := context.Background()

	_, st, err := s.handleGetStatus(ctx, nil, GetStatusInput{})
	if err != nil {
		t.Fatalf("get_status: %v", err)
	}
	if !st.SnapEnabled || st.MeterCount != 2 || st.SnapDistance != 10 {
		t.Fatalf("status = %+v", st)
	}

	_, out, err := s.handleSetSnap(ctx, nil, SetSnapInput{Enabled: false})
	if err != nil {
		t.Fatalf("set_snap: %v", err)
	}
	if out.Enabled || fc.snap {
		t.Fatalf("expected snapping disabled, got out=%+v client=%v", out, fc.snap)
	}

	_, list, err := s.handleListMeters(ctx, nil, ListMetersInput{})
	if err != nil {
		t.Fatalf("list_meters: %v", err)
	}
	if len(list.Meters) != 2 {
		t.Fatalf("list_meters returned %d meters, want 2", len(list.Meters))
	}
}

func TestAddMeterTool(t *testing.T) {
	fc := &fakeClient{}
	s := NewServer(fc, nil)

	_, out, err := s.handleAddMeter(context.Background(), nil, AddMeterInput{Strike: 412.5, Right: " PUT ", Expiry: "2026-12-18"})
	if err != nil {
		t.Fatalf("add_meter: %v", err)
	}
	if out.Meter.ID != "new" || out.Meter.Strike != 412.5 {
		t.Fatalf("add_meter output = %+v", out)
	}
	if len(fc.added) != 1 || fc.added[0].Right != "PUT" || fc.added[0].Expiry != "2026-12-18" {
		t.Fatalf("payload = %+v", fc.added)
	}

	if _, _, err := s.handleAddMeter(context.Background(), nil, AddMeterInput{Strike: -1}); err == nil {
		t.Fatal("expected error for negative strike")
	}
	if len(fc.added) != 1 {
		t.Fatalf("negative strike reached the daemon: %+v", fc.added)
	}
}

func TestMeterCommandTools(t *testing.T) {
	fc := &fakeClient{}
	s := NewServer(fc, nil)
	ctx := context.Background()

	if _, out, err := s.handleCloseMeter(ctx, nil, MeterInput{ID: " abc "}); err != nil || out.ID != "abc" {
		t.Fatalf("close_meter = %+v, %v", out, err)
	}
	if _, _, err := s.handleResetMeter(ctx, nil, MeterInput{ID: "abc"}); err != nil {
		t.Fatalf("reset_meter: %v", err)
	}
	if _, _, err := s.handleInvertMeter(ctx, nil, MeterInput{ID: "abc"}); err != nil {
		t.Fatalf("invert_meter: %v", err)
	}
	if _, _, err := s.handleSetStrike(ctx, nil, SetStrikeInput{ID: "abc", Strike: 5950}); err != nil {
		t.Fatalf("set_strike: %v", err)
	}

	want := []string{"close abc", "reset abc", "invert abc", "strike abc"}
	if strings.Join(fc.calls, ",") != strings.Join(want, ",") {
		t.Fatalf("calls = %v, want %v", fc.calls, want)
	}
	if fc.strikes["abc"] != 5950 {
		t.Fatalf("strike = %v, want 5950", fc.strikes["abc"])
	}
}

func TestMeterCommandValidation(t *testing.T) {
	fc := &fakeClient{}
	s := NewServer(fc, nil)
	ctx := context.Background()

	tests := []struct {
		name string
		call func() error
	}{
		{"empty id", func() error {
			_, _, err := s.handleCloseMeter(ctx, nil, MeterInput{ID: "  "})
			return err
		}},
		{"zero strike", func() error {
			_, _, err := s.handleSetStrike(ctx, nil, SetStrikeInput{ID: "abc"})
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
	if len(fc.calls) != 0 {
		t.Fatalf("invalid input reached the daemon: %v", fc.calls)
	}
}

func TestDaemonErrorsAreWrapped(t *testing.T) {
	sentinel := errors.New("connection refused")
	s := NewServer(&fakeClient{err: sentinel}, nil)

	_, _, err := s.handleResetMeter(context.Background(), nil, MeterInput{ID: "abc"})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected wrapped daemon error, got %v", err)
	}
	if !strings.Contains(err.Error(), "meterdeck daemon") {
		t.Fatalf("error %q does not name the daemon", err)
	}
}
