package x11

import (
	"errors"
	"strings"
	"testing"

	"github.com/BurntSushi/xgb/xproto"

	"github.com/1broseidon/meterdeck/internal/meter"
)

func TestClipArea(t *testing.T) {
	tests := []struct {
		name string
		a, b Area
		want Area
	}{
		{
			name: "panel on top",
			a:    Area{0, 0, 1920, 1080},
			b:    Area{0, 32, 3840, 1048},
			want: Area{0, 32, 1920, 1048},
		},
		{
			name: "second monitor",
			a:    Area{1920, 0, 1920, 1080},
			b:    Area{0, 0, 3840, 1050},
			want: Area{1920, 0, 1920, 1050},
		},
		{
			name: "disjoint keeps monitor",
			a:    Area{0, 0, 100, 100},
			b:    Area{200, 200, 50, 50},
			want: Area{0, 0, 100, 100},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := clipArea(tt.a, tt.b); got != tt.want {
				t.Fatalf("clipArea = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestResizeTargetClampsToMeterMinimum(t *testing.T) {
	d := dragState{rootX: 500, rootY: 500, startW: 80, startH: 200}

	if w, h := resizeTarget(d, 520, 530); w != 100 || h != 230 {
		t.Fatalf("grow: got %dx%d, want 100x230", w, h)
	}
	if w, h := resizeTarget(d, 400, 300); w != meter.MinWidth || h != meter.MinHeight {
		t.Fatalf("shrink: got %dx%d, want %dx%d", w, h, meter.MinWidth, meter.MinHeight)
	}
}

func TestToRectangle(t *testing.T) {
	r := toRectangle(meter.Box{X: 2, Y: 16, W: 42, H: 14})
	if r.X != 2 || r.Y != 16 || r.Width != 42 || r.Height != 14 {
		t.Fatalf("unexpected rectangle %+v", r)
	}
}

func TestPositionRequestRestacksOnlyWhenOnTop(t *testing.T) {
	mask, values := positionRequest(10, -5, true)
	if mask&xproto.ConfigWindowStackMode == 0 || len(values) != 3 || values[2] != xproto.StackModeAbove {
		t.Fatalf("on top: mask=%#x values=%v", mask, values)
	}
	if int32(values[1]) != -5 {
		t.Fatalf("negative y encoded as %d", int32(values[1]))
	}

	mask, values = positionRequest(10, 20, false)
	if mask&xproto.ConfigWindowStackMode != 0 || len(values) != 2 {
		t.Fatalf("not on top: mask=%#x values=%v", mask, values)
	}
}

func TestWindowAttributesIncludeBorderPixel(t *testing.T) {
	mask, values := windowAttributes()
	if mask&xproto.CwBorderPixel == 0 {
		t.Fatalf("mask %#x has no border pixel", mask)
	}
	if len(values) != 4 || values[0] != meter.ColorCanvasBg || values[1] != meter.ColorHeaderBg || values[2] != 1 {
		t.Fatalf("unexpected values %v", values)
	}
}

func TestOuterSizeAddsBorderOnBothSides(t *testing.T) {
	if w, h := outerSize(60, 180, 3); w != 66 || h != 186 {
		t.Fatalf("got %dx%d, want 66x186", w, h)
	}
	if w, h := outerSize(60, 180, 0); w != 60 || h != 180 {
		t.Fatalf("got %dx%d, want 60x180", w, h)
	}
}

func TestWindowNameError(t *testing.T) {
	if err := windowNameError(nil, nil); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}

	classErr := errors.New("bad atom")
	err := windowNameError(classErr, errors.New("no reply"))
	if !errors.Is(err, classErr) {
		t.Fatalf("expected class error to be wrapped, got %v", err)
	}
	if msg := err.Error(); !strings.Contains(msg, "WM_CLASS") || !strings.Contains(msg, "_NET_WM_NAME") {
		t.Fatalf("expected both failures named, got %q", msg)
	}
}
