package deck

import (
	"github.com/1broseidon/meterdeck/internal/config"
	"github.com/1broseidon/meterdeck/internal/meter"
	"github.com/1broseidon/meterdeck/internal/platform"
)

// Meter is one live meter window. It is the snap.Window the registry sees.
type Meter struct {
	id      string
	surface platform.Surface
	state   meter.State
	border  int
}

func (m *Meter) ID() platform.WindowID { return m.surface.ID() }
func (m *Meter) Bounds() platform.Rect { return m.surface.Bounds() }
func (m *Meter) Move(x, y int) error   { return m.surface.Move(x, y) }

func (m *Meter) repaint() error {
	b := m.surface.Bounds()
	return m.surface.Paint(meter.Layout(b.Width-2*m.border, b.Height-2*m.border, m.state))
}

func (m *Meter) spec() config.MeterSpec {
	b := m.surface.Bounds()
	return config.MeterSpec{
		ID:       m.id,
		Strike:   m.state.Strike,
		Right:    m.state.Right,
		Expiry:   m.state.Expiry,
		Inverted: m.state.Inverted,
		X:        b.X,
		Y:        b.Y,
		Width:    b.Width,
		Height:   b.Height,
	}
}

// MeterInfo is a snapshot of a meter for status output.
type MeterInfo struct {
	ID       string            `json:"id"`
	Window   uint32            `json:"window"`
	Strike   float64           `json:"strike"`
	Right    meter.Right       `json:"right"`
	Expiry   string            `json:"expiry,omitempty"`
	Inverted bool              `json:"inverted,omitempty"`
	X        int               `json:"x"`
	Y        int               `json:"y"`
	Width    int               `json:"width"`
	Height   int               `json:"height"`
	Tally    meter.Tally       `json:"tally"`
	Attached map[string]string `json:"attached,omitempty"` // neighbour meter id -> touching side
}
