// Package deck owns the live meter windows. It creates and destroys
// surfaces, wires their hooks into the snap registry, and routes trades to
// the meters that track them.
//
// A Deck is not safe for concurrent use; call it on the UI goroutine.
package deck

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/1broseidon/meterdeck/internal/config"
	"github.com/1broseidon/meterdeck/internal/feed"
	"github.com/1broseidon/meterdeck/internal/meter"
	"github.com/1broseidon/meterdeck/internal/platform"
	"github.com/1broseidon/meterdeck/internal/snap"
)

// DefaultStrike is the strike a new meter shows when none is given.
const DefaultStrike = 5900

const (
	placeMargin = 40
	placeStep   = 24
)

// ErrUnknownMeter is returned when no meter matches an id.
var ErrUnknownMeter = errors.New("unknown meter")

// Deck is the set of live meters.
type Deck struct {
	backend  platform.Backend
	registry *snap.Registry
	cfg      *config.Config
	logger   *slog.Logger

	meters []*Meter
	placed int
}

// New returns a deck with no meters. cfg supplies defaults and the meters
// Start creates.
func New(backend platform.Backend, registry *snap.Registry, cfg *config.Config, logger *slog.Logger) *Deck {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Deck{
		backend:  backend,
		registry: registry,
		cfg:      cfg,
		logger:   logger,
	}
}

// Start binds hotkeys, creates the configured meters (one default meter when
// none are configured) and applies the configured snap state. Configured
// meters keep their stored position, and meters restored flush against each
// other are attached again.
func (d *Deck) Start() error {
	d.bindHotkeys()

	// Snapping stays off while meters are created so enabling it below runs
	// the re-attach pass over all of them.
	d.registry.SetEnabled(false)
	if len(d.cfg.Meters) == 0 {
		if _, err := d.addMeter(config.MeterSpec{}, false); err != nil {
			return err
		}
	}
	for _, spec := range d.cfg.Meters {
		if _, err := d.addMeter(spec, true); err != nil {
			return err
		}
	}

	d.registry.SetEnabled(d.cfg.SnapEnabled)
	d.logger.Info("deck started", "meters", len(d.meters), "snap", d.registry.IsEnabled())
	return nil
}

func (d *Deck) bindHotkeys() {
	bind := func(seq, name string, fn func()) {
		if seq == "" {
			return
		}
		if err := d.backend.BindKey(seq, fn); err != nil {
			d.logger.Warn("hotkey not bound", "action", name, "keys", seq, "error", err)
			return
		}
		d.logger.Debug("hotkey bound", "action", name, "keys", seq)
	}
	bind(d.cfg.ToggleSnapHotkey, "toggle-snap", func() { d.ToggleSnap() })
	bind(d.cfg.AddMeterHotkey, "add-meter", func() {
		if _, err := d.AddMeter(config.MeterSpec{}); err != nil {
			d.logger.Warn("add meter failed", "error", err)
		}
	})
}

// AddMeter creates, registers and paints a meter. Zero fields of spec take
// defaults: a new UUID, DefaultStrike, CALL, the configured size and a
// cascading position in the work area.
func (d *Deck) AddMeter(spec config.MeterSpec) (MeterInfo, error) {
	return d.addMeter(spec, false)
}

// addMeter creates a meter. A restored spec keeps its position even at the
// origin.
func (d *Deck) addMeter(spec config.MeterSpec, restored bool) (MeterInfo, error) {
	spec = d.withDefaults(spec, restored)
	if d.lookup(spec.ID) != nil {
		return MeterInfo{}, fmt.Errorf("meter %s already exists", spec.ID)
	}

	m := &Meter{
		id:     spec.ID,
		border: d.cfg.BorderWidth,
		state: meter.State{
			Strike:   spec.Strike,
			Right:    spec.Right,
			Expiry:   spec.Expiry,
			Inverted: spec.Inverted,
		},
	}

	bounds := platform.Rect{X: spec.X, Y: spec.Y, Width: spec.Width, Height: spec.Height}
	opts := platform.SurfaceOptions{
		Title:       title(m.state),
		AlwaysOnTop: d.cfg.AlwaysOnTop,
		BorderWidth: d.cfg.BorderWidth,
	}
	surface, err := d.backend.CreateSurface(bounds, opts, platform.SurfaceHandlers{
		OnMove:   func() { d.registry.HandleMove(m) },
		OnResize: func() { d.onResize(m) },
		OnClose:  func() { d.forget(m) },
		OnButton: func(b meter.Button) { d.onButton(m, b) },
	})
	if err != nil {
		return MeterInfo{}, fmt.Errorf("create meter window: %w", err)
	}
	m.surface = surface

	d.meters = append(d.meters, m)
	d.registry.Register(m)
	if err := m.repaint(); err != nil {
		d.logger.Warn("paint failed", "meter", m.id, "error", err)
	}

	d.logger.Info("meter added", "meter", m.id, "window", m.ID(), "strike", meter.FormatStrike(m.state.Strike), "right", m.state.Right)
	return d.info(m), nil
}

func (d *Deck) withDefaults(spec config.MeterSpec, restored bool) config.MeterSpec {
	if strings.TrimSpace(spec.ID) == "" {
		spec.ID = uuid.NewString()
	}
	if spec.Strike <= 0 {
		spec.Strike = DefaultStrike
	}
	if spec.Right == "" {
		spec.Right = meter.RightCall
	}
	if spec.Width <= 0 {
		spec.Width = d.cfg.MeterDefaults.Width
	}
	if spec.Height <= 0 {
		spec.Height = d.cfg.MeterDefaults.Height
	}
	if !restored && spec.X == 0 && spec.Y == 0 {
		spec.X, spec.Y = d.nextPosition(spec.Width, spec.Height)
	}
	return spec
}

// nextPosition cascades new meters from the top-left of the work area,
// wrapping back to the corner when the next one would not fit.
func (d *Deck) nextPosition(width, height int) (int, int) {
	area, err := d.backend.WorkArea()
	if err != nil || area.Width <= 0 || area.Height <= 0 {
		area = platform.Rect{Width: 1024, Height: 768}
	}

	off := placeMargin + d.placed*placeStep
	if off+width > area.Width || off+height > area.Height {
		d.placed = 0
		off = placeMargin
	}
	d.placed++
	return area.X + off, area.Y + off
}

// CloseMeter unregisters the meter and destroys its window.
func (d *Deck) CloseMeter(id string) error {
	m, err := d.find(id)
	if err != nil {
		return err
	}
	d.forget(m)
	m.surface.Destroy()
	return nil
}

// forget drops m from the registry and the deck. It is also the close hook
// for windows destroyed from outside.
func (d *Deck) forget(m *Meter) {
	d.registry.HandleClose(m)
	for i, other := range d.meters {
		if other == m {
			d.meters = append(d.meters[:i], d.meters[i+1:]...)
			d.logger.Info("meter closed", "meter", m.id)
			return
		}
	}
}

// ResetMeter zeroes the meter's tally.
func (d *Deck) ResetMeter(id string) error {
	return d.update(id, func(st *meter.State) { st.Tally.Reset() })
}

// InvertMeter flips which side of the bar buy volume fills from.
func (d *Deck) InvertMeter(id string) error {
	return d.update(id, func(st *meter.State) { st.Inverted = !st.Inverted })
}

// ToggleRight switches the meter between CALL and PUT. The tally is reset
// because it no longer describes the tracked contract.
func (d *Deck) ToggleRight(id string) error {
	return d.update(id, func(st *meter.State) {
		st.Right = st.Right.Toggle()
		st.Tally.Reset()
	})
}

// SetStrike changes the tracked strike and resets the tally.
func (d *Deck) SetStrike(id string, strike float64) error {
	if strike <= 0 {
		return fmt.Errorf("strike must be > 0")
	}
	return d.update(id, func(st *meter.State) {
		st.Strike = strike
		st.Tally.Reset()
	})
}

func (d *Deck) update(id string, fn func(*meter.State)) error {
	m, err := d.find(id)
	if err != nil {
		return err
	}
	fn(&m.state)
	if err := m.repaint(); err != nil {
		return fmt.Errorf("repaint meter %s: %w", m.id, err)
	}
	return nil
}

func (d *Deck) onButton(m *Meter, b meter.Button) {
	var err error
	switch b {
	case meter.ButtonReset:
		err = d.ResetMeter(m.id)
	case meter.ButtonInvert:
		err = d.InvertMeter(m.id)
	case meter.ButtonToggleRight:
		err = d.ToggleRight(m.id)
	case meter.ButtonClose:
		err = d.CloseMeter(m.id)
	default:
		return
	}
	if err != nil {
		d.logger.Warn("button action failed", "meter", m.id, "button", b.String(), "error", err)
	}
}

func (d *Deck) onResize(m *Meter) {
	if err := m.repaint(); err != nil {
		d.logger.Warn("paint failed", "meter", m.id, "error", err)
	}
	d.registry.HandleResize(m)
}

// SetSnapEnabled turns snapping on or off.
func (d *Deck) SetSnapEnabled(on bool) {
	d.registry.SetEnabled(on)
	d.logger.Info("snapping", "enabled", on)
}

// ToggleSnap flips snapping and returns the new state.
func (d *Deck) ToggleSnap() bool {
	d.SetSnapEnabled(!d.registry.IsEnabled())
	return d.registry.IsEnabled()
}

func (d *Deck) SnapEnabled() bool { return d.registry.IsEnabled() }

// SnapDistance returns the registry's snap threshold.
func (d *Deck) SnapDistance() int { return d.registry.Distance() }

// Reload applies the settings of cfg that can change at runtime: snap state,
// snap distance and meter defaults. Live meters are left as they are.
func (d *Deck) Reload(cfg *config.Config) {
	d.cfg = cfg
	d.registry.SetDistance(cfg.SnapDistance)
	d.registry.SetEnabled(cfg.SnapEnabled)
	d.logger.Info("config reloaded", "snap", cfg.SnapEnabled, "distance", d.registry.Distance())
}

// ApplyTrade adds t to every meter tracking its contract and returns how
// many meters matched.
func (d *Deck) ApplyTrade(t feed.Trade) int {
	n := 0
	for _, m := range d.meters {
		if !t.Matches(m.state.Strike, m.state.Right, m.state.Expiry) {
			continue
		}
		m.state.Tally.Add(t.Aggressor, t.Size)
		if err := m.repaint(); err != nil {
			d.logger.Debug("paint failed", "meter", m.id, "error", err)
		}
		n++
	}
	return n
}

// Meters returns a snapshot of every meter in creation order.
func (d *Deck) Meters() []MeterInfo {
	out := make([]MeterInfo, 0, len(d.meters))
	for _, m := range d.meters {
		out = append(out, d.info(m))
	}
	return out
}

// Specs returns the meters as config entries with their live geometry.
func (d *Deck) Specs() []config.MeterSpec {
	out := make([]config.MeterSpec, 0, len(d.meters))
	for _, m := range d.meters {
		out = append(out, m.spec())
	}
	return out
}

// Shutdown closes every meter.
func (d *Deck) Shutdown() {
	for _, m := range append([]*Meter(nil), d.meters...) {
		d.forget(m)
		m.surface.Destroy()
	}
}

func (d *Deck) info(m *Meter) MeterInfo {
	b := m.Bounds()
	info := MeterInfo{
		ID:       m.id,
		Window:   uint32(m.ID()),
		Strike:   m.state.Strike,
		Right:    m.state.Right,
		Expiry:   m.state.Expiry,
		Inverted: m.state.Inverted,
		X:        b.X,
		Y:        b.Y,
		Width:    b.Width,
		Height:   b.Height,
		Tally:    m.state.Tally,
	}
	for wid, side := range d.registry.Attachments(m.ID()) {
		other := d.byWindow(wid)
		if other == nil {
			continue
		}
		if info.Attached == nil {
			info.Attached = make(map[string]string)
		}
		info.Attached[other.id] = side.String()
	}
	return info
}

// find resolves id exactly or as a unique prefix.
func (d *Deck) find(id string) (*Meter, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: empty id", ErrUnknownMeter)
	}
	if m := d.lookup(id); m != nil {
		return m, nil
	}

	var match *Meter
	for _, m := range d.meters {
		if strings.HasPrefix(m.id, id) {
			if match != nil {
				return nil, fmt.Errorf("meter id %q is ambiguous", id)
			}
			match = m
		}
	}
	if match == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMeter, id)
	}
	return match, nil
}

func (d *Deck) lookup(id string) *Meter {
	for _, m := range d.meters {
		if m.id == id {
			return m
		}
	}
	return nil
}

func (d *Deck) byWindow(wid platform.WindowID) *Meter {
	for _, m := range d.meters {
		if m.ID() == wid {
			return m
		}
	}
	return nil
}

func title(st meter.State) string {
	return fmt.Sprintf("meterdeck %s %s", meter.FormatStrike(st.Strike), st.Right)
}
