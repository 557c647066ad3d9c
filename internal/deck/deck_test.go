package deck

import (
	"context"
	"errors"
	"testing"

	"github.com/1broseidon/meterdeck/internal/config"
	"github.com/1broseidon/meterdeck/internal/feed"
	"github.com/1broseidon/meterdeck/internal/meter"
	"github.com/1broseidon/meterdeck/internal/platform"
	"github.com/1broseidon/meterdeck/internal/snap"
)

type fakeSurface struct {
	id        platform.WindowID
	rect      platform.Rect
	opts      platform.SurfaceOptions
	h         platform.SurfaceHandlers
	view      meter.View
	paints    int
	destroyed bool
}

func (s *fakeSurface) ID() platform.WindowID { return s.id }
func (s *fakeSurface) Bounds() platform.Rect { return s.rect }

func (s *fakeSurface) Move(x, y int) error {
	if s.destroyed {
		return errors.New("destroyed")
	}
	s.rect.X, s.rect.Y = x, y
	return nil
}

func (s *fakeSurface) Paint(v meter.View) error {
	s.view = v
	s.paints++
	return nil
}

func (s *fakeSurface) Destroy() { s.destroyed = true }

// drag simulates a user drag ending at (x, y).
func (s *fakeSurface) drag(x, y int) {
	s.rect.X, s.rect.Y = x, y
	s.h.OnMove()
}

func (s *fakeSurface) resize(w, h int) {
	s.rect.Width, s.rect.Height = w, h
	s.h.OnResize()
}

type fakeBackend struct {
	next     platform.WindowID
	surfaces []*fakeSurface
	keys     map[string]func()
	area     platform.Rect
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		next: 100,
		keys: make(map[string]func()),
		area: platform.Rect{X: 0, Y: 30, Width: 1920, Height: 1050},
	}
}

func (b *fakeBackend) CreateSurface(bounds platform.Rect, opts platform.SurfaceOptions, h platform.SurfaceHandlers) (platform.Surface, error) {
	b.next++
	s := &fakeSurface{id: b.next, rect: bounds, opts: opts, h: h}
	b.surfaces = append(b.surfaces, s)
	return s, nil
}

func (b *fakeBackend) Dispatch(fn func()) { fn() }

func (b *fakeBackend) BindKey(seq string, fn func()) error {
	b.keys[seq] = fn
	return nil
}

func (b *fakeBackend) WorkArea() (platform.Rect, error) { return b.area, nil }

func (b *fakeBackend) EventLoop(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func (b *fakeBackend) Disconnect() {}

func newTestDeck(t *testing.T, specs ...config.MeterSpec) (*Deck, *fakeBackend) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Meters = specs
	b := newFakeBackend()
	d := New(b, snap.NewRegistry(snap.WithDistance(cfg.SnapDistance)), cfg, nil)
	if err := d.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	return d, b
}

func TestStartCreatesDefaultMeter(t *testing.T) {
	d, b := newTestDeck(t)

	meters := d.Meters()
	if len(meters) != 1 {
		t.Fatalf("expected one default meter, got %d", len(meters))
	}
	m := meters[0]
	if m.Strike != DefaultStrike || m.Right != meter.RightCall {
		t.Fatalf("unexpected default meter %+v", m)
	}
	if m.Width != config.DefaultMeterWidth || m.Height != config.DefaultMeterHeight {
		t.Fatalf("unexpected default size %dx%d", m.Width, m.Height)
	}
	if m.X != b.area.X+placeMargin || m.Y != b.area.Y+placeMargin {
		t.Fatalf("expected placement inside work area, got (%d,%d)", m.X, m.Y)
	}
	if b.surfaces[0].paints == 0 {
		t.Fatalf("expected meter to be painted")
	}
	if len(b.keys) != 2 {
		t.Fatalf("expected two hotkeys bound, got %v", b.keys)
	}
}

func TestStartCreatesConfiguredMeters(t *testing.T) {
	d, _ := newTestDeck(t,
		config.MeterSpec{ID: "a", Strike: 5900, Right: meter.RightCall, X: 100, Y: 100, Width: 60, Height: 180},
		config.MeterSpec{ID: "b", Strike: 5905, Right: meter.RightPut, X: 300, Y: 100, Width: 60, Height: 180, Inverted: true},
	)

	specs := d.Specs()
	if len(specs) != 2 || specs[0].ID != "a" || specs[1].ID != "b" {
		t.Fatalf("unexpected specs %+v", specs)
	}
	if !specs[1].Inverted || specs[1].Right != meter.RightPut {
		t.Fatalf("meter b lost its state: %+v", specs[1])
	}
}

func TestStartAppliesSnapDisabled(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.SnapEnabled = false
	d := New(newFakeBackend(), snap.NewRegistry(), cfg, nil)
	if err := d.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if d.SnapEnabled() {
		t.Fatalf("expected snapping disabled")
	}
}

func TestStartReattachesRestoredFlushMeters(t *testing.T) {
	d, b := newTestDeck(t,
		config.MeterSpec{ID: "a", Strike: 5900, Right: meter.RightCall, X: 100, Y: 100, Width: 60, Height: 180},
		config.MeterSpec{ID: "b", Strike: 5905, Right: meter.RightCall, X: 160, Y: 100, Width: 60, Height: 180},
	)
	info := d.Meters()
	if info[0].Attached["b"] != "right" || info[1].Attached["a"] != "left" {
		t.Fatalf("expected restored meters attached, got a=%v b=%v", info[0].Attached, info[1].Attached)
	}

	a, bb := b.surfaces[0], b.surfaces[1]
	bb.drag(600, 500)
	if a.rect.X != 540 || a.rect.Y != 500 {
		t.Fatalf("expected a to follow to (540,500), got (%d,%d)", a.rect.X, a.rect.Y)
	}
}

func TestStartKeepsRestoredMeterAtOrigin(t *testing.T) {
	d, _ := newTestDeck(t, config.MeterSpec{ID: "a", Strike: 5900, Right: meter.RightCall, X: 0, Y: 0})
	if m := d.Meters()[0]; m.X != 0 || m.Y != 0 {
		t.Fatalf("expected restored meter to stay at (0,0), got (%d,%d)", m.X, m.Y)
	}
}

func TestSurfaceOptionsFollowConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.AlwaysOnTop = false
	cfg.BorderWidth = 3
	b := newFakeBackend()
	d := New(b, snap.NewRegistry(), cfg, nil)
	if err := d.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	s := b.surfaces[0]
	if s.opts.AlwaysOnTop || s.opts.BorderWidth != 3 || s.opts.Title == "" {
		t.Fatalf("unexpected surface options %+v", s.opts)
	}
	// The layout covers the area inside the border.
	if s.view.Width != s.rect.Width-6 || s.view.Height != s.rect.Height-6 {
		t.Fatalf("expected view inside border, got %dx%d for %dx%d", s.view.Width, s.view.Height, s.rect.Width, s.rect.Height)
	}
}

func TestDragSnapsAndNeighbourFollows(t *testing.T) {
	d, b := newTestDeck(t,
		config.MeterSpec{ID: "a", Strike: 5900, Right: meter.RightCall, X: 100, Y: 100, Width: 60, Height: 180},
		config.MeterSpec{ID: "b", Strike: 5905, Right: meter.RightCall, X: 400, Y: 100, Width: 60, Height: 180},
	)
	a, bb := b.surfaces[0], b.surfaces[1]

	// Drop a just left of b.
	a.drag(335, 104)
	if a.rect.X != 340 || a.rect.Y != 100 {
		t.Fatalf("expected a flush at (340,100), got (%d,%d)", a.rect.X, a.rect.Y)
	}
	info := d.Meters()
	if info[0].Attached["b"] != "right" || info[1].Attached["a"] != "left" {
		t.Fatalf("unexpected attachments a=%v b=%v", info[0].Attached, info[1].Attached)
	}

	// Dragging b carries a along.
	bb.drag(600, 500)
	if a.rect.X != 540 || a.rect.Y != 500 {
		t.Fatalf("expected a to follow to (540,500), got (%d,%d)", a.rect.X, a.rect.Y)
	}
}

func TestResizeRepaintsAndPropagates(t *testing.T) {
	d, b := newTestDeck(t,
		config.MeterSpec{ID: "a", Strike: 5900, Right: meter.RightCall, X: 100, Y: 100, Width: 60, Height: 180},
		config.MeterSpec{ID: "b", Strike: 5905, Right: meter.RightCall, X: 165, Y: 100, Width: 60, Height: 180},
	)
	a, bb := b.surfaces[0], b.surfaces[1]
	a.drag(100, 100)
	if got := d.Meters()[0].Attached["b"]; got != "right" {
		t.Fatalf("expected a attached to b on the right, got %q", got)
	}
	// The drag snapped a against b.
	if a.rect.X != 105 {
		t.Fatalf("expected a at x=105, got %d", a.rect.X)
	}

	before := a.paints
	a.resize(80, 200)
	if a.paints != before+1 || a.view.Width != 80 {
		t.Fatalf("expected repaint at new size, paints=%d view=%dx%d", a.paints, a.view.Width, a.view.Height)
	}
	if bb.rect.X != a.rect.X+80 {
		t.Fatalf("expected b to stay flush at x=%d, got %d", a.rect.X+80, bb.rect.X)
	}
}

func TestCloseMeterUnregistersAndDestroys(t *testing.T) {
	d, b := newTestDeck(t,
		config.MeterSpec{ID: "a", Strike: 5900, Right: meter.RightCall, X: 100, Y: 100, Width: 60, Height: 180},
		config.MeterSpec{ID: "b", Strike: 5905, Right: meter.RightCall, X: 160, Y: 100, Width: 60, Height: 180},
	)
	b.surfaces[0].drag(100, 100)

	if err := d.CloseMeter("b"); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !b.surfaces[1].destroyed {
		t.Fatalf("expected surface destroyed")
	}
	info := d.Meters()
	if len(info) != 1 || len(info[0].Attached) != 0 {
		t.Fatalf("expected lone unattached meter, got %+v", info)
	}
	if err := d.CloseMeter("b"); !errors.Is(err, ErrUnknownMeter) {
		t.Fatalf("expected ErrUnknownMeter on second close, got %v", err)
	}
}

func TestExternalDestroyForgetsMeter(t *testing.T) {
	d, b := newTestDeck(t)
	b.surfaces[0].h.OnClose()
	if len(d.Meters()) != 0 {
		t.Fatalf("expected meter forgotten after close hook")
	}
}

func TestHeaderButtons(t *testing.T) {
	d, b := newTestDeck(t, config.MeterSpec{ID: "a", Strike: 5900, Right: meter.RightCall, X: 10, Y: 10})
	s := b.surfaces[0]

	d.ApplyTrade(feed.Trade{Strike: 5900, Right: meter.RightCall, Size: 4, Aggressor: meter.Buy})
	s.h.OnButton(meter.ButtonInvert)
	s.h.OnButton(meter.ButtonReset)

	m := d.Meters()[0]
	if !m.Inverted || m.Tally.Total() != 0 {
		t.Fatalf("expected inverted and reset meter, got %+v", m)
	}

	s.h.OnButton(meter.ButtonToggleRight)
	if got := d.Meters()[0].Right; got != meter.RightPut {
		t.Fatalf("expected PUT after toggle, got %s", got)
	}

	s.h.OnButton(meter.ButtonClose)
	if len(d.Meters()) != 0 || !s.destroyed {
		t.Fatalf("expected close button to close the meter")
	}
}

func TestApplyTradeRoutesByContract(t *testing.T) {
	d, _ := newTestDeck(t,
		config.MeterSpec{ID: "call", Strike: 5900, Right: meter.RightCall, X: 10, Y: 10},
		config.MeterSpec{ID: "put", Strike: 5900, Right: meter.RightPut, X: 100, Y: 10},
		config.MeterSpec{ID: "dated", Strike: 5900, Right: meter.RightCall, Expiry: "2026-10-16", X: 200, Y: 10},
	)

	n := d.ApplyTrade(feed.Trade{Strike: 5900, Right: meter.RightCall, Expiry: "2026-10-17", Size: 3, Aggressor: meter.Sell})
	if n != 1 {
		t.Fatalf("expected one match, got %d", n)
	}
	n = d.ApplyTrade(feed.Trade{Strike: 5900, Right: meter.RightCall, Size: 2, Aggressor: meter.Buy})
	if n != 2 {
		t.Fatalf("expected two matches, got %d", n)
	}

	got := map[string]meter.Tally{}
	for _, m := range d.Meters() {
		got[m.ID] = m.Tally
	}
	if got["call"] != (meter.Tally{Buy: 2, Sell: 3}) {
		t.Fatalf("call tally = %+v", got["call"])
	}
	if got["put"].Total() != 0 {
		t.Fatalf("put tally = %+v", got["put"])
	}
	if got["dated"] != (meter.Tally{Buy: 2}) {
		t.Fatalf("dated tally = %+v", got["dated"])
	}
}

func TestSetStrikeResetsTally(t *testing.T) {
	d, _ := newTestDeck(t, config.MeterSpec{ID: "a", Strike: 5900, Right: meter.RightCall, X: 10, Y: 10})
	d.ApplyTrade(feed.Trade{Strike: 5900, Right: meter.RightCall, Size: 1, Aggressor: meter.Buy})

	if err := d.SetStrike("a", 5910); err != nil {
		t.Fatalf("set strike: %v", err)
	}
	m := d.Meters()[0]
	if m.Strike != 5910 || m.Tally.Total() != 0 {
		t.Fatalf("unexpected meter %+v", m)
	}
	if err := d.SetStrike("a", 0); err == nil {
		t.Fatalf("expected error for zero strike")
	}
}

func TestToggleSnapClearsAttachments(t *testing.T) {
	d, b := newTestDeck(t,
		config.MeterSpec{ID: "a", Strike: 5900, Right: meter.RightCall, X: 100, Y: 100, Width: 60, Height: 180},
		config.MeterSpec{ID: "b", Strike: 5905, Right: meter.RightCall, X: 160, Y: 100, Width: 60, Height: 180},
	)
	b.surfaces[0].drag(100, 100)

	if on := d.ToggleSnap(); on {
		t.Fatalf("expected snapping off after toggle")
	}
	if len(d.Meters()[0].Attached) != 0 {
		t.Fatalf("expected attachments cleared")
	}
	b.keys[d.cfg.ToggleSnapHotkey]()
	if !d.SnapEnabled() || d.Meters()[0].Attached["b"] != "right" {
		t.Fatalf("expected hotkey to re-enable and re-attach, got %+v", d.Meters()[0])
	}
}

func TestAddMeterHotkeyAndIDs(t *testing.T) {
	d, b := newTestDeck(t)
	b.keys[d.cfg.AddMeterHotkey]()

	meters := d.Meters()
	if len(meters) != 2 {
		t.Fatalf("expected two meters, got %d", len(meters))
	}
	if meters[0].ID == meters[1].ID || len(meters[0].ID) != 36 {
		t.Fatalf("expected distinct UUIDs, got %q and %q", meters[0].ID, meters[1].ID)
	}
	if meters[1].X != meters[0].X+placeStep {
		t.Fatalf("expected cascading placement, got x=%d then x=%d", meters[0].X, meters[1].X)
	}

	if _, err := d.AddMeter(config.MeterSpec{ID: meters[0].ID}); err == nil {
		t.Fatalf("expected duplicate id error")
	}
}

func TestFindByPrefix(t *testing.T) {
	d, _ := newTestDeck(t,
		config.MeterSpec{ID: "abc1", Strike: 1, Right: meter.RightCall, X: 10, Y: 10},
		config.MeterSpec{ID: "abd2", Strike: 2, Right: meter.RightCall, X: 100, Y: 10},
	)

	if err := d.ResetMeter("abd2"); err != nil {
		t.Fatalf("exact id: %v", err)
	}
	if err := d.InvertMeter("ab"); err == nil {
		t.Fatalf("expected ambiguous prefix error")
	}
	if err := d.InvertMeter("abc"); err != nil {
		t.Fatalf("unique prefix: %v", err)
	}
	if !d.Meters()[0].Inverted {
		t.Fatalf("expected abc1 inverted")
	}
	if err := d.ResetMeter(""); !errors.Is(err, ErrUnknownMeter) {
		t.Fatalf("expected ErrUnknownMeter for empty id, got %v", err)
	}
}

func TestReloadAppliesSnapSettings(t *testing.T) {
	d, _ := newTestDeck(t)
	cfg := config.DefaultConfig()
	cfg.SnapEnabled = false
	cfg.SnapDistance = 20

	d.Reload(cfg)
	if d.SnapEnabled() || d.SnapDistance() != 20 {
		t.Fatalf("expected snap off at distance 20, got %v/%d", d.SnapEnabled(), d.SnapDistance())
	}
}

func TestShutdownDestroysEverything(t *testing.T) {
	d, b := newTestDeck(t,
		config.MeterSpec{ID: "a", Strike: 1, Right: meter.RightCall, X: 10, Y: 10},
		config.MeterSpec{ID: "b", Strike: 2, Right: meter.RightCall, X: 100, Y: 10},
	)
	d.Shutdown()
	if len(d.Meters()) != 0 {
		t.Fatalf("expected no meters after shutdown")
	}
	for _, s := range b.surfaces {
		if !s.destroyed {
			t.Fatalf("surface %d not destroyed", s.id)
		}
	}
}
