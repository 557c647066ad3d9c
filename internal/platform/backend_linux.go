//go:build linux

package platform

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/1broseidon/meterdeck/internal/hotkeys"
	"github.com/1broseidon/meterdeck/internal/meter"
	"github.com/1broseidon/meterdeck/internal/x11"
)

// LinuxBackend wraps an X11 connection behind the platform Backend interface.
type LinuxBackend struct {
	conn *x11.Connection
	keys *hotkeys.Handler
}

var _ Backend = (*LinuxBackend)(nil)

// NewLinuxBackend creates a Linux platform backend from an existing X11 connection.
func NewLinuxBackend(conn *x11.Connection) *LinuxBackend {
	return &LinuxBackend{conn: conn, keys: hotkeys.NewHandler(conn.XUtil)}
}

// NewLinuxBackendFromDisplay opens a new X11 connection to display, or
// $DISPLAY when display is empty.
func NewLinuxBackendFromDisplay(display string, logger *slog.Logger) (*LinuxBackend, error) {
	conn, err := x11.NewConnection(display)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11: %w", err)
	}
	if logger != nil {
		conn.Logger = logger
	}
	return NewLinuxBackend(conn), nil
}

// Disconnect closes the underlying X11 connection.
func (b *LinuxBackend) Disconnect() {
	if b != nil && b.conn != nil {
		b.conn.Close()
	}
}

// EventLoop runs the X11 event loop until ctx is cancelled.
func (b *LinuxBackend) EventLoop(ctx context.Context) error {
	return b.conn.EventLoop(ctx)
}

func (b *LinuxBackend) Dispatch(fn func()) {
	b.conn.Dispatch(fn)
}

func (b *LinuxBackend) BindKey(keySequence string, fn func()) error {
	return b.keys.RegisterFunc(keySequence, fn)
}

func (b *LinuxBackend) WorkArea() (Rect, error) {
	a, err := b.conn.PointerArea()
	if err != nil {
		return Rect{}, err
	}
	return Rect{X: a.X, Y: a.Y, Width: a.Width, Height: a.Height}, nil
}

func (b *LinuxBackend) CreateSurface(bounds Rect, opts SurfaceOptions, h SurfaceHandlers) (Surface, error) {
	style := x11.SurfaceStyle{
		Title:       opts.Title,
		AlwaysOnTop: opts.AlwaysOnTop,
		BorderWidth: opts.BorderWidth,
	}
	s, err := x11.NewSurface(b.conn, bounds.X, bounds.Y, bounds.Width, bounds.Height, style, x11.SurfaceHooks{
		OnMove:    h.OnMove,
		OnResize:  h.OnResize,
		OnButton:  h.OnButton,
		OnDestroy: h.OnClose,
	})
	if err != nil {
		return nil, err
	}
	return &linuxSurface{s: s}, nil
}

type linuxSurface struct {
	s *x11.Surface
}

func (l *linuxSurface) ID() WindowID { return WindowID(l.s.ID()) }

func (l *linuxSurface) Bounds() Rect {
	x, y, w, h := l.s.Geometry()
	return Rect{X: x, Y: y, Width: w, Height: h}
}

func (l *linuxSurface) Move(x, y int) error { return l.s.Move(x, y) }

func (l *linuxSurface) Paint(view meter.View) error { return l.s.Paint(view) }

func (l *linuxSurface) Destroy() { l.s.Destroy() }
