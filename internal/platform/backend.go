package platform

import (
	"context"

	"github.com/1broseidon/meterdeck/internal/meter"
)

// WindowID is a platform-neutral window identifier.
type WindowID uint32

// Rect describes a rectangular region in screen coordinates.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Right returns the x coordinate just past the right edge.
func (r Rect) Right() int { return r.X + r.Width }

// Bottom returns the y coordinate just past the bottom edge.
func (r Rect) Bottom() int { return r.Y + r.Height }

// SurfaceHandlers are the lifecycle hooks a backend fires for a surface.
// All hooks run on the UI goroutine. Move and Resize fire only for
// user-driven geometry changes, never for Surface.Move calls.
type SurfaceHandlers struct {
	OnMove   func()
	OnResize func()
	OnClose  func()
	OnButton func(meter.Button)
}

// SurfaceOptions are the per-window settings fixed at creation.
type SurfaceOptions struct {
	Title string
	// AlwaysOnTop keeps the surface stacked above other windows.
	AlwaysOnTop bool
	// BorderWidth is drawn outside the content area. Bounds include it.
	BorderWidth int
}

// Surface is a top-level meter window owned by a backend.
type Surface interface {
	ID() WindowID
	Bounds() Rect
	Move(x, y int) error
	Paint(view meter.View) error
	Destroy()
}

// Backend abstracts window-system operations across platforms.
type Backend interface {
	// CreateSurface creates and maps a new surface with the given bounds.
	CreateSurface(bounds Rect, opts SurfaceOptions, h SurfaceHandlers) (Surface, error)
	// Dispatch schedules fn on the UI goroutine. It does not wait for fn
	// to run.
	Dispatch(fn func())
	// BindKey registers a global key sequence such as "Mod4-Shift-s".
	BindKey(keySequence string, fn func()) error
	// WorkArea is the usable area of the display the pointer is on. New
	// meters without a stored position are placed inside it.
	WorkArea() (Rect, error)
	// EventLoop runs the UI goroutine until ctx is cancelled or the
	// connection is lost.
	EventLoop(ctx context.Context) error
	Disconnect()
}
