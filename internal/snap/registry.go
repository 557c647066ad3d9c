// Package snap keeps a set of top-level windows edge-aligned.
//
// A Registry tracks every live window and which of them are attached to
// which. When a window is dropped within the snap distance of another
// window's edge it is moved flush against that edge and the pair is
// attached. Later moves and resizes of a window reposition its direct
// neighbours so they stay flush.
//
// Propagation is one hop: only the windows attached directly to the window
// that changed are moved. A neighbour's own attachments are not followed,
// because its move hook is suppressed while a propagation is running.
//
// A Registry is not safe for concurrent use. All calls are expected on the
// goroutine that dispatches window events.
package snap

import (
	"fmt"
	"log/slog"

	"github.com/1broseidon/meterdeck/internal/platform"
)

// DefaultDistance is the default snap threshold in pixels.
const DefaultDistance = 10

// Window is the part of a host window the registry needs.
type Window interface {
	ID() platform.WindowID
	Bounds() platform.Rect
	Move(x, y int) error
}

// Option configures a Registry.
type Option func(*Registry)

// WithDistance sets the snap threshold. Non-positive values are ignored.
func WithDistance(d int) Option {
	return func(r *Registry) {
		if d > 0 {
			r.distance = d
		}
	}
}

// WithLogger sets the logger used for snap and propagation diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// Registry is the set of snappable windows and their attachment graph.
type Registry struct {
	windows  []Window
	graph    *Graph
	enabled  bool
	distance int
	logger   *slog.Logger

	// propagating is held for the duration of Propagate; snapping for the
	// duration of the single move CheckSnap makes. Move hooks fired while
	// either is set are dropped.
	propagating bool
	snapping    bool
}

// NewRegistry returns an enabled registry with no windows.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		graph:    NewGraph(),
		enabled:  true,
		distance: DefaultDistance,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds w. Registering the same window twice is a no-op.
func (r *Registry) Register(w Window) {
	if r.indexOf(w.ID()) >= 0 {
		return
	}
	r.windows = append(r.windows, w)
}

// Unregister removes w and every attachment that references it. Unknown
// windows are ignored.
func (r *Registry) Unregister(w Window) {
	id := w.ID()
	r.graph.Remove(id)
	if i := r.indexOf(id); i >= 0 {
		r.windows = append(r.windows[:i], r.windows[i+1:]...)
	}
}

// IsEnabled reports whether snapping is active.
func (r *Registry) IsEnabled() bool { return r.enabled }

// SetEnabled turns snapping on or off. Disabling forgets all attachments
// but leaves windows where they are. Enabling runs CheckSnap once for each
// window in registration order so windows that are already flush
// re-attach.
func (r *Registry) SetEnabled(on bool) {
	if on == r.enabled {
		return
	}
	r.enabled = on
	if !on {
		r.graph.Clear()
		r.logger.Debug("snapping disabled, attachments cleared")
		return
	}

	for _, w := range r.Windows() {
		if err := r.CheckSnap(w); err != nil {
			r.logger.Warn("re-snap failed", "window", w.ID(), "error", err)
		}
	}
	r.logger.Debug("snapping enabled", "windows", len(r.windows))
}

// Distance returns the snap threshold.
func (r *Registry) Distance() int { return r.distance }

// SetDistance changes the snap threshold. Non-positive values are ignored.
// Existing attachments are kept.
func (r *Registry) SetDistance(d int) {
	if d > 0 {
		r.distance = d
	}
}

// Len returns the number of registered windows.
func (r *Registry) Len() int { return len(r.windows) }

// Windows returns the registered windows in registration order.
func (r *Registry) Windows() []Window {
	out := make([]Window, len(r.windows))
	copy(out, r.windows)
	return out
}

// Attachments returns a copy of the neighbours attached to id.
func (r *Registry) Attachments(id platform.WindowID) map[platform.WindowID]Side {
	return r.graph.Neighbors(id)
}

// CheckSnap looks for the first registered window w can snap to, moves w
// flush against it and attaches the pair. Candidates are tried in
// registration order and, for each candidate, edges in the order right,
// left, top, bottom (the edge of w that would touch). At most one
// attachment is made per call.
func (r *Registry) CheckSnap(w Window) error {
	if !r.enabled || r.indexOf(w.ID()) < 0 {
		return nil
	}

	b := w.Bounds()
	for _, other := range r.windows {
		if other.ID() == w.ID() {
			continue
		}
		side, x, y, ok := match(b, other.Bounds(), r.distance)
		if !ok {
			continue
		}
		if err := r.snapMove(w, b, x, y); err != nil {
			return fmt.Errorf("snap window %d to %d: %w", w.ID(), other.ID(), err)
		}
		r.graph.Attach(w.ID(), other.ID(), side)
		r.logger.Debug("window snapped",
			"window", w.ID(),
			"neighbor", other.ID(),
			"side", side.String(),
			"x", x, "y", y)
		return nil
	}
	return nil
}

func (r *Registry) snapMove(w Window, cur platform.Rect, x, y int) error {
	if cur.X == x && cur.Y == y {
		return nil
	}
	r.snapping = true
	defer func() { r.snapping = false }()
	return w.Move(x, y)
}

// Propagate moves every window attached directly to src so it stays flush
// with src's current geometry. It returns immediately when a propagation is
// already running. Neighbours that fail to move are skipped.
func (r *Registry) Propagate(src Window) {
	if r.propagating {
		return
	}
	r.propagating = true
	defer func() { r.propagating = false }()

	sb := src.Bounds()
	for _, n := range r.windows {
		side, ok := r.graph.Side(src.ID(), n.ID())
		if !ok {
			continue
		}
		x, y := flushPosition(sb, n.Bounds(), side)
		if err := n.Move(x, y); err != nil {
			r.logger.Debug("propagate move failed", "window", n.ID(), "source", src.ID(), "error", err)
		}
	}
}

// HandleMove is the move hook for a user-driven move of w.
func (r *Registry) HandleMove(w Window) {
	if !r.enabled || r.busy() {
		return
	}
	if err := r.CheckSnap(w); err != nil {
		r.logger.Warn("snap failed", "window", w.ID(), "error", err)
	}
	r.Propagate(w)
}

// HandleResize is the resize hook for w. Resizing never creates new
// attachments.
func (r *Registry) HandleResize(w Window) {
	if !r.enabled || r.busy() {
		return
	}
	r.Propagate(w)
}

// HandleClose is the close hook for w.
func (r *Registry) HandleClose(w Window) {
	r.Unregister(w)
}

func (r *Registry) busy() bool {
	return r.propagating || r.snapping
}

func (r *Registry) indexOf(id platform.WindowID) int {
	for i, w := range r.windows {
		if w.ID() == id {
			return i
		}
	}
	return -1
}

// match tests the four alignments of w against o in priority order and
// returns the side of w that would touch o and w's snapped origin.
func match(w, o platform.Rect, d int) (Side, int, int, bool) {
	// w's right edge against o's left edge.
	if abs(o.X-w.Right()) <= d && abs(o.Y-w.Y) <= d {
		return Right, o.X - w.Width, o.Y, true
	}
	// w's left edge against o's right edge.
	if abs(w.X-o.Right()) <= d && abs(o.Y-w.Y) <= d {
		return Left, o.Right(), o.Y, true
	}
	// w's top edge against o's bottom edge.
	if abs(w.Y-o.Bottom()) <= d && abs(o.X-w.X) <= d {
		return Top, o.X, o.Bottom(), true
	}
	// w's bottom edge against o's top edge.
	if abs(o.Y-w.Bottom()) <= d && abs(o.X-w.X) <= d {
		return Bottom, o.X, o.Y - w.Height, true
	}
	return 0, 0, 0, false
}

// flushPosition returns where n goes so that the given side of src touches it.
func flushPosition(src, n platform.Rect, side Side) (int, int) {
	switch side {
	case Right:
		return src.Right(), src.Y
	case Left:
		return src.X - n.Width, src.Y
	case Top:
		return src.X, src.Y - n.Height
	default:
		return src.X, src.Bottom()
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
