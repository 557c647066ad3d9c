package x11

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/mousebind"
	"github.com/BurntSushi/xgbutil/xcursor"
	"github.com/BurntSushi/xgbutil/xevent"

	"github.com/1broseidon/meterdeck/internal/meter"
)

// SurfaceHooks are called on the event loop goroutine for user actions on a
// surface. OnMove and OnResize fire for each drag step and never for
// Surface.Move.
type SurfaceHooks struct {
	OnMove    func()
	OnResize  func()
	OnButton  func(meter.Button)
	OnDestroy func()
}

// SurfaceStyle holds the settings fixed when a surface is created.
type SurfaceStyle struct {
	Title       string
	AlwaysOnTop bool
	BorderWidth int
}

// Surface is an override-redirect meter window. The window manager never
// sees it, so the daemon owns its geometry and the cached bounds are
// authoritative.
type Surface struct {
	conn  *Connection
	win   xproto.Window
	gc    xproto.Gcontext
	hooks SurfaceHooks

	// x, y is the outer corner; width, height exclude the border.
	x, y, width, height int
	border              int
	onTop               bool
	view                meter.View

	drag      dragState
	destroyed bool
}

type dragState struct {
	offX, offY     int // pointer offset inside the window at move start
	rootX, rootY   int // pointer position at resize start
	startW, startH int
}

// NewSurface creates and maps a surface at the given geometry.
func NewSurface(c *Connection, x, y, width, height int, style SurfaceStyle, hooks SurfaceHooks) (*Surface, error) {
	border := max(style.BorderWidth, 0)
	width, height = clampSize(width-2*border, height-2*border)

	conn := c.XUtil.Conn()
	screen := c.XUtil.Screen()

	wid, err := xproto.NewWindowId(conn)
	if err != nil {
		return nil, fmt.Errorf("allocate window id: %w", err)
	}

	mask, values := windowAttributes()
	err = xproto.CreateWindowChecked(
		conn,
		screen.RootDepth,
		wid,
		c.Root,
		int16(x), int16(y),
		uint16(width), uint16(height),
		uint16(border),
		xproto.WindowClassInputOutput,
		screen.RootVisual,
		mask,
		values,
	).Check()
	if err != nil {
		return nil, fmt.Errorf("create window: %w", err)
	}

	font, err := c.labelFont()
	if err != nil {
		xproto.DestroyWindow(conn, wid)
		return nil, err
	}

	gc, err := xproto.NewGcontextId(conn)
	if err != nil {
		xproto.DestroyWindow(conn, wid)
		return nil, fmt.Errorf("allocate gc id: %w", err)
	}
	err = xproto.CreateGCChecked(
		conn,
		gc,
		xproto.Drawable(wid),
		xproto.GcForeground|xproto.GcBackground|xproto.GcFont|xproto.GcGraphicsExposures,
		[]uint32{meter.ColorText, meter.ColorHeaderBg, uint32(font), 0},
	).Check()
	if err != nil {
		xproto.DestroyWindow(conn, wid)
		return nil, fmt.Errorf("create gc: %w", err)
	}

	s := &Surface{
		conn:   c,
		win:    wid,
		gc:     gc,
		hooks:  hooks,
		x:      x,
		y:      y,
		width:  width,
		height: height,
		border: border,
		onTop:  style.AlwaysOnTop,
	}

	// Naming only helps xprop/xdotool find the window.
	classErr := icccm.WmClassSet(c.XUtil, wid, &icccm.WmClass{Instance: "meterdeck", Class: "Meterdeck"})
	nameErr := ewmh.WmNameSet(c.XUtil, wid, style.Title)
	if err := windowNameError(classErr, nameErr); err != nil {
		c.Logger.Debug("window naming failed", "window", uint32(wid), "error", err)
	}

	s.bind()
	xproto.MapWindow(conn, wid)
	s.raise()
	return s, nil
}

func (s *Surface) bind() {
	xu := s.conn.XUtil

	xevent.ExposeFun(func(_ *xgbutil.XUtil, ev xevent.ExposeEvent) {
		if ev.Count == 0 {
			s.draw()
		}
	}).Connect(xu, s.win)

	xevent.DestroyNotifyFun(func(_ *xgbutil.XUtil, _ xevent.DestroyNotifyEvent) {
		if s.destroyed {
			return
		}
		s.conn.Later(func() {
			s.release()
			if s.hooks.OnDestroy != nil {
				s.hooks.OnDestroy()
			}
		})
	}).Connect(xu, s.win)

	mousebind.Drag(xu, s.win, s.win, "1", true, s.moveBegin, s.moveStep, s.moveStep)
	mousebind.Drag(xu, s.win, s.win, "3", true, s.resizeBegin, s.resizeStep, s.resizeStep)
}

// ID returns the X window id.
func (s *Surface) ID() uint32 { return uint32(s.win) }

// Geometry returns the window's root-relative position and outer size,
// border included.
func (s *Surface) Geometry() (x, y, width, height int) {
	w, h := outerSize(s.width, s.height, s.border)
	return s.x, s.y, w, h
}

// Move places the window at (x, y) without firing OnMove.
func (s *Surface) Move(x, y int) error {
	if s.destroyed {
		return fmt.Errorf("window %d is destroyed", s.win)
	}
	s.setPosition(x, y)
	return nil
}

// Paint stores view and draws it.
func (s *Surface) Paint(view meter.View) error {
	if s.destroyed {
		return fmt.Errorf("window %d is destroyed", s.win)
	}
	s.view = view
	s.draw()
	return nil
}

// Destroy unmaps and frees the window. It is safe to call more than once.
func (s *Surface) Destroy() {
	if s.destroyed {
		return
	}
	s.release()
	xproto.DestroyWindow(s.conn.XUtil.Conn(), s.win)
}

func (s *Surface) release() {
	s.destroyed = true
	xu := s.conn.XUtil
	mousebind.Detach(xu, s.win)
	xevent.Detach(xu, s.win)
	xproto.FreeGC(xu.Conn(), s.gc)
}

func (s *Surface) setPosition(x, y int) {
	s.x, s.y = x, y
	mask, values := positionRequest(x, y, s.onTop)
	xproto.ConfigureWindow(s.conn.XUtil.Conn(), s.win, mask, values)
}

func (s *Surface) setSize(width, height int) {
	s.width, s.height = clampSize(width, height)
	xproto.ConfigureWindow(
		s.conn.XUtil.Conn(),
		s.win,
		xproto.ConfigWindowWidth|xproto.ConfigWindowHeight,
		[]uint32{uint32(s.width), uint32(s.height)},
	)
}

func (s *Surface) raise() {
	if !s.onTop {
		return
	}
	xproto.ConfigureWindow(
		s.conn.XUtil.Conn(),
		s.win,
		xproto.ConfigWindowStackMode,
		[]uint32{xproto.StackModeAbove},
	)
}

func (s *Surface) draw() {
	if s.destroyed || s.view.Width == 0 {
		return
	}
	conn := s.conn.XUtil.Conn()
	d := xproto.Drawable(s.win)

	for _, f := range s.view.Fills {
		if f.Box.W <= 0 || f.Box.H <= 0 {
			continue
		}
		xproto.ChangeGC(conn, s.gc, xproto.GcForeground, []uint32{f.Color})
		xproto.PolyFillRectangle(conn, d, s.gc, []xproto.Rectangle{toRectangle(f.Box)})
	}

	for _, l := range s.view.Labels {
		text := l.Text
		if text == "" {
			continue
		}
		if len(text) > 255 {
			text = text[:255]
		}
		xproto.ChangeGC(conn, s.gc, xproto.GcForeground|xproto.GcBackground, []uint32{l.Color, l.Bg})
		xproto.ImageText8(conn, byte(len(text)), d, s.gc, int16(l.X), int16(l.Y), text)
	}
}

// moveBegin handles a button-1 press. Presses on a header control trigger
// the control instead of a drag.
func (s *Surface) moveBegin(_ *xgbutil.XUtil, rootX, rootY, eventX, eventY int) (bool, xproto.Cursor) {
	if b := s.view.HitTest(eventX, eventY); b != meter.ButtonNone {
		if s.hooks.OnButton != nil {
			s.conn.Later(func() { s.hooks.OnButton(b) })
		}
		return false, 0
	}
	s.raise()
	s.drag.offX, s.drag.offY = rootX-s.x, rootY-s.y
	return true, s.conn.cursor(xcursor.Fleur)
}

func (s *Surface) moveStep(_ *xgbutil.XUtil, rootX, rootY, _, _ int) {
	if s.destroyed {
		return
	}
	x, y := rootX-s.drag.offX, rootY-s.drag.offY
	if x == s.x && y == s.y {
		return
	}
	s.setPosition(x, y)
	if s.hooks.OnMove != nil {
		s.hooks.OnMove()
	}
}

func (s *Surface) resizeBegin(_ *xgbutil.XUtil, rootX, rootY, _, _ int) (bool, xproto.Cursor) {
	s.raise()
	s.drag.rootX, s.drag.rootY = rootX, rootY
	s.drag.startW, s.drag.startH = s.width, s.height
	return true, s.conn.cursor(xcursor.BottomRightCorner)
}

func (s *Surface) resizeStep(_ *xgbutil.XUtil, rootX, rootY, _, _ int) {
	if s.destroyed {
		return
	}
	w, h := resizeTarget(s.drag, rootX, rootY)
	if w == s.width && h == s.height {
		return
	}
	s.setSize(w, h)
	if s.hooks.OnResize != nil {
		s.hooks.OnResize()
	}
}

// resizeTarget is the clamped size for a resize drag that has reached
// (rootX, rootY).
func resizeTarget(d dragState, rootX, rootY int) (int, int) {
	return clampSize(d.startW+rootX-d.rootX, d.startH+rootY-d.rootY)
}

// windowAttributes is the CreateWindow value mask and list. Values follow
// the mask bit order: back pixel, border pixel, override redirect, event
// mask.
func windowAttributes() (uint32, []uint32) {
	mask := uint32(xproto.CwBackPixel | xproto.CwBorderPixel | xproto.CwOverrideRedirect | xproto.CwEventMask)
	return mask, []uint32{
		meter.ColorCanvasBg,
		meter.ColorHeaderBg,
		1,
		xproto.EventMaskExposure | xproto.EventMaskStructureNotify |
			xproto.EventMaskButtonPress | xproto.EventMaskButtonRelease,
	}
}

// positionRequest is the ConfigureWindow request that moves a surface,
// restacking it above its siblings only when it is kept on top.
func positionRequest(x, y int, onTop bool) (uint16, []uint32) {
	mask := uint16(xproto.ConfigWindowX | xproto.ConfigWindowY)
	values := []uint32{uint32(int32(x)), uint32(int32(y))}
	if onTop {
		mask |= xproto.ConfigWindowStackMode
		values = append(values, xproto.StackModeAbove)
	}
	return mask, values
}

func outerSize(width, height, border int) (int, int) {
	return width + 2*border, height + 2*border
}

func windowNameError(classErr, nameErr error) error {
	var errs []error
	if classErr != nil {
		errs = append(errs, fmt.Errorf("set WM_CLASS: %w", classErr))
	}
	if nameErr != nil {
		errs = append(errs, fmt.Errorf("set _NET_WM_NAME: %w", nameErr))
	}
	return errors.Join(errs...)
}

func clampSize(width, height int) (int, int) {
	if width < meter.MinWidth {
		width = meter.MinWidth
	}
	if height < meter.MinHeight {
		height = meter.MinHeight
	}
	return width, height
}

func toRectangle(b meter.Box) xproto.Rectangle {
	return xproto.Rectangle{
		X:      int16(b.X),
		Y:      int16(b.Y),
		Width:  uint16(b.W),
		Height: uint16(b.H),
	}
}
