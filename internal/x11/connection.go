package x11

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/mousebind"
	"github.com/BurntSushi/xgbutil/xcursor"
	"github.com/BurntSushi/xgbutil/xevent"
)

// Connection manages the X11 connection and the goroutine that owns it.
//
// Every X request and every callback attached to a meter window runs on the
// goroutine inside EventLoop. Other goroutines hand work to it with Dispatch.
type Connection struct {
	XUtil  *xgbutil.XUtil
	Root   xproto.Window
	Logger *slog.Logger

	dispatch chan func()
	done     chan struct{}

	// pending holds work queued by X callbacks; it runs once the current
	// event has been handled.
	pending []func()
	font    xproto.Font
	cursors map[uint16]xproto.Cursor
}

// NewConnection connects to display, or $DISPLAY when display is empty.
func NewConnection(display string) (*Connection, error) {
	var (
		xu  *xgbutil.XUtil
		err error
	)
	if display == "" {
		xu, err = xgbutil.NewConn()
	} else {
		xu, err = xgbutil.NewConnDisplay(display)
	}
	if err != nil {
		return nil, fmt.Errorf("connect to X server: %w", err)
	}

	// Global hotkeys and window drags.
	keybind.Initialize(xu)
	mousebind.Initialize(xu)

	return &Connection{
		XUtil:    xu,
		Root:     xu.RootWin(),
		Logger:   slog.New(slog.DiscardHandler),
		dispatch: make(chan func(), 64),
		done:     make(chan struct{}),
		cursors:  make(map[uint16]xproto.Cursor),
	}, nil
}

// Dispatch queues fn to run on the event loop goroutine. It blocks while the
// queue is full and drops fn once the loop has stopped.
func (c *Connection) Dispatch(fn func()) {
	select {
	case c.dispatch <- fn:
	case <-c.done:
	}
}

// EventLoop processes X events and dispatched functions until ctx is done or
// the connection is told to quit. It must be called from one goroutine only.
func (c *Connection) EventLoop(ctx context.Context) error {
	defer close(c.done)

	before, after, quit := xevent.MainPing(c.XUtil)
	for {
		select {
		case <-before:
			<-after
			c.drainPending()
		case fn := <-c.dispatch:
			c.run(fn)
		case <-quit:
			return nil
		case <-ctx.Done():
			xevent.Quit(c.XUtil)
			return ctx.Err()
		}
	}
}

// Later queues fn to run after the event being handled. X callbacks use it
// for work that tears down the window the event belongs to.
func (c *Connection) Later(fn func()) {
	c.pending = append(c.pending, fn)
}

func (c *Connection) drainPending() {
	for len(c.pending) > 0 {
		fn := c.pending[0]
		c.pending = c.pending[1:]
		c.run(fn)
	}
}

func (c *Connection) run(fn func()) {
	if fn == nil {
		return
	}
	fn()
	c.XUtil.Sync()
}

// Close cleanly disconnects from the X11 server.
func (c *Connection) Close() {
	c.XUtil.Conn().Close()
}

// labelFont opens the first available core font. The font is shared by all
// surfaces on the connection.
func (c *Connection) labelFont() (xproto.Font, error) {
	if c.font != 0 {
		return c.font, nil
	}
	conn := c.XUtil.Conn()
	font, err := xproto.NewFontId(conn)
	if err != nil {
		return 0, err
	}
	for _, name := range []string{"fixed", "6x13", "8x13", "9x15"} {
		if err := xproto.OpenFontChecked(conn, font, uint16(len(name)), name).Check(); err == nil {
			c.font = font
			return font, nil
		}
	}
	return 0, errors.New("no core font available")
}

// cursor returns a cached glyph cursor, or 0 (no cursor change) when it
// cannot be created.
func (c *Connection) cursor(glyph uint16) xproto.Cursor {
	if cur, ok := c.cursors[glyph]; ok {
		return cur
	}
	cur, err := xcursor.CreateCursor(c.XUtil, glyph)
	if err != nil {
		return 0
	}
	c.cursors[glyph] = cur
	return cur
}
