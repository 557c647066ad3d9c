package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
)

// Area is a root-relative rectangle.
type Area struct {
	X, Y, Width, Height int
}

func (a Area) contains(x, y int) bool {
	return x >= a.X && x < a.X+a.Width && y >= a.Y && y < a.Y+a.Height
}

// Monitors lists the active CRTCs.
func (c *Connection) Monitors() ([]Area, error) {
	conn := c.XUtil.Conn()
	if err := randr.Init(conn); err != nil {
		return nil, fmt.Errorf("randr init failed: %w", err)
	}
	resources, err := randr.GetScreenResources(conn, c.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	var out []Area
	for _, crtc := range resources.Crtcs {
		info, err := randr.GetCrtcInfo(conn, crtc, resources.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}
		if info.Width == 0 || info.Height == 0 || len(info.Outputs) == 0 {
			continue
		}
		out = append(out, Area{int(info.X), int(info.Y), int(info.Width), int(info.Height)})
	}
	return out, nil
}

// PointerArea returns the usable area of the monitor under the pointer:
// the monitor clipped to the EWMH work area of the current desktop. It falls
// back to the first monitor, then to the root window.
func (c *Connection) PointerArea() (Area, error) {
	monitors, err := c.Monitors()
	if err != nil || len(monitors) == 0 {
		geom, gerr := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(c.Root)).Reply()
		if gerr != nil {
			return Area{}, fmt.Errorf("failed to query root geometry: %w", gerr)
		}
		return Area{0, 0, int(geom.Width), int(geom.Height)}, nil
	}

	area := monitors[0]
	if pointer, err := xproto.QueryPointer(c.XUtil.Conn(), c.Root).Reply(); err == nil {
		for _, m := range monitors {
			if m.contains(int(pointer.RootX), int(pointer.RootY)) {
				area = m
				break
			}
		}
	}

	workArea, err := ewmh.WorkareaGet(c.XUtil)
	if err != nil || len(workArea) == 0 {
		return area, nil
	}
	desktop := 0
	if cur, err := ewmh.CurrentDesktopGet(c.XUtil); err == nil && int(cur) < len(workArea) {
		desktop = int(cur)
	}
	wa := workArea[desktop]
	return clipArea(area, Area{int(wa.X), int(wa.Y), int(wa.Width), int(wa.Height)}), nil
}

// clipArea intersects a with b, returning a unchanged when they do not
// overlap.
func clipArea(a, b Area) Area {
	x1 := max(a.X, b.X)
	y1 := max(a.Y, b.Y)
	x2 := min(a.X+a.Width, b.X+b.Width)
	y2 := min(a.Y+a.Height, b.Y+b.Height)
	if x2 <= x1 || y2 <= y1 {
		return a
	}
	return Area{x1, y1, x2 - x1, y2 - y1}
}
