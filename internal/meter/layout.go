package meter

import (
	"math"
	"strconv"
)

// Colors used by the meter render model (0xRRGGBB).
const (
	ColorHeaderBg = 0x333333
	ColorCanvasBg = 0x202020
	ColorText     = 0xffffff
	ColorButtonBg = 0x4a4a4a
	ColorBuy      = 0x27ae60
	ColorSell     = 0xc0392b
	ColorIdle     = 0x3d3d3d
)

// Minimum meter size in pixels.
const (
	MinWidth  = 40
	MinHeight = 150
)

const (
	headerHeight = 46
	footerHeight = 14
	buttonSize   = 12
	rowHeight    = 14
	charWidth    = 6
	textBaseline = 11
)

// Button identifies a clickable header control.
type Button int

const (
	ButtonNone Button = iota
	ButtonReset
	ButtonInvert
	ButtonToggleRight
	ButtonClose
)

func (b Button) String() string {
	switch b {
	case ButtonReset:
		return "reset"
	case ButtonInvert:
		return "invert"
	case ButtonToggleRight:
		return "toggle-right"
	case ButtonClose:
		return "close"
	default:
		return "none"
	}
}

// Box is a rectangle in window-local coordinates.
type Box struct {
	X, Y, W, H int
}

func (b Box) contains(x, y int) bool {
	return x >= b.X && x < b.X+b.W && y >= b.Y && y < b.Y+b.H
}

// Fill is a solid rectangle.
type Fill struct {
	Box   Box
	Color uint32
}

// Label is a line of text; X/Y give the baseline origin.
type Label struct {
	X, Y  int
	Text  string
	Color uint32
	Bg    uint32
}

// Control is a header button and where it is drawn.
type Control struct {
	Button Button
	Box    Box
	Glyph  string
}

// View is everything needed to paint one meter.
type View struct {
	Width, Height int
	Fills         []Fill
	Controls      []Control
	Labels        []Label
}

// State is the meter data that drives the layout.
type State struct {
	Strike   float64
	Right    Right
	Expiry   string
	Inverted bool
	Tally    Tally
}

// Layout computes the view for a meter of the given size. Sizes below the
// minimum are clamped.
func Layout(width, height int, st State) View {
	if width < MinWidth {
		width = MinWidth
	}
	if height < MinHeight {
		height = MinHeight
	}

	v := View{Width: width, Height: height}
	header := Box{0, 0, width, headerHeight}
	canvas := Box{0, headerHeight, width, height - headerHeight - footerHeight}
	footer := Box{0, height - footerHeight, width, footerHeight}

	v.Fills = append(v.Fills,
		Fill{Box: header, Color: ColorHeaderBg},
		Fill{Box: canvas, Color: ColorCanvasBg},
		Fill{Box: footer, Color: ColorHeaderBg},
	)
	v.Fills = append(v.Fills, barFills(canvas, st)...)

	right := width - buttonSize - 2
	v.Controls = []Control{
		{Button: ButtonClose, Box: Box{right, 2, buttonSize, buttonSize}, Glyph: "x"},
		{Button: ButtonReset, Box: Box{right, 2 + rowHeight, buttonSize, buttonSize}, Glyph: "R"},
		{Button: ButtonInvert, Box: Box{right, 2 + 2*rowHeight, buttonSize, buttonSize}, Glyph: "^"},
		{Button: ButtonToggleRight, Box: Box{2, 2 + rowHeight, right - 4, rowHeight}, Glyph: string(st.Right)},
	}
	for _, c := range v.Controls {
		v.Fills = append(v.Fills, Fill{Box: c.Box, Color: ColorButtonBg})
		v.Labels = append(v.Labels, Label{
			X:     c.Box.X + 2,
			Y:     c.Box.Y + textBaseline - 1,
			Text:  fit(c.Glyph, c.Box.W-2),
			Color: ColorText,
			Bg:    ColorButtonBg,
		})
	}

	textWidth := right - 4
	v.Labels = append(v.Labels, Label{
		X: 2, Y: 2 + textBaseline - 1, Text: fit(FormatStrike(st.Strike), textWidth),
		Color: ColorText, Bg: ColorHeaderBg,
	})
	if st.Expiry != "" {
		v.Labels = append(v.Labels, Label{
			X: 2, Y: 2 + 2*rowHeight + textBaseline - 1, Text: fit(st.Expiry, textWidth),
			Color: ColorText, Bg: ColorHeaderBg,
		})
	}
	v.Labels = append(v.Labels, Label{
		X: 2, Y: footer.Y + textBaseline, Text: fit(formatNet(st.Tally.Net()), width-4),
		Color: ColorText, Bg: ColorHeaderBg,
	})
	return v
}

// HitTest returns the control under the window-local point, if any.
func (v View) HitTest(x, y int) Button {
	for _, c := range v.Controls {
		if c.Box.contains(x, y) {
			return c.Button
		}
	}
	return ButtonNone
}

// barFills splits the canvas between buy and sell volume. Buy fills from the
// bottom unless the meter is inverted.
func barFills(canvas Box, st State) []Fill {
	if canvas.H <= 0 {
		return nil
	}
	if st.Tally.Total() == 0 {
		return []Fill{{Box: canvas, Color: ColorIdle}}
	}

	buyH := int(math.Round(float64(canvas.H) * st.Tally.BuyFraction()))
	sellH := canvas.H - buyH

	top, bottom := Fill{Color: ColorSell}, Fill{Color: ColorBuy}
	topH, bottomH := sellH, buyH
	if st.Inverted {
		top.Color, bottom.Color = ColorBuy, ColorSell
		topH, bottomH = buyH, sellH
	}
	top.Box = Box{canvas.X, canvas.Y, canvas.W, topH}
	bottom.Box = Box{canvas.X, canvas.Y + topH, canvas.W, bottomH}

	var out []Fill
	for _, f := range []Fill{top, bottom} {
		if f.Box.H > 0 {
			out = append(out, f)
		}
	}
	return out
}

// FormatStrike renders a strike without a trailing ".0".
func FormatStrike(strike float64) string {
	return strconv.FormatFloat(strike, 'f', -1, 64)
}

func formatNet(net int64) string {
	if net > 0 {
		return "+" + strconv.FormatInt(net, 10)
	}
	return strconv.FormatInt(net, 10)
}

func fit(s string, width int) string {
	limit := width / charWidth
	if limit < 1 {
		return ""
	}
	if len(s) > limit {
		return s[:limit]
	}
	return s
}
