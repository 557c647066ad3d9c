package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/meterdeck/internal/deck"
	"github.com/1broseidon/meterdeck/internal/meter"
)

var (
	buyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	sellStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// meterItem is a list item for one meter.
type meterItem struct {
	info deck.MeterInfo
}

func (i meterItem) Title() string {
	return fmt.Sprintf("%s %s", meter.FormatStrike(i.info.Strike), i.info.Right)
}

func (i meterItem) Description() string {
	t := i.info.Tally
	return fmt.Sprintf("%s  %s  %s",
		shortID(i.info.ID),
		buyStyle.Render(fmt.Sprintf("B %d", t.Buy)),
		sellStyle.Render(fmt.Sprintf("S %d", t.Sell)))
}

func (i meterItem) FilterValue() string { return i.info.ID }

func buildMeterItems(meters []deck.MeterInfo) []list.Item {
	items := make([]list.Item, 0, len(meters))
	for _, m := range meters {
		items = append(items, meterItem{info: m})
	}
	return items
}

// volumeBar draws the buy/sell split as a horizontal bar of the given width.
func volumeBar(t meter.Tally, width int) string {
	if width < 2 {
		width = 2
	}
	if t.Total() == 0 {
		return dimStyle.Render(strings.Repeat("░", width))
	}
	buy := int(float64(width)*t.BuyFraction() + 0.5)
	return buyStyle.Render(strings.Repeat("█", buy)) +
		sellStyle.Render(strings.Repeat("█", width-buy))
}

// renderMeterDetail renders the right-hand panel for the selected meter.
func renderMeterDetail(info deck.MeterInfo, width, height int) string {
	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("250")).
		Width(10).
		Align(lipgloss.Right).
		PaddingRight(2)
	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("15")).
		Bold(true)
	row := func(label, value string) string {
		return labelStyle.Render(label) + valueStyle.Render(value)
	}

	expiry := info.Expiry
	if expiry == "" {
		expiry = "any"
	}
	orientation := "buy at bottom"
	if info.Inverted {
		orientation = "buy on top"
	}

	t := info.Tally
	lines := []string{
		row("ID", info.ID),
		row("Strike", meter.FormatStrike(info.Strike)),
		row("Right", string(info.Right)),
		row("Expiry", expiry),
		row("Layout", orientation),
		row("Geometry", fmt.Sprintf("%dx%d+%d+%d", info.Width, info.Height, info.X, info.Y)),
		"",
		row("Buy", buyStyle.Render(fmt.Sprintf("%d", t.Buy))),
		row("Sell", sellStyle.Render(fmt.Sprintf("%d", t.Sell))),
		row("Net", fmt.Sprintf("%+d", t.Net())),
		"",
		labelStyle.Render("") + volumeBar(t, width-16),
		"",
		row("Attached", formatAttached(info.Attached)),
	}

	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Padding(1, 2).
		Render(strings.Join(lines, "\n"))
}

func formatAttached(attached map[string]string) string {
	if len(attached) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(attached))
	for id, side := range attached {
		parts = append(parts, side+":"+shortID(id))
	}
	sort.Strings(parts)
	return strings.Join(parts, " ")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
