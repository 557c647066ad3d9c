package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/meterdeck/internal/ipc"
)

// renderStatusBar renders the daemon connection and snap state.
func renderStatusBar(status *ipc.StatusData, width int) string {
	var text string
	if status != nil {
		dot := lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Render("●")
		snap := lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render("snap off")
		if status.SnapEnabled {
			snap = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Render(fmt.Sprintf("snap on (%dpx)", status.SnapDistance))
		}
		parts := []string{
			dot + " daemon connected",
			snap,
			fmt.Sprintf("meters:%d", status.MeterCount),
			fmt.Sprintf("up:%ds", status.UptimeSeconds),
		}
		text = strings.Join(parts, "  ")
	} else {
		dot := lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render("●")
		text = dot + " daemon not running"
	}

	style := lipgloss.NewStyle().
		Width(width).
		Background(lipgloss.Color("235")).
		Foreground(lipgloss.Color("250")).
		Padding(0, 1)
	return style.Render(text)
}

// renderHelpBar renders the bottom keybinding bar, or the last error.
func renderHelpBar(lastErr string, width int) string {
	style := lipgloss.NewStyle().
		Width(width).
		Foreground(lipgloss.Color("241")).
		Padding(0, 1)
	if lastErr != "" {
		return style.Foreground(lipgloss.Color("196")).Render("error: " + lastErr)
	}
	help := "s: toggle snap  a: add  e: strike  r: reset  i: invert  x: close  q: quit"
	return style.Render(help)
}
