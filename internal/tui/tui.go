// Package tui is a terminal dashboard for a running meterdeck daemon.
package tui

import (
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/1broseidon/meterdeck/internal/deck"
	"github.com/1broseidon/meterdeck/internal/ipc"
)

// RefreshInterval is how often the dashboard polls the daemon.
const RefreshInterval = time.Second

// Client is the daemon API the dashboard drives. *ipc.Client satisfies it.
type Client interface {
	GetStatus() (*ipc.StatusData, error)
	ToggleSnap() (bool, error)
	ListMeters() ([]deck.MeterInfo, error)
	AddMeter(p ipc.AddMeterPayload) (*deck.MeterInfo, error)
	CloseMeter(id string) error
	ResetMeter(id string) error
	InvertMeter(id string) error
	SetStrike(id string, strike float64) error
}

// Run shows the dashboard until the user quits.
func Run(client Client) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("tui requires an interactive terminal (stdin/stdout must be TTYs)")
	}

	p := tea.NewProgram(newModel(client), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
