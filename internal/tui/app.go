package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/meterdeck/internal/config"
	"github.com/1broseidon/meterdeck/internal/deck"
	"github.com/1broseidon/meterdeck/internal/ipc"
	"github.com/1broseidon/meterdeck/internal/meter"
)

type tickMsg struct{}

// refreshMsg carries one poll of the daemon. status is nil when the daemon
// could not be reached.
type refreshMsg struct {
	status *ipc.StatusData
	meters []deck.MeterInfo
	err    error
}

// actionMsg reports the outcome of a command sent to the daemon.
type actionMsg struct {
	err error
}

type addFields struct {
	strike   string
	right    string
	expiry   string
	inverted bool
}

// model is the root bubbletea model for the dashboard.
type model struct {
	client Client

	list    list.Model
	status  *ipc.StatusData
	lastErr string

	// Strike edit mode
	editingStrike bool
	strikeInput   textinput.Model

	// Add meter form. The bound values live behind a pointer because the
	// form keeps their addresses across model copies.
	adding bool
	form   *huh.Form
	fields *addFields

	width  int
	height int
}

func newModel(client Client) model {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(lipgloss.Color("15")).
		BorderForeground(lipgloss.Color("62"))
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(lipgloss.Color("250")).
		BorderForeground(lipgloss.Color("62"))

	l := list.New(nil, delegate, 0, 0)
	l.Title = "Meters"
	l.Styles.Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("15")).
		Background(lipgloss.Color("62")).
		Padding(0, 1)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.KeyMap.Quit.SetEnabled(false)

	ti := textinput.New()
	ti.Placeholder = "e.g. 5900 or 412.5"
	ti.CharLimit = 16

	return model{
		client:      client,
		list:        l,
		strikeInput: ti,
	}
}

func (m model) refresh() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		status, err := client.GetStatus()
		if err != nil {
			return refreshMsg{err: err}
		}
		meters, err := client.ListMeters()
		if err != nil {
			return refreshMsg{err: err}
		}
		return refreshMsg{status: status, meters: meters}
	}
}

func tick() tea.Cmd {
	return tea.Tick(RefreshInterval, func(time.Time) tea.Msg { return tickMsg{} })
}

// act runs fn against the daemon off the UI loop.
func act(fn func() error) tea.Cmd {
	return func() tea.Msg { return actionMsg{err: fn()} }
}

func (m model) selected() (deck.MeterInfo, bool) {
	item, ok := m.list.SelectedItem().(meterItem)
	if !ok {
		return deck.MeterInfo{}, false
	}
	return item.info, true
}

// Init implements tea.Model.
func (m model) Init() tea.Cmd {
	return tea.Batch(m.refresh(), tick())
}

// Update implements tea.Model.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(m.listWidth(), m.contentHeight())
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.refresh(), tick())

	case refreshMsg:
		if msg.err != nil {
			m.status = nil
			m.list.SetItems(nil)
			return m, nil
		}
		m.status = msg.status
		cmd := m.list.SetItems(buildMeterItems(msg.meters))
		return m, cmd

	case actionMsg:
		if msg.err != nil {
			m.lastErr = msg.err.Error()
		} else {
			m.lastErr = ""
		}
		return m, m.refresh()
	}

	if m.adding {
		return m.updateAdding(msg)
	}
	if m.editingStrike {
		return m.updateStrike(msg)
	}

	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "s":
			return m, act(func() error {
				_, err := m.client.ToggleSnap()
				return err
			})
		case "a":
			m.startAdding()
			return m, m.form.Init()
		}

		if info, ok := m.selected(); ok {
			id := info.ID
			switch km.String() {
			case "r":
				return m, act(func() error { return m.client.ResetMeter(id) })
			case "i":
				return m, act(func() error { return m.client.InvertMeter(id) })
			case "x", "delete":
				return m, act(func() error { return m.client.CloseMeter(id) })
			case "e":
				m.editingStrike = true
				m.strikeInput.Reset()
				m.strikeInput.SetValue(meter.FormatStrike(info.Strike))
				m.strikeInput.Focus()
				return m, textinput.Blink
			}
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m model) updateStrike(msg tea.Msg) (tea.Model, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			m.editingStrike = false
			m.strikeInput.Blur()
			return m, nil
		case "enter":
			m.editingStrike = false
			m.strikeInput.Blur()
			info, ok := m.selected()
			if !ok {
				return m, nil
			}
			strike, err := parseStrike(m.strikeInput.Value())
			if err != nil {
				m.lastErr = err.Error()
				return m, nil
			}
			id := info.ID
			return m, act(func() error { return m.client.SetStrike(id, strike) })
		}
	}

	var cmd tea.Cmd
	m.strikeInput, cmd = m.strikeInput.Update(msg)
	return m, cmd
}

func (m *model) startAdding() {
	m.fields = &addFields{right: string(meter.RightCall)}

	w := m.width - 4
	if w < 40 {
		w = 40
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("strike").
				Title("Strike").
				Description("Leave empty for the default strike").
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return nil
					}
					_, err := parseStrike(s)
					return err
				}).
				Value(&m.fields.strike),

			huh.NewSelect[string]().
				Key("right").
				Title("Right").
				Options(
					huh.NewOption("CALL", string(meter.RightCall)),
					huh.NewOption("PUT", string(meter.RightPut)),
				).
				Value(&m.fields.right),

			huh.NewInput().
				Key("expiry").
				Title("Expiry").
				Description("YYYY-MM-DD, empty matches any expiry").
				Validate(func(s string) error {
					s = strings.TrimSpace(s)
					if s == "" {
						return nil
					}
					_, err := time.Parse(config.ExpiryLayout, s)
					return err
				}).
				Value(&m.fields.expiry),

			huh.NewConfirm().
				Key("inverted").
				Title("Draw buy volume on top?").
				Value(&m.fields.inverted),
		),
	).WithWidth(w).WithShowHelp(true).WithShowErrors(true)

	m.adding = true
}

func (m model) updateAdding(msg tea.Msg) (tea.Model, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			m.adding = false
			m.form = nil
			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		payload := m.fields.payload()
		m.adding = false
		m.form = nil
		return m, act(func() error {
			_, err := m.client.AddMeter(payload)
			return err
		})
	case huh.StateAborted:
		m.adding = false
		m.form = nil
		return m, nil
	}
	return m, cmd
}

func (f *addFields) payload() ipc.AddMeterPayload {
	p := ipc.AddMeterPayload{
		Right:    f.right,
		Expiry:   strings.TrimSpace(f.expiry),
		Inverted: f.inverted,
	}
	if s, err := parseStrike(f.strike); err == nil {
		p.Strike = s
	}
	return p
}

func parseStrike(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("strike must be a positive number")
	}
	return v, nil
}

func (m model) listWidth() int {
	w := m.width / 3
	if w < 24 {
		w = 24
	}
	return w
}

// contentHeight is the height left after the status and help bars.
func (m model) contentHeight() int {
	h := m.height - 2
	if h < 1 {
		h = 1
	}
	return h
}

// View implements tea.Model.
func (m model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	statusBar := renderStatusBar(m.status, m.width)
	helpBar := renderHelpBar(m.lastErr, m.width)
	contentHeight := m.height - lipgloss.Height(statusBar) - lipgloss.Height(helpBar)
	if contentHeight < 1 {
		contentHeight = 1
	}

	var content string
	switch {
	case m.adding && m.form != nil:
		content = m.viewAdding(contentHeight)
	case m.status == nil:
		content = lipgloss.NewStyle().
			Width(m.width).
			Height(contentHeight).
			Foreground(lipgloss.Color("241")).
			Align(lipgloss.Center, lipgloss.Center).
			Render("Start the daemon with 'meterdeck daemon'")
	default:
		detailWidth := m.width - m.listWidth()
		var detail string
		if info, ok := m.selected(); ok {
			detail = renderMeterDetail(info, detailWidth, contentHeight)
			if m.editingStrike {
				detail = lipgloss.JoinVertical(lipgloss.Left, detail, "  New strike: "+m.strikeInput.View())
			}
		} else {
			detail = lipgloss.NewStyle().
				Width(detailWidth).
				Height(contentHeight).
				Foreground(lipgloss.Color("241")).
				Align(lipgloss.Center, lipgloss.Center).
				Render("No meters open. Press 'a' to add one.")
		}
		content = lipgloss.JoinHorizontal(lipgloss.Top, m.list.View(), detail)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		statusBar,
		content,
		helpBar,
	)
}

func (m model) viewAdding(height int) string {
	header := lipgloss.NewStyle().
		Foreground(lipgloss.Color("62")).
		Bold(true).
		Render("Add Meter") +
		lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Render("  (esc to cancel)")

	return lipgloss.NewStyle().
		Width(m.width).
		Height(height).
		Padding(1, 2).
		Render(header + "\n\n" + m.form.View())
}
