package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"warp-tui/internal/config"
)

var (
	setupTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#F25D94")).
			Padding(0, 1)

	setupInfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")).
			MarginTop(1).
			MarginBottom(1)

	setupErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F87"))

	setupSuccessStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#50FA7B"))
)

// CheckFunc looks for the client binary; config.CheckSetupStatus in
// production.
type CheckFunc func(binary string) (*config.SetupStatus, error)

type setupCheckedMsg struct {
	status *config.SetupStatus
	err    error
}

// SetupModel is shown when the WARP client can't be found. It quits with
// Ready() true once a re-check succeeds.
type SetupModel struct {
	status  *config.SetupStatus
	check   CheckFunc
	input   textinput.Model
	editing bool
	message string
	err     error
	ready   bool
}

func NewSetupModel(status *config.SetupStatus, check CheckFunc) *SetupModel {
	ti := textinput.New()
	ti.Placeholder = "/path/to/warp-cli"
	ti.CharLimit = 256
	ti.Width = 50
	ti.SetValue(status.Binary)

	return &SetupModel{
		status: status,
		check:  check,
		input:  ti,
	}
}

func (m *SetupModel) Ready() bool {
	return m.ready
}

// Binary is the binary the last check ran against.
func (m *SetupModel) Binary() string {
	return m.status.Binary
}

func (m *SetupModel) Init() tea.Cmd {
	return nil
}

func (m *SetupModel) recheck(binary string) tea.Cmd {
	check := m.check
	return func() tea.Msg {
		status, err := check(binary)
		return setupCheckedMsg{status: status, err: err}
	}
}

func (m *SetupModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case setupCheckedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.message = fmt.Sprintf("Check failed: %v", msg.err)
			return m, nil
		}
		m.status = msg.status
		if !msg.status.NeedsSetup {
			m.ready = true
			m.err = nil
			m.message = fmt.Sprintf("Found %s", msg.status.Path)
			return m, tea.Quit
		}
		m.err = fmt.Errorf("%s not found", msg.status.Binary)
		m.message = fmt.Sprintf("Still can't find %q on PATH", msg.status.Binary)
		return m, nil

	case tea.KeyMsg:
		if m.editing {
			return m.handleEditingKey(msg)
		}
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		case "r", "enter":
			m.message = "Checking..."
			return m, m.recheck(m.status.Binary)
		case "p":
			m.editing = true
			m.input.SetValue(m.status.Binary)
			m.input.CursorEnd()
			return m, m.input.Focus()
		}
	}
	return m, nil
}

func (m *SetupModel) handleEditingKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.editing = false
		m.input.Blur()
		return m, nil
	case "enter":
		binary := strings.TrimSpace(m.input.Value())
		if binary == "" {
			m.message = "Path must not be empty"
			return m, nil
		}
		m.editing = false
		m.input.Blur()
		m.message = "Checking..."
		return m, m.recheck(binary)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *SetupModel) View() string {
	var s strings.Builder

	s.WriteString(setupTitleStyle.Render("Cloudflare WARP client not found"))
	s.WriteString("\n")
	s.WriteString(setupInfoStyle.Render(fmt.Sprintf("warp-tui drives %q, which is not installed or not on PATH.", m.status.Binary)))
	s.WriteString("\n")
	s.WriteString(m.status.Guidance)
	s.WriteString("\n\n")

	if m.editing {
		s.WriteString("Path to the WARP client binary:\n\n")
		s.WriteString(m.input.View())
		s.WriteString("\n\nPress Enter to check, Esc to go back")
	} else {
		s.WriteString("r = check again | p = enter a different path | q = quit")
	}

	if m.message != "" {
		s.WriteString("\n\n")
		switch {
		case m.ready:
			s.WriteString(setupSuccessStyle.Render(m.message))
		case m.err != nil:
			s.WriteString(setupErrorStyle.Render(m.message))
		default:
			s.WriteString(m.message)
		}
	}

	return s.String() + "\n"
}
