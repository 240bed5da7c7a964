package ui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"warp-tui/internal/logging"
	"warp-tui/internal/metrics"
	"warp-tui/internal/vpn"
)

const (
	subsystem          = "ui"
	maxActivityEntries = 200
)

// AppState is everything the event loop knows about WARP. Only Update
// mutates it.
type AppState struct {
	Connection vpn.ConnectionState
	// InFlight is set from the moment a command is dispatched until its
	// result message (and any follow-up refresh) is handled.
	InFlight bool
	// Pending holds one action requested while busy. A newer request
	// replaces it.
	Pending     Action
	PendingMode vpn.Mode
	Interval    time.Duration
}

type Options struct {
	Interval  time.Duration
	Logs      <-chan logging.LogEntry
	Metrics   *metrics.Registry
	Clipboard func(string) error
	Version   string
}

type Model struct {
	ctx    context.Context
	cancel context.CancelFunc
	svc    vpn.Service

	state     AppState
	keys      KeyMap
	help      help.Model
	spinner   spinner.Model
	picker    *ModePicker
	logs      <-chan logging.LogEntry
	metrics   *metrics.Registry
	clipboard func(string) error
	version   string

	activity     []string
	message      string
	skippedTicks int
	quitting     bool

	terminalWidth  int
	terminalHeight int
}

// New builds the main model. Cancelling parent, or quitting, aborts any
// command still running.
func New(parent context.Context, svc vpn.Service, opts Options) Model {
	ctx, cancel := context.WithCancel(parent)

	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}
	if opts.Clipboard == nil {
		opts.Clipboard = clipboard.WriteAll
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	return Model{
		ctx:    ctx,
		cancel: cancel,
		svc:    svc,
		state: AppState{
			Connection: vpn.ConnectionState{Status: vpn.StatusUnknown},
			Interval:   opts.Interval,
		},
		keys:           DefaultKeyMap(),
		help:           help.New(),
		spinner:        s,
		logs:           opts.Logs,
		metrics:        opts.Metrics,
		clipboard:      opts.Clipboard,
		version:        opts.Version,
		terminalWidth:  80,
		terminalHeight: 24,
	}
}

func (m Model) State() AppState {
	return m.state
}

func (m Model) Activity() []string {
	return m.activity
}

func (m Model) Init() tea.Cmd {
	firstTick := func() tea.Msg { return tickMsg(time.Now()) }
	return tea.Batch(firstTick, m.spinner.Tick, listenForLogs(m.logs))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.terminalWidth = msg.Width
		m.terminalHeight = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tickMsg:
		return m.handleTick()

	case statusMsg:
		return m.handleStatus(msg)

	case actionMsg:
		return m.handleAction(msg)

	case logEntryMsg:
		m.addLogEntry(formatLogEntry(logging.LogEntry(msg)))
		return m, listenForLogs(m.logs)

	case clipboardMsg:
		if msg.err != nil {
			m.message = fmt.Sprintf("❌ Copy failed: %v", msg.err)
		} else {
			m.message = "📋 Copied: " + msg.text
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.quitting {
		return m, nil
	}

	if m.picker != nil {
		switch {
		case msg.String() == "ctrl+c":
			return m.quit()
		case key.Matches(msg, m.keys.Cancel):
			m.picker = nil
			m.message = "Mode change cancelled"
			return m, nil
		case key.Matches(msg, m.keys.Select):
			mode := m.picker.Selected()
			m.picker = nil
			return m.request(ActionSetMode, mode)
		default:
			m.picker.Update(msg, m.keys)
			return m, nil
		}
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()
	case key.Matches(msg, m.keys.Connect):
		return m.request(ActionConnect, vpn.ModeUnknown)
	case key.Matches(msg, m.keys.Disconnect):
		return m.request(ActionDisconnect, vpn.ModeUnknown)
	case key.Matches(msg, m.keys.Refresh):
		return m.request(ActionRefresh, vpn.ModeUnknown)
	case key.Matches(msg, m.keys.Mode):
		m.picker = NewModePicker(m.state.Connection.Mode)
		return m, nil
	case key.Matches(msg, m.keys.Copy):
		return m, copyCmd(statusSummary(m.state.Connection), m.clipboard)
	}
	return m, nil
}

// request runs action now when idle, otherwise parks it in the pending slot
// for the next idle tick. A refresh never displaces a pending mutation; the
// mutation refreshes when it completes.
func (m Model) request(action Action, mode vpn.Mode) (tea.Model, tea.Cmd) {
	if m.state.InFlight {
		if action == ActionRefresh && m.state.Pending.mutates() {
			m.message = fmt.Sprintf("⏳ %s will run after the current command", m.state.Pending)
			return m, nil
		}
		m.state.Pending = action
		m.state.PendingMode = mode
		m.message = fmt.Sprintf("⏳ %s will run after the current command", action)
		m.record(logging.LevelDebug, "%s deferred, command in flight", action)
		return m, nil
	}
	return m.dispatch(action, mode)
}

func (m Model) dispatch(action Action, mode vpn.Mode) (Model, tea.Cmd) {
	m.state.InFlight = true
	m.state.Pending = ActionNone
	m.state.PendingMode = vpn.ModeUnknown

	switch action {
	case ActionConnect:
		m.message = "Connecting..."
	case ActionDisconnect:
		m.message = "Disconnecting..."
	case ActionSetMode:
		m.message = fmt.Sprintf("Switching mode to %s...", mode)
	default:
		return m, pollCmd(m.ctx, m.svc)
	}
	m.record(logging.LevelInfo, "Running %s", action)
	return m, actionCmd(m.ctx, m.svc, action, mode)
}

func (m Model) handleTick() (tea.Model, tea.Cmd) {
	if m.quitting {
		return m, nil
	}
	next := tickCmd(m.state.Interval)

	if m.state.InFlight {
		m.skippedTicks++
		m.metrics.TickSkipped()
		return m, next
	}

	action, mode := m.state.Pending, m.state.PendingMode
	if action == ActionNone {
		action = ActionRefresh
	}
	m, cmd := m.dispatch(action, mode)
	return m, tea.Batch(next, cmd)
}

func (m Model) handleStatus(msg statusMsg) (tea.Model, tea.Cmd) {
	m.state.InFlight = false
	if m.quitting {
		return m, nil
	}
	m.metrics.ObservePoll(msg.took, msg.err)

	if errors.Is(msg.err, vpn.ErrBusy) {
		return m, nil
	}

	prev := m.state.Connection
	if msg.err != nil {
		m.state.Connection = vpn.ErrorState(msg.err, prev.UpdatedAt)
		if prev.Status != vpn.StatusError || prev.Detail != m.state.Connection.Detail {
			m.record(logging.LevelWarn, "Status check failed: %s", m.state.Connection.Detail)
		}
	} else {
		m.state.Connection = msg.state
		if prev.Status != msg.state.Status {
			m.record(logging.LevelInfo, "%s %s", statusIcon(msg.state.Status), msg.state.Status)
		}
	}
	m.metrics.SetState(m.state.Connection.Status)
	return m, nil
}

func (m Model) handleAction(msg actionMsg) (tea.Model, tea.Cmd) {
	if m.quitting {
		m.state.InFlight = false
		return m, nil
	}
	m.metrics.ObserveAction(msg.action.String(), msg.err)

	if msg.err != nil {
		detail := vpn.ErrorDetail(msg.err)
		m.message = fmt.Sprintf("❌ %s failed: %s", msg.action, detail)
		m.record(logging.LevelError, "%s failed: %s", msg.action, detail)
	} else {
		switch msg.action {
		case ActionSetMode:
			m.message = fmt.Sprintf("✅ Mode set to %s", msg.mode)
		default:
			m.message = fmt.Sprintf("✅ %s succeeded", msg.action)
		}
		m.record(logging.LevelInfo, "%s succeeded", msg.action)
	}

	// Still in flight: show the new state without waiting for the next tick.
	return m, pollCmd(m.ctx, m.svc)
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	m.picker = nil
	m.cancel()
	return m, tea.Quit
}

// record sends a line through the logging package when the activity log is
// fed by it, and straight into the activity log otherwise.
func (m *Model) record(level logging.LogLevel, format string, args ...any) {
	if m.logs == nil {
		if level > logging.LevelDebug {
			m.addLogEntry(fmt.Sprintf(format, args...))
		}
		return
	}
	switch level {
	case logging.LevelDebug:
		logging.Debug(subsystem, format, args...)
	case logging.LevelInfo:
		logging.Info(subsystem, format, args...)
	case logging.LevelWarn:
		logging.Warn(subsystem, format, args...)
	default:
		logging.Error(subsystem, nil, format, args...)
	}
}

func (m *Model) addLogEntry(entry string) {
	stamp := time.Now().Format("15:04:05")
	m.activity = append(m.activity, stamp+" "+entry)
	if len(m.activity) > maxActivityEntries {
		m.activity = m.activity[len(m.activity)-maxActivityEntries:]
	}
}

func formatLogEntry(e logging.LogEntry) string {
	line := e.Message
	if e.Subsystem != "" && e.Subsystem != subsystem {
		line = fmt.Sprintf("[%s] %s", e.Subsystem, line)
	}
	if e.Level >= logging.LevelWarn {
		line = fmt.Sprintf("%s %s", e.Level, line)
	}
	if e.Err != nil {
		line = fmt.Sprintf("%s: %v", line, e.Err)
	}
	return line
}

func statusSummary(s vpn.ConnectionState) string {
	out := "WARP " + s.Status.String()
	if s.Mode != vpn.ModeUnknown {
		out += fmt.Sprintf(" (%s)", s.Mode)
	}
	if s.Detail != "" {
		out += ": " + s.Detail
	}
	if !s.UpdatedAt.IsZero() {
		out += fmt.Sprintf(" [%s]", s.UpdatedAt.Format(time.RFC3339))
	}
	return out
}
