package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"warp-tui/internal/logging"
	"warp-tui/internal/vpn"
)

type Action int

const (
	ActionNone Action = iota
	ActionRefresh
	ActionConnect
	ActionDisconnect
	ActionSetMode
)

func (a Action) String() string {
	switch a {
	case ActionRefresh:
		return "refresh"
	case ActionConnect:
		return "connect"
	case ActionDisconnect:
		return "disconnect"
	case ActionSetMode:
		return "set-mode"
	default:
		return "none"
	}
}

// mutates reports whether the action changes client state.
func (a Action) mutates() bool {
	return a == ActionConnect || a == ActionDisconnect || a == ActionSetMode
}

type tickMsg time.Time

type statusMsg struct {
	state vpn.ConnectionState
	err   error
	took  time.Duration
}

type actionMsg struct {
	action Action
	mode   vpn.Mode
	err    error
}

type logEntryMsg logging.LogEntry

type clipboardMsg struct {
	text string
	err  error
}

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func pollCmd(ctx context.Context, svc vpn.Service) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		state, err := svc.GetStatus(ctx)
		return statusMsg{state: state, err: err, took: time.Since(start)}
	}
}

func actionCmd(ctx context.Context, svc vpn.Service, action Action, mode vpn.Mode) tea.Cmd {
	return func() tea.Msg {
		var err error
		switch action {
		case ActionConnect:
			err = svc.Connect(ctx)
		case ActionDisconnect:
			err = svc.Disconnect(ctx)
		case ActionSetMode:
			err = svc.SetMode(ctx, mode)
		}
		return actionMsg{action: action, mode: mode, err: err}
	}
}

// listenForLogs waits for the next log entry. It is re-issued after every
// entry so exactly one listener is pending at a time.
func listenForLogs(ch <-chan logging.LogEntry) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		entry, ok := <-ch
		if !ok {
			return nil
		}
		return logEntryMsg(entry)
	}
}

func copyCmd(text string, write func(string) error) tea.Cmd {
	return func() tea.Msg {
		return clipboardMsg{text: text, err: write(text)}
	}
}
