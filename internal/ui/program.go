package ui

import (
	"context"
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"warp-tui/internal/config"
	"warp-tui/internal/vpn"
)

// ErrTerminal means the program could not take over the terminal.
var ErrTerminal = errors.New("terminal unavailable")

// isTerminal is a variable so tests can pretend to have a TTY.
var isTerminal = func(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func ensureTerminal(in, out *os.File) error {
	if !isTerminal(in) {
		return fmt.Errorf("%w: stdin is not a terminal (use --no-tui)", ErrTerminal)
	}
	if !isTerminal(out) {
		return fmt.Errorf("%w: stdout is not a terminal (use --no-tui)", ErrTerminal)
	}
	return nil
}

// Run starts the status TUI and blocks until the user quits or ctx is done.
// Bubble Tea restores the terminal on every exit path, including panics.
func Run(ctx context.Context, svc vpn.Service, opts Options) error {
	if err := ensureTerminal(os.Stdin, os.Stdout); err != nil {
		return err
	}

	m := New(ctx, svc, opts)
	defer m.cancel()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return programError(ctx, err)
	}
	return nil
}

// RunSetup shows the install guidance screen. It returns the binary that was
// found, or vpn.ErrToolNotFound when the user gives up.
func RunSetup(ctx context.Context, status *config.SetupStatus, check CheckFunc) (string, error) {
	if err := ensureTerminal(os.Stdin, os.Stdout); err != nil {
		return "", errors.Join(status.Err(), err)
	}

	p := tea.NewProgram(NewSetupModel(status, check), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		if perr := programError(ctx, err); perr != nil {
			return "", perr
		}
	}

	if sm, ok := final.(*SetupModel); ok && sm.Ready() {
		return sm.Binary(), nil
	}
	return "", fmt.Errorf("%w: %q", vpn.ErrToolNotFound, status.Binary)
}

// programError maps Bubble Tea's exit errors; a cancelled context (signal)
// is a normal exit.
func programError(ctx context.Context, err error) error {
	if errors.Is(err, tea.ErrInterrupted) {
		return nil
	}
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrTerminal, err)
}
