package vpn

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/semaphore"

	"warp-tui/internal/logging"
)

const subsystem = "warp"

// Commands holds the argument vectors passed to the binary for each operation.
type Commands struct {
	Status     []string
	Connect    []string
	Disconnect []string
	Settings   []string
	SetMode    []string
}

func DefaultCommands() Commands {
	return Commands{
		Status:     []string{"status"},
		Connect:    []string{"connect"},
		Disconnect: []string{"disconnect"},
		Settings:   []string{"--json", "settings"},
		SetMode:    []string{"mode"},
	}
}

// WarpService drives warp-cli. Every operation holds a single-slot
// semaphore, so two invocations never overlap no matter who calls.
type WarpService struct {
	runner    Runner
	parser    Parser
	commands  Commands
	fetchMode bool
	now       func() time.Time
	sem       *semaphore.Weighted
}

type Option func(*WarpService)

func WithParser(p Parser) Option {
	return func(w *WarpService) { w.parser = p }
}

func WithCommands(c Commands) Option {
	return func(w *WarpService) { w.commands = c }
}

// WithModeLookup enables reading the operation mode from the settings
// command when the status output doesn't carry it.
func WithModeLookup(enabled bool) Option {
	return func(w *WarpService) { w.fetchMode = enabled }
}

func WithClock(now func() time.Time) Option {
	return func(w *WarpService) { w.now = now }
}

func NewService(runner Runner, opts ...Option) *WarpService {
	w := &WarpService{
		runner:    runner,
		parser:    TextParser{},
		commands:  DefaultCommands(),
		fetchMode: true,
		now:       time.Now,
		sem:       semaphore.NewWeighted(1),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *WarpService) acquire() error {
	if !w.sem.TryAcquire(1) {
		return ErrBusy
	}
	return nil
}

func (w *WarpService) GetStatus(ctx context.Context) (ConnectionState, error) {
	if err := w.acquire(); err != nil {
		return ConnectionState{}, err
	}
	defer w.sem.Release(1)

	output, err := w.runner.Run(ctx, w.commands.Status...)
	if err != nil {
		return ConnectionState{}, err
	}

	state, err := w.parser.ParseStatus(output)
	if err != nil {
		logging.Debug(subsystem, "unparsable status output: %q", output)
		return ConnectionState{}, err
	}
	state.UpdatedAt = w.now()

	if state.Mode == ModeUnknown && w.fetchMode && len(w.commands.Settings) > 0 {
		state.Mode = w.lookupMode(ctx)
	}
	return state, nil
}

func (w *WarpService) lookupMode(ctx context.Context) Mode {
	output, err := w.runner.Run(ctx, w.commands.Settings...)
	if err != nil {
		logging.Debug(subsystem, "settings lookup failed: %v", err)
		return ModeUnknown
	}
	mode, err := ParseOperationMode(output)
	if err != nil {
		logging.Debug(subsystem, "settings lookup: %v", err)
	}
	return mode
}

func (w *WarpService) Connect(ctx context.Context) error {
	if err := w.acquire(); err != nil {
		return err
	}
	defer w.sem.Release(1)

	_, err := w.runner.Run(ctx, w.commands.Connect...)
	if err != nil && alreadyInState(err, "already connected") {
		logging.Info(subsystem, "Client already connected")
		return nil
	}
	return err
}

func (w *WarpService) Disconnect(ctx context.Context) error {
	if err := w.acquire(); err != nil {
		return err
	}
	defer w.sem.Release(1)

	_, err := w.runner.Run(ctx, w.commands.Disconnect...)
	if err != nil && alreadyInState(err, "already disconnected") {
		logging.Info(subsystem, "Client already disconnected")
		return nil
	}
	return err
}

func (w *WarpService) SetMode(ctx context.Context, mode Mode) error {
	if mode == ModeUnknown {
		return errors.New("no mode selected")
	}
	if err := w.acquire(); err != nil {
		return err
	}
	defer w.sem.Release(1)

	args := append(append([]string{}, w.commands.SetMode...), string(mode))
	_, err := w.runner.Run(ctx, args...)
	return err
}
