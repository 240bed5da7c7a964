package vpn

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Runner executes the external tool. Implementations must honour ctx.
type Runner interface {
	Run(ctx context.Context, args ...string) (string, error)
}

// ExecRunner runs a binary with a per-call timeout.
type ExecRunner struct {
	Binary  string
	Timeout time.Duration
}

func NewExecRunner(binary string, timeout time.Duration) *ExecRunner {
	return &ExecRunner{Binary: binary, Timeout: timeout}
}

func (r *ExecRunner) Run(ctx context.Context, args ...string) (string, error) {
	op := strings.TrimSpace(r.Binary + " " + strings.Join(args, " "))

	path, err := exec.LookPath(r.Binary)
	if err != nil {
		return "", &ToolError{Op: op, ExitCode: -1, Err: fmt.Errorf("%w: %v", ErrToolNotFound, err)}
	}

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// Don't wait on pipes held open by grandchildren once the process is killed.
	cmd.WaitDelay = time.Second

	err = cmd.Run()
	if err == nil {
		return stdout.String(), nil
	}

	te := &ToolError{Op: op, ExitCode: -1, Stdout: stdout.String(), Stderr: stderr.String()}
	var exitErr *exec.ExitError
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded) && r.Timeout > 0:
		te.Err = fmt.Errorf("%w after %s", ErrTimeout, r.Timeout)
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		te.Err = ErrTimeout
	case ctx.Err() != nil:
		te.Err = ctx.Err()
	case errors.As(err, &exitErr):
		te.ExitCode = exitErr.ExitCode()
		te.Err = fmt.Errorf("%w: exit status %d", ErrToolFailure, te.ExitCode)
	default:
		te.Err = fmt.Errorf("%w: %v", ErrToolFailure, err)
	}
	return te.Stdout, te
}
