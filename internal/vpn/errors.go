package vpn

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrToolNotFound = errors.New("warp-cli not found")
	ErrToolFailure  = errors.New("warp-cli command failed")
	ErrTimeout      = errors.New("warp-cli command timed out")
	ErrParse        = errors.New("unrecognized warp-cli output")
	ErrBusy         = errors.New("another warp-cli command is in flight")
)

// ToolError describes one failed invocation of the external tool.
type ToolError struct {
	Op       string
	ExitCode int
	Stdout   string
	Stderr   string
	Err      error
}

func (e *ToolError) Error() string {
	if d := e.output(); d != "" {
		return fmt.Sprintf("%s: %v: %s", e.Op, e.Err, d)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

func (e *ToolError) output() string {
	if s := strings.TrimSpace(e.Stderr); s != "" {
		return s
	}
	return strings.TrimSpace(e.Stdout)
}

// ErrorDetail returns the text shown to the user for err: the tool's own
// output when there is any, otherwise the error message.
func ErrorDetail(err error) string {
	if err == nil {
		return ""
	}
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe.detail()
	}
	var te *ToolError
	if errors.As(err, &te) {
		d := te.output()
		if errors.Is(te.Err, ErrTimeout) {
			if d != "" {
				return fmt.Sprintf("%s: %v: %s", te.Op, te.Err, d)
			}
			return fmt.Sprintf("%s: %v", te.Op, te.Err)
		}
		if d != "" {
			return d
		}
	}
	return err.Error()
}

// alreadyInState reports whether a failed connect/disconnect only says the
// client is already where we asked it to go.
func alreadyInState(err error, phrase string) bool {
	var te *ToolError
	if !errors.As(err, &te) || !errors.Is(te.Err, ErrToolFailure) {
		return false
	}
	out := strings.ToLower(te.Stderr + " " + te.Stdout)
	return strings.Contains(out, phrase)
}

// ParseError is returned when tool output does not map to a known status.
type ParseError struct {
	Output string
	Reason string
}

func (e *ParseError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%v: %s", ErrParse, e.Reason)
	}
	return ErrParse.Error()
}

func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

func (e *ParseError) detail() string {
	if e.Reason != "" {
		return e.Reason
	}
	if out := strings.TrimSpace(e.Output); out != "" {
		return out
	}
	return "empty status output"
}
