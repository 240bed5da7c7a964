package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

// LogLevel defines the severity of the log entry.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l LogLevel) SlogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// LogEntry is the structured log entry passed to the TUI.
type LogEntry struct {
	Timestamp time.Time
	Level     LogLevel
	Subsystem string
	Message   string
	Err       error
}

const tuiChannelBufferSize = 256

var (
	mu            sync.RWMutex
	defaultLogger *slog.Logger
	tuiLogChannel chan LogEntry
	filterLevel   = LevelInfo
	dropped       int
)

// InitForTUI routes log entries to the returned channel, which the TUI drains
// into its activity log. When file is non-nil every entry is also written to
// it as text.
func InitForTUI(level LogLevel, file io.Writer) <-chan LogEntry {
	mu.Lock()
	defer mu.Unlock()

	if file == nil {
		file = io.Discard
	}
	defaultLogger = slog.New(slog.NewTextHandler(file, &slog.HandlerOptions{Level: level.SlogLevel()}))
	tuiLogChannel = make(chan LogEntry, tuiChannelBufferSize)
	filterLevel = level
	dropped = 0
	return tuiLogChannel
}

// InitForCLI writes log lines to output.
func InitForCLI(level LogLevel, output io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	defaultLogger = slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{Level: level.SlogLevel()}))
	tuiLogChannel = nil
	filterLevel = level
}

// Dropped reports how many TUI entries were discarded because the channel
// was full.
func Dropped() int {
	mu.RLock()
	defer mu.RUnlock()
	return dropped
}

func logInternal(level LogLevel, subsystem string, err error, messageFmt string, args ...any) {
	msg := messageFmt
	if len(args) > 0 {
		msg = fmt.Sprintf(messageFmt, args...)
	}

	mu.RLock()
	logger, ch, threshold := defaultLogger, tuiLogChannel, filterLevel
	mu.RUnlock()

	if level < threshold {
		return
	}

	if ch != nil {
		entry := LogEntry{
			Timestamp: time.Now(),
			Level:     level,
			Subsystem: subsystem,
			Message:   msg,
			Err:       err,
		}
		// Never block the caller; pollers log from tea.Cmd goroutines.
		select {
		case ch <- entry:
		default:
			mu.Lock()
			dropped++
			mu.Unlock()
		}
	}

	if logger == nil {
		if ch == nil {
			fmt.Fprintf(os.Stderr, "%s [%s] %s: %s\n", time.Now().Format(time.RFC3339), level, subsystem, msg)
		}
		return
	}

	attrs := []slog.Attr{slog.String("subsystem", subsystem)}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	logger.LogAttrs(context.Background(), level.SlogLevel(), msg, attrs...)
}

// Debug logs a debug message.
func Debug(subsystem string, messageFmt string, args ...any) {
	logInternal(LevelDebug, subsystem, nil, messageFmt, args...)
}

// Info logs an informational message.
func Info(subsystem string, messageFmt string, args ...any) {
	logInternal(LevelInfo, subsystem, nil, messageFmt, args...)
}

// Warn logs a warning message.
func Warn(subsystem string, messageFmt string, args ...any) {
	logInternal(LevelWarn, subsystem, nil, messageFmt, args...)
}

// Error logs an error message.
func Error(subsystem string, err error, messageFmt string, args ...any) {
	logInternal(LevelError, subsystem, err, messageFmt, args...)
}

// Reset drops any TUI channel and returns to stderr logging.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	defaultLogger = nil
	tuiLogChannel = nil
	filterLevel = LevelInfo
	dropped = 0
}
