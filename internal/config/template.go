package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const templateContent = `# warp-tui configuration
#
# Path or name of the WARP client binary.
binary: warp-cli

# How often the status command is run.
refresh_interval: 1s

# Upper bound for every warp-cli invocation.
command_timeout: 10s

# Status output format: "text" (warp-cli status) or "json" (warp-cli --json status).
parser: text

# Read the operation mode from "warp-cli --json settings" when status omits it.
fetch_mode: true

# Argument overrides, e.g. for a wrapper script. Mode is appended to set_mode.
# commands:
#   status: ["--json", "status"]
#   connect: ["connect"]
#   disconnect: ["disconnect"]
#   settings: ["--json", "settings"]
#   set_mode: ["mode"]

# debug, info, warn or error
log_level: info

# Also write the activity log to this file.
# log_file: /tmp/warp-tui.log

# Serve Prometheus metrics, e.g. "127.0.0.1:9469".
# metrics_addr: ""
`

var ErrConfigExists = errors.New("config file already exists")

// WriteTemplate writes a commented default config to path, creating parent
// directories. An existing file is only replaced when force is set.
func WriteTemplate(path string, force bool) error {
	if path == "" {
		p, err := getUserConfigPath()
		if err != nil {
			return err
		}
		path = p
	}

	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%w: %s", ErrConfigExists, path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := writeFileWithContent(path, templateContent); err != nil {
		if isPermissionError(err) {
			return fmt.Errorf("insufficient permissions to write %s: %w", path, err)
		}
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// createFile is a variable so tests can fail the write or the close.
var createFile = func(path string) (io.WriteCloser, error) {
	return os.Create(path)
}

func writeFileWithContent(path, content string) error {
	file, err := createFile(path)
	if err != nil {
		return err
	}

	if _, err := io.WriteString(file, content); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

func isPermissionError(err error) bool {
	if errors.Is(err, os.ErrPermission) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "permission denied") ||
		strings.Contains(msg, "operation not permitted") ||
		strings.Contains(msg, "access is denied")
}
