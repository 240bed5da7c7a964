// Package config loads warp-tui settings from an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"warp-tui/internal/logging"
	"warp-tui/internal/vpn"
)

const (
	DefaultBinary          = "warp-cli"
	DefaultRefreshInterval = time.Second
	DefaultCommandTimeout  = 10 * time.Second
	MinRefreshInterval     = 100 * time.Millisecond

	appDirName     = "warp-tui"
	configFileName = "config.yaml"
)

type Config struct {
	Binary          string        `yaml:"binary"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	CommandTimeout  time.Duration `yaml:"command_timeout"`
	Parser          string        `yaml:"parser"`
	FetchMode       bool          `yaml:"fetch_mode"`
	Commands        Commands      `yaml:"commands"`
	LogLevel        string        `yaml:"log_level"`
	LogFile         string        `yaml:"log_file"`
	MetricsAddr     string        `yaml:"metrics_addr"`
}

// Commands overrides the arguments passed to the binary. Empty entries keep
// the defaults.
type Commands struct {
	Status     []string `yaml:"status,omitempty"`
	Connect    []string `yaml:"connect,omitempty"`
	Disconnect []string `yaml:"disconnect,omitempty"`
	Settings   []string `yaml:"settings,omitempty"`
	SetMode    []string `yaml:"set_mode,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Binary:          DefaultBinary,
		RefreshInterval: DefaultRefreshInterval,
		CommandTimeout:  DefaultCommandTimeout,
		Parser:          vpn.ParserText,
		FetchMode:       true,
		LogLevel:        "info",
	}
}

// getUserConfigPath is a variable so tests can point it elsewhere.
var getUserConfigPath = func() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("could not determine config directory: %w", err)
	}
	return filepath.Join(dir, appDirName, configFileName), nil
}

// DefaultPath returns the location used when no --config flag is given.
func DefaultPath() (string, error) {
	return getUserConfigPath()
}

// Load reads the config at path, or the default location when path is empty.
// A missing file yields the defaults; an explicitly named missing file is
// an error.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := getUserConfigPath()
		if err != nil {
			logging.Warn("config", "%v, using defaults", err)
			return DefaultConfig(), nil
		}
		path = p
	}

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			logging.Debug("config", "no config at %s, using defaults", path)
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("error opening configuration: %w", err)
	}
	defer file.Close()

	cfg := DefaultConfig()
	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("error parsing configuration %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Binary == "" {
		return errors.New("binary must not be empty")
	}
	if c.RefreshInterval < MinRefreshInterval {
		return fmt.Errorf("refresh_interval must be at least %s, got %s", MinRefreshInterval, c.RefreshInterval)
	}
	if c.CommandTimeout <= 0 {
		return fmt.Errorf("command_timeout must be positive, got %s", c.CommandTimeout)
	}
	if _, err := vpn.NewParser(c.Parser); err != nil {
		return err
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// VPNCommands merges the configured overrides onto the built-in argument
// vectors.
func (c *Config) VPNCommands() vpn.Commands {
	cmds := vpn.DefaultCommands()
	if len(c.Commands.Status) > 0 {
		cmds.Status = c.Commands.Status
	}
	if len(c.Commands.Connect) > 0 {
		cmds.Connect = c.Commands.Connect
	}
	if len(c.Commands.Disconnect) > 0 {
		cmds.Disconnect = c.Commands.Disconnect
	}
	if len(c.Commands.Settings) > 0 {
		cmds.Settings = c.Commands.Settings
	}
	if len(c.Commands.SetMode) > 0 {
		cmds.SetMode = c.Commands.SetMode
	}
	return cmds
}
