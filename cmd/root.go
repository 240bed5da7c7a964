package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"warp-tui/internal/config"
	"warp-tui/internal/logging"
	"warp-tui/internal/metrics"
	"warp-tui/internal/ui"
	"warp-tui/internal/vpn"
)

const versionTemplate = `{{printf "warp-tui version %s\n" .Version}}`

type rootOptions struct {
	configPath  string
	binary      string
	interval    time.Duration
	timeout     time.Duration
	parser      string
	logLevel    string
	logFile     string
	metricsAddr string
	noTUI       bool
	initConfig  bool
	force       bool
}

// Swapped out in tests.
var (
	checkSetup = config.CheckSetupStatus
	runSetup   = ui.RunSetup
	runTUI     = ui.Run
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "warp-tui",
		Short: "Terminal dashboard for the Cloudflare WARP client",
		Long: `warp-tui shows the live state of the Cloudflare WARP client and lets you
connect, disconnect and switch operation modes from the keyboard.

It drives warp-cli, polling its status on a fixed interval. Only one warp-cli
invocation runs at a time; keys pressed while a command is running are
carried out once it finishes.

Keys:
  c  connect           d  disconnect        r  refresh now
  m  operation mode    y  copy status       q  quit

Settings are read from $XDG_CONFIG_HOME/warp-tui/config.yaml when present.
Use --init-config to write a commented template there.`,
		Args: cobra.NoArgs,
		// SilenceUsage is set to true to prevent printing usage on errors
		// that are not caused by bad flags (missing warp-cli, failed status)
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts)
		},
	}
	cmd.SetVersionTemplate(versionTemplate)

	flags := cmd.Flags()
	flags.StringVar(&opts.configPath, "config", "", "config file (default is $XDG_CONFIG_HOME/warp-tui/config.yaml)")
	flags.StringVar(&opts.binary, "binary", config.DefaultBinary, "WARP client binary to drive")
	flags.DurationVarP(&opts.interval, "interval", "i", config.DefaultRefreshInterval, "status refresh interval")
	flags.DurationVar(&opts.timeout, "timeout", config.DefaultCommandTimeout, "timeout for a single warp-cli invocation")
	flags.StringVar(&opts.parser, "parser", vpn.ParserText, "status output format to parse (text or json)")
	flags.StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	flags.StringVar(&opts.logFile, "log-file", "", "append logs to this file")
	flags.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. 127.0.0.1:9310)")
	flags.BoolVar(&opts.noTUI, "no-tui", false, "print the current status once and exit")
	flags.BoolVar(&opts.initConfig, "init-config", false, "write a config template and exit")
	flags.BoolVar(&opts.force, "force", false, "overwrite an existing config with --init-config")

	return cmd
}

// SetVersion sets the version for the root command
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute runs the root command. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra prints the error, we just exit non-zero
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, opts *rootOptions) error {
	if opts.initConfig {
		return writeConfigTemplate(cmd.OutOrStdout(), opts)
	}

	cfg, err := resolveConfig(cmd, opts)
	if err != nil {
		return err
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}

	var logFile io.Writer
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("error opening log file: %w", err)
		}
		defer f.Close()
		logFile = f
	}

	var logs <-chan logging.LogEntry
	if opts.noTUI {
		out := cmd.ErrOrStderr()
		if logFile != nil {
			out = io.MultiWriter(out, logFile)
		}
		logging.InitForCLI(level, out)
	} else {
		logs = logging.InitForTUI(level, logFile)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	status, err := checkSetup(cfg.Binary)
	if err != nil {
		return err
	}
	if status.NeedsSetup {
		if opts.noTUI {
			return status.Err()
		}
		binary, err := runSetup(ctx, status, checkSetup)
		if err != nil {
			return err
		}
		cfg.Binary = binary
	} else if status.Version != "" {
		logging.Debug("cli", "Using %s (%s)", status.Path, status.Version)
	}

	svc, err := newService(cfg)
	if err != nil {
		return err
	}

	if opts.noTUI {
		return printStatus(ctx, cmd.OutOrStdout(), svc)
	}

	var reg *metrics.Registry
	if cfg.MetricsAddr != "" {
		reg = metrics.New()
		go func() {
			if err := reg.Serve(ctx, cfg.MetricsAddr); err != nil {
				logging.Error("metrics", err, "Metrics endpoint stopped")
			}
		}()
	}

	return runTUI(ctx, svc, ui.Options{
		Interval: cfg.RefreshInterval,
		Logs:     logs,
		Metrics:  reg,
		Version:  cmd.Root().Version,
	})
}

// resolveConfig loads the config file and applies any flags the user set
// explicitly on top of it.
func resolveConfig(cmd *cobra.Command, opts *rootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("binary") {
		cfg.Binary = opts.binary
	}
	if flags.Changed("interval") {
		cfg.RefreshInterval = opts.interval
	}
	if flags.Changed("timeout") {
		cfg.CommandTimeout = opts.timeout
	}
	if flags.Changed("parser") {
		cfg.Parser = opts.parser
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = opts.logLevel
	}
	if flags.Changed("log-file") {
		cfg.LogFile = opts.logFile
	}
	if flags.Changed("metrics-addr") {
		cfg.MetricsAddr = opts.metricsAddr
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}

func newService(cfg *config.Config) (*vpn.WarpService, error) {
	parser, err := vpn.NewParser(cfg.Parser)
	if err != nil {
		return nil, err
	}
	runner := vpn.NewExecRunner(cfg.Binary, cfg.CommandTimeout)
	return vpn.NewService(runner,
		vpn.WithParser(parser),
		vpn.WithCommands(cfg.VPNCommands()),
		vpn.WithModeLookup(cfg.FetchMode),
	), nil
}

func writeConfigTemplate(out io.Writer, opts *rootOptions) error {
	path := opts.configPath
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}

	if err := config.WriteTemplate(path, opts.force); err != nil {
		if errors.Is(err, config.ErrConfigExists) {
			return fmt.Errorf("%w: %s (use --force to overwrite)", err, path)
		}
		return err
	}
	fmt.Fprintf(out, "Wrote config template to %s\n", path)
	return nil
}

// printStatus polls once and prints the result. A status that could not be
// read is printed and returned as the error.
func printStatus(ctx context.Context, out io.Writer, svc vpn.Service) error {
	state, err := svc.GetStatus(ctx)
	if err != nil {
		state = vpn.ErrorState(err, time.Time{})
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Status:\t%s\n", state.Status)
	if state.Detail != "" {
		fmt.Fprintf(w, "Detail:\t%s\n", state.Detail)
	}
	fmt.Fprintf(w, "Mode:\t%s\n", state.Mode)
	if state.AccountType != "" {
		fmt.Fprintf(w, "Account:\t%s\n", state.AccountType)
	}
	if !state.UpdatedAt.IsZero() {
		fmt.Fprintf(w, "Updated:\t%s\n", state.UpdatedAt.Format(time.RFC3339))
	}
	if ferr := w.Flush(); ferr != nil {
		return ferr
	}

	if err != nil {
		return fmt.Errorf("could not read WARP status: %w", err)
	}
	return nil
}
