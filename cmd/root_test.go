package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warp-tui/internal/config"
	"warp-tui/internal/logging"
	"warp-tui/internal/ui"
	"warp-tui/internal/vpn"
)

// fakeWarp writes a shell script standing in for warp-cli.
func fakeWarp(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "warp-cli")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755))
	return path
}

// isolate keeps tests away from the real user config and stubs the
// interactive entry points.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	origCheck, origSetup, origTUI := checkSetup, runSetup, runTUI
	t.Cleanup(func() {
		checkSetup, runSetup, runTUI = origCheck, origSetup, origTUI
		logging.Reset()
	})
	checkSetup = func(binary string) (*config.SetupStatus, error) {
		return &config.SetupStatus{Binary: binary, Path: binary}, nil
	}
	runSetup = func(context.Context, *config.SetupStatus, ui.CheckFunc) (string, error) {
		t.Fatal("setup screen should not be shown")
		return "", nil
	}
	runTUI = func(context.Context, vpn.Service, ui.Options) error {
		t.Fatal("TUI should not be started")
		return nil
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSetVersion(t *testing.T) {
	SetVersion("1.2.3-test")
	assert.Equal(t, "1.2.3-test", rootCmd.Version)
}

func TestRootCommand(t *testing.T) {
	assert.Equal(t, "warp-tui", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
	assert.True(t, rootCmd.SilenceUsage)
}

func TestVersionTemplate(t *testing.T) {
	cmd := newRootCmd()
	cmd.Version = "1.0.0"
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"--version"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "warp-tui version 1.0.0\n", buf.String())
}

func TestNoTUIPrintsStatus(t *testing.T) {
	isolate(t)
	bin := fakeWarp(t, `case "$1" in
status) printf 'Status update: Connected\nMode: WarpWithDnsOverHttps\n' ;;
*) exit 1 ;;
esac
`)

	out, err := execute(t, "--no-tui", "--binary", bin)
	require.NoError(t, err)
	assert.Regexp(t, `Status:\s+Connected`, out)
	assert.Regexp(t, `Mode:\s+Warp\+DoH`, out)
	assert.Contains(t, out, "Updated:")
}

func TestNoTUIDisconnectedIsNotAnError(t *testing.T) {
	isolate(t)
	bin := fakeWarp(t, `printf 'Status update: Disconnected\nReason: Manual Disconnection\n'`)

	out, err := execute(t, "--no-tui", "--binary", bin, "--log-level", "error")
	require.NoError(t, err)
	assert.Regexp(t, `Status:\s+Disconnected`, out)
	assert.Regexp(t, `Detail:\s+Manual Disconnection`, out)
}

func TestNoTUIReportsToolFailure(t *testing.T) {
	isolate(t)
	bin := fakeWarp(t, `echo "Error: daemon not running" >&2; exit 1`)

	out, err := execute(t, "--no-tui", "--binary", bin)
	require.Error(t, err)
	assert.ErrorIs(t, err, vpn.ErrToolFailure)
	assert.Regexp(t, `Status:\s+Error`, out)
	assert.Contains(t, out, "daemon not running")
}

func TestNoTUIMissingBinary(t *testing.T) {
	isolate(t)
	checkSetup = func(binary string) (*config.SetupStatus, error) {
		return &config.SetupStatus{NeedsSetup: true, Binary: binary, Guidance: "install it"}, nil
	}

	_, err := execute(t, "--no-tui", "--binary", "no-such-warp-cli")
	assert.ErrorIs(t, err, vpn.ErrToolNotFound)
}

func TestFlagsOverrideConfigFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("binary: /usr/local/bin/warp-cli\nrefresh_interval: 5s\nparser: json\n"), 0o644))

	cmd := newRootCmd()
	opts := &rootOptions{configPath: path, interval: 2 * time.Second, parser: vpn.ParserText}

	// values of flags the user did not set are ignored
	cfg, err := resolveConfig(cmd, opts)
	require.NoError(t, err)
	assert.Equal(t, "/usr/local/bin/warp-cli", cfg.Binary)
	assert.Equal(t, 5*time.Second, cfg.RefreshInterval)
	assert.Equal(t, vpn.ParserJSON, cfg.Parser)

	require.NoError(t, cmd.Flags().Set("interval", "2s"))
	cfg, err = resolveConfig(cmd, opts)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, cfg.RefreshInterval)
	assert.Equal(t, vpn.ParserJSON, cfg.Parser)
}

func TestInvalidFlags(t *testing.T) {
	isolate(t)

	_, err := execute(t, "--no-tui", "--interval", "10ms")
	assert.ErrorContains(t, err, "refresh_interval")

	_, err = execute(t, "--no-tui", "--parser", "xml")
	assert.Error(t, err)

	_, err = execute(t, "unexpected-arg")
	assert.Error(t, err)
}

func TestTUIReceivesOptions(t *testing.T) {
	isolate(t)
	var got ui.Options
	runTUI = func(ctx context.Context, svc vpn.Service, opts ui.Options) error {
		require.NotNil(t, svc)
		got = opts
		return nil
	}

	_, err := execute(t, "--binary", "warp-cli", "--interval", "2s")
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, got.Interval)
	assert.NotNil(t, got.Logs)
	assert.Nil(t, got.Metrics)
}

func TestTUIWritesLogFile(t *testing.T) {
	isolate(t)
	logPath := filepath.Join(t.TempDir(), "warp-tui.log")
	runTUI = func(context.Context, vpn.Service, ui.Options) error {
		logging.Info("ui", "hello from the dashboard")
		return nil
	}

	_, err := execute(t, "--log-file", logPath)
	require.NoError(t, err)

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello from the dashboard")
}

func TestNoTUIWritesLogFile(t *testing.T) {
	isolate(t)
	logPath := filepath.Join(t.TempDir(), "warp-tui.log")
	bin := fakeWarp(t, `echo "Status update: Connected"`)
	checkSetup = func(binary string) (*config.SetupStatus, error) {
		return &config.SetupStatus{Binary: binary, Path: binary, Version: "warp-cli 2025.1"}, nil
	}

	_, err := execute(t, "--no-tui", "--binary", bin, "--log-file", logPath, "--log-level", "debug")
	require.NoError(t, err)

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "subsystem=cli")
	assert.Contains(t, string(data), "warp-cli 2025.1")
}

func TestSetupScreenSuppliesBinary(t *testing.T) {
	isolate(t)
	checkSetup = func(binary string) (*config.SetupStatus, error) {
		return &config.SetupStatus{NeedsSetup: true, Binary: binary}, nil
	}
	var shown bool
	runSetup = func(_ context.Context, status *config.SetupStatus, check ui.CheckFunc) (string, error) {
		shown = true
		assert.Equal(t, "warp-cli", status.Binary)
		return "/opt/warp/warp-cli", nil
	}
	var started bool
	runTUI = func(context.Context, vpn.Service, ui.Options) error {
		started = true
		return nil
	}

	_, err := execute(t)
	require.NoError(t, err)
	assert.True(t, shown)
	assert.True(t, started)
}

func TestSetupScreenAbandoned(t *testing.T) {
	isolate(t)
	checkSetup = func(binary string) (*config.SetupStatus, error) {
		return &config.SetupStatus{NeedsSetup: true, Binary: binary}, nil
	}
	runSetup = func(context.Context, *config.SetupStatus, ui.CheckFunc) (string, error) {
		return "", vpn.ErrToolNotFound
	}

	_, err := execute(t)
	assert.ErrorIs(t, err, vpn.ErrToolNotFound)
}

func TestInitConfig(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	out, err := execute(t, "--init-config", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)
	assert.FileExists(t, path)

	_, err = execute(t, "--init-config", "--config", path)
	assert.ErrorIs(t, err, config.ErrConfigExists)

	_, err = execute(t, "--init-config", "--config", path, "--force")
	assert.NoError(t, err)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig(), cfg)
}
