package config

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"warp-tui/internal/vpn"
)

const versionCheckTimeout = 3 * time.Second

type SetupStatus struct {
	NeedsSetup bool
	Binary     string
	Path       string
	Version    string
	Guidance   string
}

// lookPath and versionRunner are variables so tests can fake the PATH.
var (
	lookPath      = exec.LookPath
	versionRunner = func(binary string) vpn.Runner {
		return vpn.NewExecRunner(binary, versionCheckTimeout)
	}
)

// CheckSetupStatus verifies the WARP client binary is installed. A missing
// binary is reported through NeedsSetup, not as an error.
func CheckSetupStatus(binary string) (*SetupStatus, error) {
	if binary == "" {
		return nil, errors.New("no binary configured")
	}
	status := &SetupStatus{Binary: binary}

	path, err := lookPath(binary)
	if err != nil {
		status.NeedsSetup = true
		status.Guidance = installGuidance(binary)
		return status, nil
	}
	status.Path = path

	ctx, cancel := context.WithTimeout(context.Background(), versionCheckTimeout)
	defer cancel()
	if out, err := versionRunner(binary).Run(ctx, "--version"); err == nil {
		status.Version = strings.TrimSpace(out)
	}
	return status, nil
}

// Err returns vpn.ErrToolNotFound with the install guidance when setup is
// still needed.
func (s *SetupStatus) Err() error {
	if s == nil || !s.NeedsSetup {
		return nil
	}
	return fmt.Errorf("%w: %q is not on PATH\n\n%s", vpn.ErrToolNotFound, s.Binary, s.Guidance)
}

func installGuidance(binary string) string {
	var instructions string

	switch runtime.GOOS {
	case "darwin":
		instructions = "Install the Cloudflare WARP client:\n" +
			"  brew install --cask cloudflare-warp"
	case "windows":
		instructions = "Install the Cloudflare WARP client from\n" +
			"  https://1.1.1.1/"
	default:
		instructions = "Install the Cloudflare WARP client from the package repository:\n" +
			"  https://pkg.cloudflareclient.com/\n" +
			"then register this device:\n" +
			"  warp-cli registration new"
	}

	return fmt.Sprintf("%s\n\nIf it is installed elsewhere, pass --binary or set `binary` in the config file (currently %q).", instructions, binary)
}
