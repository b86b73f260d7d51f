package agent

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"github.com/gofrs/flock"
	"github.com/rs/zerolog"

	"github.com/aoyoqui/benderr/pkg/config"
)

// defaultLockRetry is the delay between attempts to take the environment
// directory lock. Interpreter keeps retrying until the lock is free or ctx
// is done; there is no separate time limit.
const defaultLockRetry = 2 * time.Second

// Provisioner resolves an interpreter path bound to a plan's
// package-provisioning policy for a named sequence.
type Provisioner interface {
	Interpreter(ctx context.Context, sequenceName string, pkgs config.PackagesConfig) (string, error)
}

// LocalProvisioner is the Go port of br_agent's EnvManager: it keeps one
// venv per sequence name under pkgs.EnvRoot, installing requirements
// in-place before handing back the venv's interpreter.
//
// Exactly one process should write to a given environment directory at a
// time; a per-directory flock enforces that even though the scheduler's
// own sequential admission already implies it, because a stray second
// agent process pointed at the same env_root must not corrupt an
// in-progress install.
type LocalProvisioner struct {
	log zerolog.Logger
}

// NewLocalProvisioner creates a LocalProvisioner. Diagnostic output from
// the underlying pip/venv invocations is logged through log.
func NewLocalProvisioner(log zerolog.Logger) *LocalProvisioner {
	return &LocalProvisioner{log: log}
}

func (p *LocalProvisioner) Interpreter(ctx context.Context, sequenceName string, pkgs config.PackagesConfig) (string, error) {
	envDir := filepath.Join(pkgs.EnvRoot, sequenceName)
	if err := os.MkdirAll(pkgs.EnvRoot, 0o755); err != nil {
		return "", fmt.Errorf("creating env root: %w", err)
	}

	lock := flock.New(envDir + ".lock")
	locked, err := lock.TryLockContext(ctx, defaultLockRetry)
	if err != nil || !locked {
		return "", fmt.Errorf("locking environment %s: %w", envDir, err)
	}
	defer func() { _ = lock.Unlock() }()

	interpreter := pythonPath(envDir)
	if _, err := os.Stat(interpreter); err != nil {
		p.log.Info().Str("sequence", sequenceName).Str("env_dir", envDir).Msg("creating environment")
		if err := runLogged(ctx, p.log, "python3", "-m", "venv", envDir); err != nil {
			return "", fmt.Errorf("creating venv: %w", err)
		}
	}

	if len(pkgs.Requirements) == 0 {
		return interpreter, nil
	}

	args := []string{"-m", "pip", "install"}
	if pkgs.FindLinks != "" {
		args = append(args, "--find-links", pkgs.FindLinks)
	}
	if pkgs.AllowOnline {
		for _, url := range pkgs.ExtraIndexURLs {
			args = append(args, "--extra-index-url", url)
		}
	} else {
		args = append(args, "--no-index")
	}
	args = append(args, pkgs.Requirements...)

	p.log.Info().Str("sequence", sequenceName).Strs("requirements", pkgs.Requirements).Msg("installing requirements")
	if err := runLogged(ctx, p.log, interpreter, args...); err != nil {
		return "", fmt.Errorf("installing requirements: %w", err)
	}
	return interpreter, nil
}

func pythonPath(envDir string) string {
	if runtime.GOOS == "windows" {
		return filepath.Join(envDir, "Scripts", "python.exe")
	}
	return filepath.Join(envDir, "bin", "python")
}

func runLogged(ctx context.Context, log zerolog.Logger, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.CombinedOutput()
	if len(out) > 0 {
		log.Debug().Str("command", name).Bytes("output", out).Msg("provisioner command output")
	}
	return err
}
