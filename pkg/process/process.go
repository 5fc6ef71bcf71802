// Package process runs external commands for remediation: blocking runs for
// the cluster bring-up, detached launches for worker relaunches.
package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/cuemby/keepalive/pkg/types"
)

// ErrNoCommand is returned when a command has no executable
var ErrNoCommand = errors.New("no command specified")

// WaitDelay bounds how long a cancelled command may hold its output pipes
// open through descendants before Wait gives up on them
const WaitDelay = 2 * time.Second

// Bound makes a cancelled or timed out command release the caller promptly:
// its whole process group is killed and Wait stops waiting for descendants
// still holding stdout or stderr after WaitDelay.
func Bound(c *exec.Cmd) {
	killGroupOnCancel(c)
	c.WaitDelay = WaitDelay
}

// Runner executes a command and waits for it to finish
type Runner interface {
	Run(ctx context.Context, cmd types.Command, timeout time.Duration) (string, error)
}

// Launcher starts a command without waiting for it. The launched process
// outlives the call; its stdout and stderr go to logFile.
type Launcher interface {
	Launch(cmd types.Command, logFile string) (int, error)
}

// ExecRunner runs commands on the host
type ExecRunner struct{}

// NewExecRunner creates a new exec runner
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run executes cmd and returns its combined output. A non-positive timeout
// means no bound beyond ctx.
func (r *ExecRunner) Run(ctx context.Context, cmd types.Command, timeout time.Duration) (string, error) {
	if cmd.IsZero() {
		return "", ErrNoCommand
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	c := command(ctx, cmd)
	Bound(c)
	var out bytes.Buffer
	c.Stdout = &out
	c.Stderr = &out

	if err := c.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return out.String(), fmt.Errorf("%s timed out after %s: %w", cmd.Path, timeout, context.DeadlineExceeded)
		}
		return out.String(), fmt.Errorf("failed to run %s: %w (output: %s)", cmd.Path, err, strings.TrimSpace(out.String()))
	}

	return out.String(), nil
}

// ExecLauncher starts detached processes on the host
type ExecLauncher struct{}

// NewExecLauncher creates a new exec launcher
func NewExecLauncher() *ExecLauncher {
	return &ExecLauncher{}
}

// Launch starts cmd in its own session with output redirected to logFile
// and returns its PID. The child is reaped in the background.
func (l *ExecLauncher) Launch(cmd types.Command, logFile string) (int, error) {
	if cmd.IsZero() {
		return 0, ErrNoCommand
	}

	out, err := openLog(logFile)
	if err != nil {
		return 0, err
	}
	// The child holds its own descriptor once started
	defer out.Close()

	c := command(context.Background(), cmd)
	c.Stdout = out
	c.Stderr = out
	detach(c)

	if err := c.Start(); err != nil {
		return 0, fmt.Errorf("failed to start %s: %w", cmd.Path, err)
	}

	pid := c.Process.Pid
	go func() {
		_ = c.Wait()
	}()

	return pid, nil
}

func command(ctx context.Context, cmd types.Command) *exec.Cmd {
	c := exec.CommandContext(ctx, cmd.Path, cmd.Args...)
	c.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}
	return c
}

func openLog(path string) (*os.File, error) {
	if path == "" {
		path = os.DevNull
	} else if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}
	return f, nil
}
