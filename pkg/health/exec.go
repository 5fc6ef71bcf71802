package health

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/cuemby/keepalive/pkg/process"
	"github.com/cuemby/keepalive/pkg/types"
)

// ExecProber performs probes by running a command on the host.
// Exit code 0 is healthy; anything else, including a timeout or a
// command that cannot be started, is unhealthy.
type ExecProber struct{}

// NewExecProber creates a new exec prober
func NewExecProber() *ExecProber {
	return &ExecProber{}
}

// Probe runs cmd with the given timeout
func (e *ExecProber) Probe(ctx context.Context, cmd types.Command, timeout time.Duration) types.ProbeResult {
	start := time.Now()

	if cmd.IsZero() {
		return types.ProbeResult{
			Healthy:   false,
			Err:       ErrNoCommand,
			CheckedAt: start,
			Duration:  time.Since(start),
		}
	}

	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	c := exec.CommandContext(execCtx, cmd.Path, cmd.Args...)
	c.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}

	process.Bound(c)

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	err := c.Run()
	if err != nil {
		if errors.Is(execCtx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("%s timed out after %s: %w", cmd.Path, timeout, context.DeadlineExceeded)
		} else {
			err = fmt.Errorf("%s: %w", cmd.Path, err)
		}
		if stderr.Len() > 0 {
			err = fmt.Errorf("%w (stderr: %s)", err, strings.TrimSpace(stderr.String()))
		}

		return types.ProbeResult{
			Healthy:   false,
			Output:    stdout.String(),
			Err:       err,
			CheckedAt: start,
			Duration:  time.Since(start),
		}
	}

	return types.ProbeResult{
		Healthy:   true,
		Output:    stdout.String(),
		CheckedAt: start,
		Duration:  time.Since(start),
	}
}
