package health

import (
	"context"
	"errors"
	"time"

	"github.com/cuemby/keepalive/pkg/types"
)

// ErrNoCommand is reported when a probe has no executable configured
var ErrNoCommand = errors.New("no command specified")

// Prober runs a bounded external check and reports liveness.
// Implementations never return an error: a failing probe is a health signal.
type Prober interface {
	Probe(ctx context.Context, cmd types.Command, timeout time.Duration) types.ProbeResult
}

// ProberFunc adapts a function to the Prober interface
type ProberFunc func(ctx context.Context, cmd types.Command, timeout time.Duration) types.ProbeResult

// Probe calls f
func (f ProberFunc) Probe(ctx context.Context, cmd types.Command, timeout time.Duration) types.ProbeResult {
	return f(ctx, cmd, timeout)
}

// DefaultTimeout applies when a caller passes a non-positive timeout
const DefaultTimeout = 10 * time.Second

// maxMessageOutput bounds how much output is echoed into log messages
const maxMessageOutput = 100

// Summary renders a short single-line description of a result for logs
func Summary(r types.ProbeResult) string {
	out := r.Output
	if len(out) > maxMessageOutput {
		out = out[:maxMessageOutput] + "..."
	}
	if r.Err != nil {
		if out == "" {
			return r.Err.Error()
		}
		return r.Err.Error() + ": " + out
	}
	return out
}
