// Package sleep blocks on an injectable clock so delays can be driven by a
// mock clock in tests.
package sleep

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
)

// For waits d on clk or until ctx is done. A non-positive d returns at once.
func For(ctx context.Context, clk clock.Clock, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := clk.Timer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
