package watchdog

import (
	"context"

	"github.com/cuemby/keepalive/pkg/config"
	"github.com/cuemby/keepalive/pkg/events"
	"github.com/cuemby/keepalive/pkg/health"
	"github.com/cuemby/keepalive/pkg/log"
	"github.com/cuemby/keepalive/pkg/metrics"
	"github.com/rs/zerolog"
)

// Verifier runs the external dashboard check. Exit status 0 passes; a
// non-zero exit, a timeout or a launch error fails.
type Verifier struct {
	cfg    config.VerifierConfig
	prober health.Prober
	events events.Publisher
	logger zerolog.Logger
}

// NewVerifier creates a verifier for cfg
func NewVerifier(cfg config.VerifierConfig, prober health.Prober, pub events.Publisher) *Verifier {
	if pub == nil {
		pub = events.Discard
	}
	return &Verifier{
		cfg:    cfg,
		prober: prober,
		events: pub,
		logger: log.WithComponent("verifier"),
	}
}

// Verify runs the check once. With no command configured it always passes.
func (v *Verifier) Verify(ctx context.Context) bool {
	if v.cfg.Command.IsZero() {
		return true
	}

	res := v.prober.Probe(ctx, v.cfg.Command, v.cfg.Timeout)
	if res.Healthy {
		metrics.UpdateComponent("verifier", true, "")
		v.logger.Info().Dur("took", res.Duration).Msg("Widget verification passed")
		return true
	}

	metrics.VerifierFailuresTotal.Inc()
	metrics.UpdateComponent("verifier", false, health.Summary(res))
	v.logger.Warn().Err(res.Err).Str("command", v.cfg.Command.String()).Msg("Widget verification failed")
	v.events.Publish(&events.Event{
		Type:     events.EventVerifierFailed,
		Message:  "widget verification failed: " + health.Summary(res),
		Metadata: map[string]string{"command": v.cfg.Command.String()},
	})
	return false
}
