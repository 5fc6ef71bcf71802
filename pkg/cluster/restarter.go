// Package cluster keeps the broker cluster reachable by restarting it when
// its liveness probe fails.
package cluster

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/cuemby/keepalive/pkg/config"
	"github.com/cuemby/keepalive/pkg/events"
	"github.com/cuemby/keepalive/pkg/health"
	"github.com/cuemby/keepalive/pkg/log"
	"github.com/cuemby/keepalive/pkg/metrics"
	"github.com/cuemby/keepalive/pkg/process"
	"github.com/cuemby/keepalive/pkg/sleep"
	"github.com/cuemby/keepalive/pkg/types"
	"github.com/rs/zerolog"
)

// Restarter probes the broker cluster and brings it back up when the probe
// fails. It is optimistic: after the bring-up command and the settle delay
// the cluster is considered up without probing again.
type Restarter struct {
	cfg    config.ClusterConfig
	prober health.Prober
	runner process.Runner
	events events.Publisher
	clock  clock.Clock
	logger zerolog.Logger

	mu          sync.RWMutex
	state       types.ClusterState
	lastRestart time.Time
	restarts    int
}

// NewRestarter creates a restarter in the up state
func NewRestarter(cfg config.ClusterConfig, prober health.Prober, runner process.Runner, pub events.Publisher, clk clock.Clock) *Restarter {
	if pub == nil {
		pub = events.Discard
	}
	if clk == nil {
		clk = clock.New()
	}
	return &Restarter{
		cfg:    cfg,
		prober: prober,
		runner: runner,
		events: pub,
		clock:  clk,
		logger: log.WithComponent("cluster"),
		state:  types.ClusterStateUp,
	}
}

// State returns the current restarter state
func (r *Restarter) State() types.ClusterState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// Restarts returns how many restarts have been attempted and when the last began
func (r *Restarter) Restarts() (int, time.Time) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.restarts, r.lastRestart
}

// Reconcile probes the cluster once and restarts it if the probe fails.
// It reports whether a restart was attempted. Failures are logged, never
// returned.
func (r *Restarter) Reconcile(ctx context.Context) bool {
	result := r.prober.Probe(ctx, r.cfg.Probe, r.cfg.ProbeTimeout)
	if result.Healthy {
		metrics.ClusterUp.Set(1)
		metrics.UpdateComponent("cluster", true, "")
		r.logger.Debug().Dur("probe_duration", result.Duration).Msg("Broker cluster is up")
		return false
	}

	metrics.ClusterUp.Set(0)
	metrics.UpdateComponent("cluster", false, health.Summary(result))
	r.logger.Warn().Err(result.Err).Msg("Broker cluster liveness probe failed, restarting cluster")

	r.restart(ctx)
	return true
}

func (r *Restarter) restart(ctx context.Context) {
	r.mu.Lock()
	r.state = types.ClusterStateRestarting
	r.restarts++
	r.lastRestart = r.clock.Now()
	r.mu.Unlock()

	metrics.ClusterRestartsTotal.Inc()

	message := "cluster bring-up command completed"
	out, err := r.runner.Run(ctx, r.cfg.BringUp, r.cfg.BringUpTimeout)
	if err != nil {
		message = fmt.Sprintf("cluster bring-up command failed: %v", err)
		r.logger.Error().Err(err).Str("command", r.cfg.BringUp.String()).Msg("Cluster bring-up command failed")
	} else {
		r.logger.Info().Str("command", r.cfg.BringUp.String()).Str("output", out).Msg("Cluster bring-up command completed")
	}

	r.events.Publish(&events.Event{
		Type:    events.EventClusterRestarted,
		Message: message,
		Metadata: map[string]string{
			"settle_delay": r.cfg.SettleDelay.String(),
		},
	})

	r.logger.Info().Dur("settle_delay", r.cfg.SettleDelay).Msg("Waiting for cluster to settle")
	if err := sleep.For(ctx, r.clock, r.cfg.SettleDelay); err != nil {
		r.logger.Warn().Err(err).Msg("Settle wait interrupted")
	}

	r.mu.Lock()
	r.state = types.ClusterStateUp
	r.mu.Unlock()
}
