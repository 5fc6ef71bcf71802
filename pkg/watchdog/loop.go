package watchdog

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/benbjohnson/clock"
	"github.com/cuemby/keepalive/pkg/config"
	"github.com/cuemby/keepalive/pkg/events"
	"github.com/cuemby/keepalive/pkg/log"
	"github.com/cuemby/keepalive/pkg/metrics"
	"github.com/cuemby/keepalive/pkg/sleep"
	"github.com/cuemby/keepalive/pkg/supervisor"
	"github.com/cuemby/keepalive/pkg/types"
	"github.com/rs/zerolog"
)

// Step names used in logs and the step panic counter
const (
	StepCluster    = "cluster"
	StepComponents = "components"
	StepPublish    = "publish"
	StepGapCheck   = "gap_check"
	StepVerify     = "verify"
	StepRepublish  = "republish"
)

// ClusterReconciler restarts the broker cluster when it is unreachable
type ClusterReconciler interface {
	Reconcile(ctx context.Context) bool
}

// ComponentReconciler relaunches missing worker processes
type ComponentReconciler interface {
	Reconcile(ctx context.Context) supervisor.Report
}

// MetricPublisher publishes the metric catalogue
type MetricPublisher interface {
	Publish(ctx context.Context) int
}

// GapChecker alerts on missing canary data
type GapChecker interface {
	CheckAndAlert(ctx context.Context) bool
}

// WidgetVerifier checks that the dashboard shows data
type WidgetVerifier interface {
	Verify(ctx context.Context) bool
}

// Steps are the collaborators of one cycle, in execution order
type Steps struct {
	Cluster    ClusterReconciler
	Components ComponentReconciler
	Publisher  MetricPublisher
	Gaps       GapChecker
	Verifier   WidgetVerifier
}

// CycleResult summarises one cycle
type CycleResult struct {
	Cycle            types.Cycle
	ClusterRestarted bool
	Components       supervisor.Report
	Published        int
	Alerted          bool
	VerifierPassed   bool
	Republished      int
	// Panicked lists steps that panicked and were recovered
	Panicked []string
	// Interrupted is set when the context ended mid-cycle
	Interrupted bool
}

// Loop drives the keepalive cycle forever
type Loop struct {
	cfg    config.LoopConfig
	steps  Steps
	events events.Publisher
	clock  clock.Clock
	logger zerolog.Logger
	cycles atomic.Uint64
}

// NewLoop creates a loop over steps
func NewLoop(cfg config.LoopConfig, steps Steps, pub events.Publisher, clk clock.Clock) *Loop {
	if pub == nil {
		pub = events.Discard
	}
	if clk == nil {
		clk = clock.New()
	}
	return &Loop{
		cfg:    cfg,
		steps:  steps,
		events: pub,
		clock:  clk,
		logger: log.WithComponent("watchdog"),
	}
}

// Cycles returns the number of cycles started so far
func (l *Loop) Cycles() uint64 {
	return l.cycles.Load()
}

// Run executes cycles separated by the configured interval until ctx is
// cancelled. It returns nil on cancellation.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Info().
		Dur("interval", l.cfg.Interval).
		Dur("step_delay", l.cfg.StepDelay).
		Msg("Keepalive loop started")

	for ctx.Err() == nil {
		l.RunNext(ctx)

		if err := sleep.For(ctx, l.clock, l.cfg.Interval); err != nil {
			break
		}
	}

	l.logger.Info().Uint64("cycles", l.Cycles()).Msg("Keepalive loop stopped")
	return nil
}

// RunNext starts the next numbered cycle and runs it to completion
func (l *Loop) RunNext(ctx context.Context) CycleResult {
	index := l.cycles.Add(1)
	return l.RunCycle(ctx, types.NewCycle(index, l.clock.Now()))
}

// RunCycle executes one pass: cluster, delay, components, delay, publish,
// delay, gap check, verifier, and a second publish when the verifier
// fails. A panicking step is recovered and the cycle moves on.
func (l *Loop) RunCycle(ctx context.Context, cycle types.Cycle) CycleResult {
	timer := metrics.NewTimer()
	logger := log.WithCycle(cycle.Index, cycle.ID)
	logger.Info().Time("started_at", cycle.StartedAt).Msg("Keepalive cycle started")

	res := CycleResult{Cycle: cycle}
	defer func() {
		timer.ObserveDuration(metrics.CycleDuration)
		metrics.CyclesTotal.Inc()
		l.finish(logger, res, timer)
	}()

	l.guard(logger, &res, StepCluster, func() {
		res.ClusterRestarted = l.steps.Cluster.Reconcile(ctx)
	})
	if !l.delay(ctx, &res) {
		return res
	}

	l.guard(logger, &res, StepComponents, func() {
		res.Components = l.steps.Components.Reconcile(ctx)
	})
	if !l.delay(ctx, &res) {
		return res
	}

	l.guard(logger, &res, StepPublish, func() {
		res.Published = l.steps.Publisher.Publish(ctx)
	})
	if !l.delay(ctx, &res) {
		return res
	}

	l.guard(logger, &res, StepGapCheck, func() {
		res.Alerted = l.steps.Gaps.CheckAndAlert(ctx)
	})

	// A panicking verifier leaves VerifierPassed false
	l.guard(logger, &res, StepVerify, func() {
		res.VerifierPassed = l.steps.Verifier.Verify(ctx)
	})
	if !res.VerifierPassed {
		logger.Warn().Msg("Widget verification failed, republishing metrics")
		l.guard(logger, &res, StepRepublish, func() {
			res.Republished = l.steps.Publisher.Publish(ctx)
		})
	}

	return res
}

func (l *Loop) delay(ctx context.Context, res *CycleResult) bool {
	if err := sleep.For(ctx, l.clock, l.cfg.StepDelay); err != nil {
		res.Interrupted = true
		return false
	}
	return true
}

// guard runs fn and recovers a panic
func (l *Loop) guard(logger zerolog.Logger, res *CycleResult, step string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			metrics.StepPanicsTotal.WithLabelValues(step).Inc()
			logger.Error().Str("step", step).Interface("panic", r).Msg("Step panicked, continuing with next step")
			res.Panicked = append(res.Panicked, step)
		}
	}()

	fn()
}

func (l *Loop) finish(logger zerolog.Logger, res CycleResult, timer *metrics.Timer) {
	if res.Interrupted {
		logger.Info().Msg("Keepalive cycle interrupted")
		return
	}

	logger.Info().
		Bool("cluster_restarted", res.ClusterRestarted).
		Int("components_restarted", len(res.Components.Restarted)).
		Int("published", res.Published).
		Bool("alerted", res.Alerted).
		Bool("verifier_passed", res.VerifierPassed).
		Dur("took", timer.Duration()).
		Msg("Keepalive cycle completed")

	l.events.Publish(&events.Event{
		Type:    events.EventCycleCompleted,
		Message: fmt.Sprintf("cycle %d completed", res.Cycle.Index),
		Metadata: map[string]string{
			"cycle":                strconv.FormatUint(res.Cycle.Index, 10),
			"cycle_id":             res.Cycle.ID,
			"cluster_restarted":    strconv.FormatBool(res.ClusterRestarted),
			"components_restarted": strconv.Itoa(len(res.Components.Restarted)),
			"published":            strconv.Itoa(res.Published),
			"alerted":              strconv.FormatBool(res.Alerted),
			"verifier_passed":      strconv.FormatBool(res.VerifierPassed),
		},
	})
}
