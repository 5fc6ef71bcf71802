package supervisor

import (
	"context"
	"strings"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/cuemby/keepalive/pkg/config"
	"github.com/cuemby/keepalive/pkg/events"
	"github.com/cuemby/keepalive/pkg/health"
	"github.com/cuemby/keepalive/pkg/log"
	"github.com/cuemby/keepalive/pkg/metrics"
	"github.com/cuemby/keepalive/pkg/process"
	"github.com/cuemby/keepalive/pkg/types"
	"github.com/rs/zerolog"
)

// Report summarises one reconcile pass
type Report struct {
	// Skipped is set when the process listing could not be obtained
	Skipped bool
	Present []string
	// Restarted lists components whose relaunch was started
	Restarted []string
	// Failed lists components whose relaunch could not be started
	Failed []string
}

// Supervisor keeps the catalogued worker processes running. It tracks a
// state per component; the catalogue itself never changes.
type Supervisor struct {
	cfg      config.SupervisorConfig
	catalog  []types.ComponentSpec
	prober   health.Prober
	launcher process.Launcher
	events   events.Publisher
	clock    clock.Clock
	logger   zerolog.Logger

	mu       sync.RWMutex
	statuses map[string]*types.ComponentStatus
}

// NewSupervisor creates a supervisor for the configured catalogue
func NewSupervisor(cfg config.SupervisorConfig, prober health.Prober, launcher process.Launcher, pub events.Publisher, clk clock.Clock) *Supervisor {
	if pub == nil {
		pub = events.Discard
	}
	if clk == nil {
		clk = clock.New()
	}

	catalog := make([]types.ComponentSpec, len(cfg.Components))
	copy(catalog, cfg.Components)

	statuses := make(map[string]*types.ComponentStatus, len(catalog))
	now := clk.Now()
	for _, spec := range catalog {
		statuses[spec.Name] = &types.ComponentStatus{
			Name:           spec.Name,
			State:          types.ProcessStateUnknown,
			LastTransition: now,
		}
	}

	return &Supervisor{
		cfg:      cfg,
		catalog:  catalog,
		prober:   prober,
		launcher: launcher,
		events:   pub,
		clock:    clk,
		logger:   log.WithComponent("supervisor"),
		statuses: statuses,
	}
}

// Reconcile lists processes once and relaunches every catalogued component
// whose name does not appear in the listing. Each missing component gets
// exactly one launch per call. A failed listing skips the pass.
func (s *Supervisor) Reconcile(ctx context.Context) Report {
	var report Report

	listing := s.prober.Probe(ctx, s.cfg.Listing, s.cfg.ListingTimeout)
	if !listing.Healthy {
		metrics.ListingFailuresTotal.Inc()
		metrics.UpdateComponent("supervisor", false, health.Summary(listing))
		s.logger.Error().Err(listing.Err).Str("command", s.cfg.Listing.String()).Msg("Failed to list processes, skipping component checks")
		report.Skipped = true
		return report
	}
	metrics.UpdateComponent("supervisor", true, "")

	for _, spec := range s.catalog {
		if strings.Contains(listing.Output, spec.Name) {
			s.markPresent(spec)
			report.Present = append(report.Present, spec.Name)
			continue
		}

		if err := s.relaunch(spec); err != nil {
			report.Failed = append(report.Failed, spec.Name)
		} else {
			report.Restarted = append(report.Restarted, spec.Name)
		}
	}

	if len(report.Restarted) > 0 || len(report.Failed) > 0 {
		s.logger.Info().
			Int("present", len(report.Present)).
			Strs("restarted", report.Restarted).
			Strs("failed", report.Failed).
			Msg("Component reconciliation finished")
	}

	return report
}

func (s *Supervisor) markPresent(spec types.ComponentSpec) {
	metrics.ComponentUp.WithLabelValues(spec.Name).Set(1)
	metrics.UpdateComponent(spec.Name, true, "")
	s.transition(spec.Name, types.ProcessStateHealthy, "")
}

func (s *Supervisor) relaunch(spec types.ComponentSpec) error {
	logger := log.WithTarget("supervisor", spec.Name)
	metrics.ComponentUp.WithLabelValues(spec.Name).Set(0)
	logger.Warn().Str("log_file", spec.LogFile).Msg("Component missing from process listing, relaunching")

	pid, err := s.launcher.Launch(spec.RestartCommand, spec.LogFile)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to relaunch component")
		metrics.ComponentRestartsTotal.WithLabelValues(spec.Name, "failed").Inc()
		metrics.UpdateComponent(spec.Name, false, err.Error())
		s.transition(spec.Name, types.ProcessStateFailed, err.Error())
		s.events.Publish(&events.Event{
			Type:     events.EventComponentRestartFailed,
			Message:  "failed to relaunch " + spec.Name + ": " + err.Error(),
			Metadata: map[string]string{"component": spec.Name},
		})
		return err
	}

	logger.Info().Int("pid", pid).Msg("Component relaunched")
	metrics.ComponentRestartsTotal.WithLabelValues(spec.Name, "started").Inc()
	metrics.UpdateComponent(spec.Name, false, "relaunched")
	s.transition(spec.Name, types.ProcessStateStarting, "")
	s.countRestart(spec.Name)
	s.events.Publish(&events.Event{
		Type:     events.EventComponentRestarted,
		Message:  "relaunched " + spec.Name,
		Metadata: map[string]string{"component": spec.Name, "log_file": spec.LogFile},
	})
	return nil
}

func (s *Supervisor) transition(name string, state types.ProcessState, lastErr string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.statuses[name]
	if st.State != state {
		st.State = state
		st.LastTransition = s.clock.Now()
	}
	st.LastError = lastErr
}

func (s *Supervisor) countRestart(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[name].Restarts++
}

// Status returns the tracked status of one component
func (s *Supervisor) Status(name string) (types.ComponentStatus, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.statuses[name]
	if !ok {
		return types.ComponentStatus{}, false
	}
	return *st, true
}

// Statuses returns a snapshot of every component in catalogue order
func (s *Supervisor) Statuses() []types.ComponentStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.ComponentStatus, 0, len(s.catalog))
	for _, spec := range s.catalog {
		out = append(out, *s.statuses[spec.Name])
	}
	return out
}
