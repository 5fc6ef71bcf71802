/*
Package health runs bounded external probes and turns their exit status into a
liveness signal.

Every check the watchdog makes against the outside world is a command: the
broker liveness probe, the combined process listing, and the widget verifier.
The Prober interface hides how those commands run so the cluster,
supervisor and watchdog packages can be tested with fakes.

# Probe Semantics

	exit 0                 → Healthy=true,  Output=stdout
	exit != 0              → Healthy=false, Err carries exit status and stderr
	timeout                → Healthy=false, Err wraps context.DeadlineExceeded
	cannot start / missing → Healthy=false, Err carries the exec error

A probe never returns an error to its caller. A failed probe is information
about the target, not a failure of the watchdog.

# Timeouts

Each caller passes its own bound. The reference deployment uses:

  - broker liveness: 5s
  - process listing: 10s
  - widget verifier: 120s

A non-positive timeout falls back to DefaultTimeout.

# Usage

	prober := health.NewExecProber()
	res := prober.Probe(ctx, types.Command{Path: "docker", Args: []string{"exec", "kafka-1", "echo", "test"}}, 5*time.Second)
	if !res.Healthy {
		logger.Warn().Err(res.Err).Msg("Broker unreachable")
	}
*/
package health
