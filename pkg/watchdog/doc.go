/*
Package watchdog drives the keepalive cycle.

Every cycle runs the same fixed sequence and then sleeps the loop interval:

	┌──────────────────────────────────────────────────────┐
	│                   Keepalive Cycle                    │
	└──────────────────────────┬───────────────────────────┘
	                           │
	  cluster.Restarter.Reconcile        probe broker, bring up if down
	                           │  step delay
	  supervisor.Supervisor.Reconcile    relaunch missing workers
	                           │  step delay
	  telemetry.Publisher.Publish        full catalogue, ensure emitter
	                           │  step delay
	  alert.GapDetector.CheckAndAlert    canary gap → notification
	                           │
	  Verifier.Verify                    external widget check
	                           │
	           failed? ── yes ──▶ telemetry.Publisher.Publish again

The reference deployment uses a 5s step delay and a 300s interval.

# Failure Handling

Each collaborator absorbs its own failures and returns a neutral result.
The loop additionally runs every step under a recover guard: a panic is
logged, counted in keepalive_step_panics_total{step} and the cycle moves on
to the next step. A panicking verifier counts as a failed verification.
Nothing short of context cancellation stops Run.

# Cycles

Each iteration gets a types.Cycle with a monotonically increasing index and a
UUID. Log lines carry both, and a cycle.completed event summarises the pass.
*/
package watchdog
