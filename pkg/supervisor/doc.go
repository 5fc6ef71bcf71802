/*
Package supervisor keeps the catalogued worker processes alive.

One process listing is taken per pass (by default `docker exec kafka-1 ps
aux`). Every component whose name does not occur in that text is relaunched
through a process.Launcher: the launch is detached and its outcome is not
awaited. The next pass is the only confirmation.

# Component States

	            present in listing
	unknown ─────────────────────────→ healthy
	   │                                  ▲
	   │ absent, launch ok                │ present
	   ▼                                  │
	starting ─────────────────────────────┘
	   │ absent again → relaunched again
	   ▼
	failed   (launch could not be started; retried next pass)

Transition times come from the injected clock. States are bookkeeping for
the health endpoint and for tests; they never suppress a relaunch. A
component absent from the listing is relaunched on every pass, regardless of
state.

# Failure Handling

  - Listing probe fails: the whole pass is skipped, no state changes.
  - Launch fails: the component is marked failed and the next component is
    still checked.
*/
package supervisor
