/*
Package events provides an in-memory event broker for keepalive remediation
events.

Components publish an Event whenever they act on the outside world: a cluster
restart, a worker relaunch, a metric publish, an alert. Subscribers receive
every event on a buffered channel. The run command subscribes once and
persists events into the history store, which is what `keepalive history`
prints.

# Delivery

	Publisher → event channel (buffer 100) → broadcast loop → subscribers (buffer 50 each)

Publish never blocks. When the broker buffer or a subscriber buffer is full
the event is dropped for that path; the watchdog loop must not stall on a
slow consumer.

# Event Types

  - cluster.restarted: liveness probe failed and the bring-up command ran
  - component.restarted / component.restart_failed: a worker relaunch
  - metrics.published: a catalogue publish finished (count in metadata)
  - alert.sent: the gap detector published a notification
  - verifier.failed: the widget verifier failed and a re-publish was forced
  - cycle.completed: one reconciliation cycle finished

Events get a UUID and a timestamp when published without them.
*/
package events
