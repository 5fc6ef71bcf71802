/*
Package storage persists keepalive history in an embedded BoltDB file.

The watchdog itself is stateless between cycles; nothing here affects the
remediation decisions. Two things are kept across restarts of the watchdog
process:

  - events: every remediation event broadcast by the events broker, keyed by
    timestamp so `keepalive history` can list the newest first. History is
    trimmed to a configured size by Record.
  - alerts: the time the last gap alert was sent per alert key, used by the
    gap detector when alert deduplication is enabled.

# Layout

	<data_dir>/keepalive.db
	├── events   key: big-endian unix nanos + event ID   value: JSON Event
	└── alerts   key: alert key                           value: {"sent_at": ...}

BoltDB allows a single writer process; a second watchdog pointed at the same
data directory waits up to five seconds for the file lock and then fails to
start.
*/
package storage
