/*
Package types defines the data model shared by the keepalive packages.

It holds the values that cross package boundaries: external command
descriptions, the component catalogue entries, probe results, the tracked
process and cluster states, and the per-iteration Cycle record. Metric
descriptors live in the telemetry package next to the code that builds them.

# Core Types

  - Command: path, arguments, working directory and extra environment of an
    external command. Probes, restarts and the widget verifier are all
    Commands.
  - ComponentSpec: a named worker process plus the command that relaunches
    it and the log file its output is redirected to.
  - ProbeResult: healthy flag, captured output and the error that made a
    probe fail. A failing probe is a health signal, never a fatal error.
  - ProcessState: unknown, starting, healthy, failed.
  - ClusterState: up, restarting.
  - Cycle: index, unique ID and start time of one reconciliation pass.

The component catalogue is fixed for the lifetime of the process. Nothing in
this package mutates it; the supervisor copies what it needs at construction.
*/
package types
