/*
Package log provides structured logging for keepalive using zerolog.

The package wraps a single global zerolog.Logger. It is initialised once by
the CLI from the log section of the configuration and then shared by every
component through child loggers that carry a component field.

# Configuration

  - Level: debug, info, warn or error. Unknown names fall back to info.
  - JSONOutput: JSON lines (for journald / log shipping) instead of the
    human-readable console writer.
  - Output: destination writer, stdout when nil.

Until Init is called the global logger discards everything, so packages can
be exercised in tests without any logging setup.

# Usage

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true})

	clusterLog := log.WithComponent("cluster")
	clusterLog.Warn().Err(err).Msg("Liveness probe failed, restarting cluster")

	cycleLog := log.WithCycle(cycle.Index, cycle.ID)
	cycleLog.Info().Msg("Keepalive cycle started")

	compLog := log.WithTarget("supervisor", "KafkaProducer1")
	compLog.Info().Str("log_file", spec.LogFile).Msg("Relaunching component")

# Fields

Child loggers add these fields:

  - component: owning package (cluster, supervisor, telemetry, alert, watchdog)
  - cycle, cycle_id: reconciliation pass
  - target: supervised component, metric or topic
*/
package log
