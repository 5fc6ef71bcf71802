package main

import (
	"fmt"
	"os"

	"github.com/cuemby/keepalive/pkg/config"
	"github.com/cuemby/keepalive/pkg/log"
	"github.com/spf13/cobra"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "keepalive",
	Short: "Keepalive - self-healing watchdog for a Kafka dashboard host",
	Long: `Keepalive keeps a small Kafka cluster, its producer and consumer
workers, and the metrics behind its dashboard alive.

Every cycle it restarts the broker cluster if it is unreachable, relaunches
missing workers, publishes the dashboard metric catalogue, and alerts when
the canary metric has gone missing.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		initLogging(cmd, cfg)
		return nil
	},
}

func init() {
	// Set version template
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"Keepalive version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to YAML config (defaults to the built-in reference deployment)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (overrides config)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Emit JSON log lines (overrides config)")

	// Add subcommands
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(onceCmd)
	rootCmd.AddCommand(emitCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
}

// loaded holds the configuration resolved by PersistentPreRunE
var loaded *config.Config

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")

	var (
		cfg *config.Config
		err error
	)
	if path == "" {
		cfg = config.Default()
		err = cfg.Validate()
	} else {
		cfg, err = config.Load(path)
	}
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	loaded = cfg
	return cfg, nil
}

func initLogging(cmd *cobra.Command, cfg *config.Config) {
	level := cfg.Log.Level
	if flag, _ := cmd.Flags().GetString("log-level"); flag != "" {
		level = flag
	}
	jsonOutput := cfg.Log.JSON
	if cmd.Flags().Changed("log-json") {
		jsonOutput, _ = cmd.Flags().GetBool("log-json")
	}

	log.Init(log.Config{
		Level:      log.ParseLevel(level),
		JSONOutput: jsonOutput,
	})
}
