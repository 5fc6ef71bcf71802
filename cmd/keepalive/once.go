package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/benbjohnson/clock"
	"github.com/spf13/cobra"
)

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Run a single keepalive cycle and exit",
	Long: `Run one keepalive cycle (cluster, components, publish, gap check,
verifier) and exit. The minimal emitter is stopped before exiting.

Exits non-zero if the cycle was interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loaded

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		hist, err := openHistory(cfg.Storage)
		if err != nil {
			return err
		}
		defer hist.Close()

		a, err := newApp(ctx, cfg, hist.broker, hist.store, clock.New())
		if err != nil {
			return err
		}
		defer a.Close()

		res := a.loop.RunNext(ctx)
		if res.Interrupted {
			return fmt.Errorf("cycle %d interrupted", res.Cycle.Index)
		}

		fmt.Printf("Cycle %d (%s)\n", res.Cycle.Index, res.Cycle.ID)
		fmt.Printf("  Cluster restarted:    %t\n", res.ClusterRestarted)
		if res.Components.Skipped {
			fmt.Printf("  Components:           skipped (process listing failed)\n")
		} else {
			fmt.Printf("  Components present:   %d\n", len(res.Components.Present))
			fmt.Printf("  Components restarted: %v\n", res.Components.Restarted)
			if len(res.Components.Failed) > 0 {
				fmt.Printf("  Components failed:    %v\n", res.Components.Failed)
			}
		}
		fmt.Printf("  Metrics published:    %d\n", res.Published)
		fmt.Printf("  Gap alert sent:       %t\n", res.Alerted)
		fmt.Printf("  Verifier passed:      %t\n", res.VerifierPassed)
		if !res.VerifierPassed {
			fmt.Printf("  Metrics republished:  %d\n", res.Republished)
		}
		if len(res.Panicked) > 0 {
			fmt.Printf("  Panicked steps:       %v\n", res.Panicked)
		}
		return nil
	},
}
