package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/cuemby/keepalive/pkg/storage"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded remediation events",
	Long: `Show the most recent events recorded by "keepalive run": cluster and
component restarts, publishes, alerts, verifier failures and completed
cycles. Newest first.

The store is locked while "keepalive run" is active, so run this against a
stopped watchdog or a copy of the data directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		eventType, _ := cmd.Flags().GetString("type")

		store, err := storage.NewBoltStore(loaded.Storage.DataDir)
		if err != nil {
			return fmt.Errorf("failed to open history store: %w", err)
		}
		defer store.Close()

		// Filtering happens after the read, so fetch everything when a type is given
		fetch := limit
		if eventType != "" {
			fetch = 0
		}
		list, err := store.ListEvents(fetch)
		if err != nil {
			return fmt.Errorf("failed to list events: %w", err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tTYPE\tMESSAGE")
		shown := 0
		for _, e := range list {
			if eventType != "" && !strings.EqualFold(string(e.Type), eventType) {
				continue
			}
			if limit > 0 && shown >= limit {
				break
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", e.Timestamp.Local().Format("2006-01-02 15:04:05"), e.Type, e.Message)
			shown++
		}
		return w.Flush()
	},
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "Maximum number of events to show (0 for all)")
	historyCmd.Flags().String("type", "", "Only show events of this type (e.g. component.restarted)")
}
