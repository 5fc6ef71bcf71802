package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as YAML",
	Long: `Print the configuration keepalive would run with: the built-in
reference deployment overlaid with the file given by --config.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := loaded.Marshal()
		if err != nil {
			return fmt.Errorf("failed to render config: %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), string(data))
		return nil
	},
}
