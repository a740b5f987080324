package cmd

import (
	"fmt"

	"github.com/brogergvhs/panelfetch/internal/config"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective config or manage config files",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, used, err := config.LoadMerged(baseOptions())
		if err != nil {
			return err
		}

		fmt.Printf("Loaded config from:\n  %s\n\n", used)
		cfg.Print()

		table := cfg.Rules()
		fmt.Printf("\nEffective rules: %d host rewrites, %d prefer-signed hosts\n",
			len(table.HostRewrites), len(table.PreferSignedHosts))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
