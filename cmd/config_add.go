package cmd

import (
	"fmt"

	"github.com/brogergvhs/panelfetch/internal/config"

	"github.com/spf13/cobra"
)

var configAddCmd = &cobra.Command{
	Use:   "add <label>",
	Short: "Save a new config from the defaults plus --server, --token and --user-agent",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.DefaultConfig()
		cfg.ServerURL = flagServer
		cfg.ServerKind = flagServerKind
		cfg.AccessToken = flagToken
		cfg.UserAgent = flagUserAgent

		path, err := config.AddConfig(args[0], cfg)
		if err != nil {
			return err
		}

		fmt.Printf("Created new config: %s\n", path)
		fmt.Printf("Run `panelfetch config switch %s` to use it.\n", args[0])
		return nil
	},
}

func init() {
	configCmd.AddCommand(configAddCmd)
}
