package cmd

import (
	"fmt"

	"github.com/brogergvhs/panelfetch/internal/config"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

var forceRemove bool

var configRemoveCmd = &cobra.Command{
	Use:   "remove [label]",
	Short: "Remove a config",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		label := ""
		if len(args) == 1 {
			label = args[0]
		} else {
			picked, err := pickConfig("Select config to remove")
			if err != nil {
				return err
			}
			label = picked
		}

		active, _ := config.CurrentLabel()
		if label == active && !forceRemove {
			prompt := promptui.Prompt{
				Label:     fmt.Sprintf("Config %q is active. Remove it anyway", label),
				IsConfirm: true,
			}
			if _, err := prompt.Run(); err != nil {
				fmt.Println("Aborted.")
				return nil
			}
		}

		if err := config.RemoveConfig(label); err != nil {
			return err
		}

		fmt.Printf("Removed configuration %q\n", label)
		return nil
	},
}

func init() {
	configRemoveCmd.Flags().BoolVarP(&forceRemove, "force", "f", false, "remove without confirmation")
	configCmd.AddCommand(configRemoveCmd)
}
