package cmd

import (
	"fmt"

	"github.com/brogergvhs/panelfetch/internal/config"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

var configSwitchCmd = &cobra.Command{
	Use:   "switch [label]",
	Short: "Switch to a different config",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		label := ""
		if len(args) == 1 {
			label = args[0]
		} else {
			picked, err := pickConfig("Select config")
			if err != nil {
				return err
			}
			label = picked
		}

		if err := config.SwitchConfig(label); err != nil {
			return err
		}

		fmt.Println("Switched to:", label)
		return nil
	},
}

// pickConfig asks for one of the saved configs.
func pickConfig(title string) (string, error) {
	list, err := config.ListConfigs()
	if err != nil {
		return "", err
	}
	if len(list) == 0 {
		return "", fmt.Errorf("no configs available")
	}

	items := make([]string, 0, len(list))
	for _, c := range list {
		if c.Active {
			items = append(items, c.Label+"  (active)")
		} else {
			items = append(items, c.Label)
		}
	}

	prompt := promptui.Select{
		Label: title,
		Items: items,
	}

	idx, _, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("selection cancelled")
	}

	return list[idx].Label, nil
}

func init() {
	configCmd.AddCommand(configSwitchCmd)
}
