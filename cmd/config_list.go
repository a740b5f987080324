package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/brogergvhs/panelfetch/internal/config"

	"github.com/spf13/cobra"
)

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all available configs",
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := config.ListConfigs()
		if err != nil {
			return fmt.Errorf("cannot read configs directory: %w", err)
		}
		if len(list) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No configs yet. Run `panelfetch config init` to create one.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 4, ' ', 0)
		_, _ = fmt.Fprintln(w, "LABEL\tPATH\tACTIVE")

		for _, c := range list {
			activeMark := ""
			if c.Active {
				activeMark = "yes"
			}
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", c.Label, c.Path, activeMark)
		}

		return w.Flush()
	},
}

func init() {
	configCmd.AddCommand(configListCmd)
}
