package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/brogergvhs/panelfetch/internal/antiscrape"

	"github.com/spf13/cobra"
)

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List the built-in anti-scraping site profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		_, _ = fmt.Fprintln(w, "KEY\tNAME\tHOSTS\tREFERER\tUA")

		for _, p := range antiscrape.Default().Profiles() {
			ua := "default"
			if p.UserAgent != "" {
				ua = "custom"
			}
			referer := p.Referer
			if referer == "" {
				referer = "-"
			}
			if p.Key == antiscrape.StrictRefererKey {
				referer += " (strict)"
			}

			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				p.Key, p.Name, strings.Join(p.HostSuffixes, ","), referer, ua)
		}

		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(profilesCmd)
}
