package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	flagIgnoreConfig bool
	flagDebug        bool

	flagServer     string
	flagServerKind string
	flagToken      string
	flagUserAgent  string

	flagSameOriginAuth bool
)

var rootCmd = &cobra.Command{
	Use:           "panelfetch",
	Short:         "Resolve, extract and download manga chapter images",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVar(&flagDebug, "debug", false, "enable debug logging")
	pf.BoolVar(&flagIgnoreConfig, "ignore-config", false, "ignore config and use only CLI flags")
	pf.StringVar(&flagServer, "server", "", "reader server URL (e.g. https://host/api/5)")
	pf.StringVar(&flagServerKind, "server-kind", "", "backend kind: reader or static (detected from the URL when empty)")
	pf.StringVar(&flagToken, "token", "", "reader access token")
	pf.StringVar(&flagUserAgent, "user-agent", "", "override User-Agent")
	pf.BoolVar(&flagSameOriginAuth, "same-origin-auth", false, "send the access token only to the reader server's own origin")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
