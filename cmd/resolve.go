package cmd

import (
	"fmt"

	"github.com/brogergvhs/panelfetch/internal/imgrequest"

	"github.com/spf13/cobra"
)

var (
	flagResolveChapter    string
	flagResolveForceProxy bool
	flagResolveCover      bool
)

func init() {
	resolveCmd := &cobra.Command{
		Use:   "resolve <image-url>",
		Short: "Show the request that would be made for one image URL",
		Args:  cobra.ExactArgs(1),
		RunE:  runResolve,
	}

	resolveCmd.Flags().StringVar(&flagResolveChapter, "chapter", "", "chapter page URL used as referer")
	resolveCmd.Flags().BoolVar(&flagResolveForceProxy, "force-proxy", false, "route the image through the reader proxy")
	resolveCmd.Flags().BoolVar(&flagResolveCover, "cover", false, "only print the normalized cover URL")

	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	p, err := newPipeline(baseOptions())
	if err != nil {
		return err
	}

	if flagResolveCover {
		fmt.Fprintln(cmd.OutOrStdout(), p.norm.NormalizeCoverURL(args[0]))
		return nil
	}

	res, ok := p.builder.Build(imgrequest.Request{
		RawURL:      args[0],
		ServerURL:   p.cfg.ServerURL,
		ChapterURL:  flagResolveChapter,
		ForceProxy:  flagResolveForceProxy,
		AccessToken: p.cfg.AccessToken,
	})
	if !ok {
		return fmt.Errorf("no request can be built for %q", args[0])
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "strategy: %s\n", res.Strategy)
	fmt.Fprintf(out, "resolved: %s\n", res.ResolvedURL)
	fmt.Fprintf(out, "request:  %s\n", res.RequestURL)
	fmt.Fprintln(out, "headers:")
	for _, h := range res.Headers {
		v := h.Value
		if h.Name == "Authorization" {
			v = "Bearer (set)"
		}
		fmt.Fprintf(out, "  %s: %s\n", h.Name, v)
	}

	return nil
}
