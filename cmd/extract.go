package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/brogergvhs/panelfetch/internal/chapterpage"
	"github.com/brogergvhs/panelfetch/internal/util"

	"github.com/spf13/cobra"
)

var (
	flagExtractURL    string
	flagExtractBase   string
	flagExtractCookie string
)

func init() {
	extractCmd := &cobra.Command{
		Use:   "extract [file]",
		Short: "List the image URLs found in a chapter page (file, stdin or --url)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runExtract,
	}

	extractCmd.Flags().StringVar(&flagExtractURL, "url", "", "fetch the chapter page from this URL")
	extractCmd.Flags().StringVar(&flagExtractBase, "base", "", "resolve relative image URLs against this URL")
	extractCmd.Flags().StringVar(&flagExtractCookie, "cookie", "", "cookie string sent with --url")

	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	p, err := newPipeline(baseOptions())
	if err != nil {
		return err
	}

	base := flagExtractBase

	var body string
	switch {
	case flagExtractURL != "":
		client, err := util.NewHTTPClient(util.HTTPClientOptions{
			Timeout:          30 * time.Second,
			UserAgent:        util.PickUserAgent(p.cfg.UserAgent),
			Cookie:           flagExtractCookie,
			CloudflareBypass: p.cfg.CloudflareBypass,
			DebugLogger:      p.log,
		})
		if err != nil {
			return err
		}

		page, err := chapterpage.Fetch(cmd.Context(), client, flagExtractURL)
		if err != nil {
			return err
		}
		body = page.Body
		if base == "" {
			base = flagExtractURL
		}
	default:
		body, err = readInput(cmd, args)
		if err != nil {
			return err
		}
	}

	urls := p.extractor.ExtractImageURLs(body)
	p.log.Debugf("%d image URLs\n", len(urls))

	out := cmd.OutOrStdout()
	for _, u := range urls {
		if base != "" {
			u = p.norm.ResolveURL(u, base)
		}
		fmt.Fprintln(out, u)
	}

	return nil
}

func readInput(cmd *cobra.Command, args []string) (string, error) {
	var r io.Reader = cmd.InOrStdin()
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return "", err
		}
		defer func() {
			_ = f.Close()
		}()
		r = f
	}

	b, err := io.ReadAll(io.LimitReader(r, chapterpage.MaxBodySize))
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}

	return string(b), nil
}

// commandContext is cancelled on interrupt.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	return util.InterruptContext(ctx)
}
