package cmd

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/brogergvhs/panelfetch/internal/chapterpage"
	"github.com/brogergvhs/panelfetch/internal/downloader"
	"github.com/brogergvhs/panelfetch/internal/imgrequest"
	"github.com/brogergvhs/panelfetch/internal/ui"
	"github.com/brogergvhs/panelfetch/internal/util"

	"github.com/spf13/cobra"
)

var (
	// runtime
	flagOutput       string
	flagImageWorkers int
	flagKeepFolders  bool
	flagSkipBroken   bool
	flagDryRun       bool
	flagForceProxy   bool

	// headers/auth
	flagCookie     string
	flagCookieFile string
	flagCloudflare bool
)

func init() {
	fetchCmd := &cobra.Command{
		Use:   "fetch <chapter-url>",
		Short: "Download every image of a chapter page and pack it as CBZ. Uses the selected config, overwritten by CLI flags",
		Args:  cobra.ExactArgs(1),
		RunE:  runFetch,
	}

	// runtime
	fetchCmd.Flags().StringVar(&flagOutput, "output", "", "output folder for CBZ files")
	fetchCmd.Flags().IntVar(&flagImageWorkers, "image-workers", 5, "parallel image downloads")
	fetchCmd.Flags().BoolVar(&flagKeepFolders, "keep-folders", false, "keep the image folder next to the CBZ")
	fetchCmd.Flags().BoolVar(&flagSkipBroken, "skip-broken", false, "skip failed images instead of failing the whole chapter")
	fetchCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "print the planned requests, don't download")
	fetchCmd.Flags().BoolVar(&flagForceProxy, "force-proxy", false, "route every image through the reader proxy")

	// headers/auth
	fetchCmd.Flags().StringVar(&flagCookie, "cookie", "", "cookie string, e.g. \"key=value; other=123\"")
	fetchCmd.Flags().StringVar(&flagCookieFile, "cookie-file", "", "path to a text file with cookies (one header line)")
	fetchCmd.Flags().BoolVar(&flagCloudflare, "cloudflare", false, "use a browser-like TLS setup for Cloudflare protected sites")

	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	chapterURL := args[0]

	opts := baseOptions()
	opts.Output = flagOutput
	opts.KeepFolders = flagKeepFolders
	opts.SkipBroken = flagSkipBroken
	if cmd.Flags().Changed("image-workers") {
		opts.ImageWorkers = flagImageWorkers
	}

	p, err := newPipeline(opts)
	if err != nil {
		return err
	}
	cfg := p.cfg
	if flagCloudflare {
		cfg.CloudflareBypass = true
	}

	p.log.Infof("Config: %s\n", firstLine(p.source))
	if cfg.Debug {
		cfg.Print()
	}

	client, err := util.NewHTTPClient(util.HTTPClientOptions{
		Timeout:          30 * time.Second,
		UserAgent:        util.PickUserAgent(cfg.UserAgent),
		Cookie:           flagCookie,
		CookieFile:       flagCookieFile,
		CloudflareBypass: cfg.CloudflareBypass,
		DebugLogger:      p.log,
	})
	if err != nil {
		return err
	}

	ctx, stop := commandContext(cmd)
	defer stop()

	page, err := chapterpage.Fetch(ctx, client, chapterURL)
	if err != nil {
		return err
	}

	images := p.extractor.ExtractImageURLs(page.Body)
	if len(images) == 0 {
		return fmt.Errorf("no images found on %s", chapterURL)
	}
	p.log.Infof("%s: %d images\n", page.Name(), len(images))

	// without a reader server, relative references belong to the chapter site
	if cfg.ServerURL == "" {
		if origin := siteOrigin(chapterURL); origin != "" {
			for i, u := range images {
				images[i] = p.norm.ResolveURL(u, origin)
			}
		}
	}

	planner := downloader.RequestPlanner{
		Builder: p.builder,
		Template: imgrequest.Request{
			ServerURL:   cfg.ServerURL,
			ChapterURL:  chapterURL,
			ForceProxy:  flagForceProxy,
			AccessToken: cfg.AccessToken,
		},
	}

	if flagDryRun {
		return printPlan(cmd, planner, images)
	}

	return downloadChapter(ctx, cmd.OutOrStdout(), p, client, planner, page, images)
}

func downloadChapter(ctx context.Context, out io.Writer, p *pipeline, client *http.Client, planner downloader.Planner, page *chapterpage.Page, images []string) error {
	cfg := p.cfg

	if err := os.MkdirAll(cfg.Output, 0755); err != nil {
		return fmt.Errorf("cannot create output folder: %w", err)
	}

	// leftovers of interrupted runs
	if removed, err := util.CleanupUnfinishedTempFolders(cfg.Output); err == nil {
		for _, dir := range removed {
			p.log.Infof("Removed %s\n", dir)
		}
	}

	stats := &ui.Stats{}
	dl := downloader.New(client, planner, downloader.Options{
		Workers:    cfg.ImageWorkers,
		SkipBroken: cfg.SkipBroken,
		Logger:     p.log,
		Stats:      stats,
	})

	pm := ui.NewProgressManager(out)
	handle := pm.Register(page.Name(), len(images))

	tmpFolder := filepath.Join(cfg.Output, page.FolderName())
	cbzOut := page.OutputCBZPath(cfg.Output)
	start := time.Now()

	files, err := dl.Fetch(ctx, images, tmpFolder, handle)
	handle.Done()
	pm.Close()

	if err != nil {
		_ = os.RemoveAll(tmpFolder)
		util.RemoveIfEmpty(cfg.Output)
		return fmt.Errorf("chapter %s failed: %w", page.Name(), err)
	}
	if len(files) == 0 {
		_ = os.RemoveAll(tmpFolder)
		return fmt.Errorf("chapter %s: %w", page.Name(), downloader.ErrNoPlan)
	}

	if err := util.CreateCBZ(files, cbzOut); err != nil {
		_ = os.RemoveAll(tmpFolder)
		return err
	}

	if cfg.KeepFolders {
		kept := filepath.Join(cfg.Output, page.Name())
		if err := os.Rename(tmpFolder, kept); err != nil {
			p.log.Warnf("could not keep %s: %v\n", tmpFolder, err)
		}
	} else {
		_ = os.RemoveAll(tmpFolder)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Download Summary:")
	fmt.Fprintf(out, "CBZ:    %s\n", cbzOut)
	fmt.Fprintf(out, "Images: %s\n", stats.Summary())
	fmt.Fprintf(out, "Time:   %s\n", time.Since(start).Round(time.Second))

	return nil
}

func printPlan(cmd *cobra.Command, planner downloader.Planner, images []string) error {
	out := cmd.OutOrStdout()
	for i, raw := range images {
		res, ok := planner.Plan(raw, false)
		if !ok {
			fmt.Fprintf(out, "%3d) refused  %s\n", i+1, raw)
			continue
		}
		fmt.Fprintf(out, "%3d) %-8s %s\n", i+1, res.Strategy, res.RequestURL)
	}

	return nil
}

func siteOrigin(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}

	return u.Scheme + "://" + u.Host
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}

	return s
}
