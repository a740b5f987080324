// Package downloader fetches resolved chapter images to disk with a bounded
// worker pool.
package downloader

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/brogergvhs/panelfetch/internal/imgrequest"
	"github.com/brogergvhs/panelfetch/internal/ui"
)

// MaxImageSize caps a single downloaded image.
const MaxImageSize = 64 << 20

// ErrNoPlan is returned for an image URL that no request could be built for.
var ErrNoPlan = errors.New("no usable request for image")

// Planner turns a raw image URL into a request. forceProxy asks for the
// proxied variant when one exists.
type Planner interface {
	Plan(raw string, forceProxy bool) (imgrequest.Result, bool)
}

// RequestPlanner fills RawURL into Template and hands it to Builder.
type RequestPlanner struct {
	Builder  *imgrequest.Builder
	Template imgrequest.Request
}

func (p RequestPlanner) Plan(raw string, forceProxy bool) (imgrequest.Result, bool) {
	req := p.Template
	req.RawURL = raw
	req.ForceProxy = req.ForceProxy || forceProxy

	return p.Builder.Build(req)
}

type Options struct {
	Workers    int
	SkipBroken bool
	Attempts   int
	Backoff    time.Duration
	Timeout    time.Duration
	Logger     *ui.Logger
	Stats      *ui.Stats
}

type Downloader struct {
	client  *http.Client
	planner Planner
	opts    Options
	log     *ui.Logger
}

func New(c *http.Client, p Planner, opts Options) *Downloader {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Attempts < 1 {
		opts.Attempts = 3
	}
	if opts.Backoff <= 0 {
		opts.Backoff = time.Second
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Stats == nil {
		opts.Stats = &ui.Stats{}
	}

	log := opts.Logger
	if log == nil {
		log = ui.NewLogger(false)
	}

	return &Downloader{client: c, planner: p, opts: opts, log: log}
}

// Fetch downloads every URL into folder as page_NNN.ext and returns the
// written files in page order. A page whose direct request fails is planned
// again with the proxy forced and retried once if that changes the target.
// Unless SkipBroken is set the first failed page aborts the rest.
func (d *Downloader) Fetch(ctx context.Context, urls []string, folder string, progress ui.Progress) ([]string, error) {
	if err := os.MkdirAll(folder, 0755); err != nil {
		return nil, err
	}

	var (
		mu     sync.Mutex
		files  = make([]string, 0, len(urls))
		failed int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.opts.Workers)

	for i, raw := range urls {
		if gctx.Err() != nil {
			break
		}

		i, raw := i, raw
		g.Go(func() error {
			name := fmt.Sprintf("page_%03d", i+1)

			file, n, err := d.fetchPage(gctx, raw, filepath.Join(folder, name))
			if err != nil {
				mu.Lock()
				failed++
				mu.Unlock()
				d.opts.Stats.Failed.Add(1)

				if progress != nil {
					progress.Add(0)
				}

				if !d.opts.SkipBroken {
					return fmt.Errorf("image %d: %w", i+1, err)
				}

				d.log.Warnf("skipping image %d (%s): %v\n", i+1, raw, err)
				return nil
			}

			mu.Lock()
			files = append(files, file)
			mu.Unlock()

			d.opts.Stats.TotalImages.Add(1)
			d.opts.Stats.TotalBytes.Add(n)
			if progress != nil {
				progress.Add(n)
			}

			return nil
		})
	}

	err := g.Wait()
	if progress != nil {
		progress.Done()
	}

	sort.Strings(files)

	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		return files, err
	}

	if failed > 0 {
		d.log.Warnf("%d/%d images skipped\n", failed, len(urls))
	}

	return files, nil
}

func (d *Downloader) fetchPage(ctx context.Context, raw, base string) (string, int64, error) {
	res, ok := d.planner.Plan(raw, false)
	if !ok {
		return "", 0, fmt.Errorf("%w: %s", ErrNoPlan, raw)
	}

	d.log.Debugf("%s %s\n", res.Strategy, res.RequestURL)

	file, n, err := d.downloadWithRetry(ctx, res, base)
	if err == nil || ctx.Err() != nil {
		return file, n, err
	}

	proxied, ok := d.planner.Plan(raw, true)
	if !ok || proxied.RequestURL == res.RequestURL {
		return "", 0, err
	}

	d.log.Debugf("direct fetch failed (%v), retrying via %s\n", err, proxied.Strategy)
	d.opts.Stats.ProxyRetries.Add(1)

	file, n, perr := d.download(ctx, proxied, base)
	if perr != nil {
		return "", 0, fmt.Errorf("%v; proxy: %w", err, perr)
	}

	return file, n, nil
}

func (d *Downloader) downloadWithRetry(ctx context.Context, res imgrequest.Result, base string) (string, int64, error) {
	var err error
	for attempt := 1; attempt <= d.opts.Attempts; attempt++ {
		var file string
		var n int64

		file, n, err = d.download(ctx, res, base)
		if err == nil {
			return file, n, nil
		}

		var se *statusError
		if errors.As(err, &se) && se.code >= 400 && se.code < 500 {
			return "", 0, err
		}
		if errors.Is(err, errBrokenImage) || errors.Is(err, errTooLarge) {
			return "", 0, err
		}

		if attempt == d.opts.Attempts {
			break
		}

		select {
		case <-ctx.Done():
			return "", 0, ctx.Err()
		case <-time.After(time.Duration(attempt) * d.opts.Backoff):
		}
	}

	return "", 0, err
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("HTTP %d", e.code)
}

func (d *Downloader) download(ctx context.Context, res imgrequest.Result, base string) (file string, written int64, err error) {
	ctx, cancel := context.WithTimeout(ctx, d.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, res.RequestURL, nil)
	if err != nil {
		return "", 0, err
	}

	req.Header = res.Headers.HTTP()
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "image/avif,image/webp,image/apng,image/*,*/*;q=0.8")
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return "", 0, &statusError{code: resp.StatusCode}
	}

	ct := resp.Header.Get("Content-Type")
	if ct != "" {
		if mt, _, _ := mime.ParseMediaType(ct); !strings.HasPrefix(mt, "image/") {
			return "", 0, fmt.Errorf("unexpected MIME: %s", ct)
		}
	}

	target := base + imageExt(res.ResolvedURL, ct)

	f, err := os.Create(target)
	if err != nil {
		return "", 0, err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
			file, written = "", 0
		}
		if err != nil {
			_ = os.Remove(target)
		}
	}()

	written, err = copyLimited(f, resp.Body, MaxImageSize)
	if err != nil {
		return "", 0, err
	}

	if err := verifyImage(target); err != nil {
		return "", 0, err
	}

	return target, written, nil
}

var knownExt = map[string]string{
	".jpg":  ".jpg",
	".jpeg": ".jpg",
	".png":  ".png",
	".webp": ".webp",
	".gif":  ".gif",
	".bmp":  ".bmp",
	".avif": ".avif",
}

func imageExt(resolved, contentType string) string {
	if u, err := url.Parse(resolved); err == nil {
		if ext, ok := knownExt[strings.ToLower(path.Ext(u.Path))]; ok {
			return ext
		}
	}

	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		if ext, ok := knownExt["."+strings.TrimPrefix(mt, "image/")]; ok {
			return ext
		}
	}

	return ".jpg"
}
