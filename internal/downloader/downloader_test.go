package downloader

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/brogergvhs/panelfetch/internal/antiscrape"
	"github.com/brogergvhs/panelfetch/internal/imgrequest"
	"github.com/brogergvhs/panelfetch/internal/rules"
	"github.com/brogergvhs/panelfetch/internal/ui"
	"github.com/brogergvhs/panelfetch/internal/urlnorm"
)

var pageImage = func() []byte {
	var buf bytes.Buffer
	_ = png.Encode(&buf, image.NewGray(image.Rect(0, 0, 4, 6)))
	return buf.Bytes()
}()

type fakeProgress struct {
	added atomic.Int64
	done  atomic.Bool
}

func (p *fakeProgress) Add(int64) { p.added.Add(1) }
func (p *fakeProgress) Done()     { p.done.Store(true) }

func newImageServer(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var authed atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Referer") == "" {
			http.Error(w, "no referer", http.StatusForbidden)
			return
		}
		if r.Header.Get("Authorization") == "Bearer tok" {
			authed.Add(1)
		}

		target := r.URL.Path
		if r.URL.Path == "/api/5/proxypng" {
			target = r.URL.Query().Get("url")
			if !strings.HasSuffix(target, "/img/broken.jpg") {
				http.NotFound(w, r)
				return
			}
			w.Header().Set("Content-Type", "image/jpeg")
			_, _ = w.Write(pageImage)
			return
		}

		switch {
		case strings.HasSuffix(target, "/img/broken.jpg"):
			http.Error(w, "hotlink", http.StatusForbidden)
		case strings.HasSuffix(target, "/img/corrupt.png"):
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write([]byte("\x89PNG\r\n\x1a\ntruncated"))
		case strings.HasSuffix(target, "/img/page.html"):
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<html></html>"))
		case strings.HasPrefix(target, "/img/"):
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(pageImage)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	return srv, &authed
}

func newDownloader(srv *httptest.Server, skip bool, stats *ui.Stats) *Downloader {
	b := imgrequest.NewBuilder(urlnorm.New(rules.Default()), antiscrape.Default())
	planner := RequestPlanner{
		Builder: b,
		Template: imgrequest.Request{
			ServerURL:   srv.URL + "/api/5",
			AccessToken: "tok",
		},
	}

	return New(srv.Client(), planner, Options{
		Workers:    2,
		SkipBroken: skip,
		Backoff:    time.Millisecond,
		Logger:     &ui.Logger{Out: &bytes.Buffer{}},
		Stats:      stats,
	})
}

func TestFetchDirectAndProxyFallback(t *testing.T) {
	t.Parallel()
	srv, authed := newImageServer(t)
	stats := &ui.Stats{}
	d := newDownloader(srv, false, stats)
	dir := filepath.Join(t.TempDir(), "ch_tmp")
	prog := &fakeProgress{}

	files, err := d.Fetch(context.Background(), []string{
		srv.URL + "/img/1.jpg",
		"/img/2",
		srv.URL + "/img/broken.jpg",
	}, dir, prog)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	want := []string{
		filepath.Join(dir, "page_001.jpg"),
		filepath.Join(dir, "page_002.png"),
		filepath.Join(dir, "page_003.jpg"),
	}
	if len(files) != len(want) {
		t.Fatalf("files = %v, want %v", files, want)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Fatalf("files[%d] = %q, want %q", i, files[i], want[i])
		}
		b, err := os.ReadFile(files[i])
		if err != nil || !bytes.Equal(b, pageImage) {
			t.Fatalf("content of %s = %v, %v", files[i], b, err)
		}
	}

	if stats.ProxyRetries.Load() != 1 || stats.TotalImages.Load() != 3 || stats.Failed.Load() != 0 {
		t.Fatalf("stats = %s", stats.Summary())
	}
	if authed.Load() == 0 {
		t.Fatalf("same-origin requests carried no Authorization header")
	}
	if prog.added.Load() != 3 || !prog.done.Load() {
		t.Fatalf("progress added=%d done=%v", prog.added.Load(), prog.done.Load())
	}
}

func TestFetchFailures(t *testing.T) {
	t.Parallel()
	srv, _ := newImageServer(t)
	urls := []string{
		srv.URL + "/img/1.jpg",
		srv.URL + "/img/missing.jpg",
		srv.URL + "/img/page.html",
		srv.URL + "/img/corrupt.png",
		"/assets/cover.jpg?no-token",
	}

	strict := newDownloader(srv, false, &ui.Stats{})
	if _, err := strict.Fetch(context.Background(), urls, t.TempDir(), nil); err == nil {
		t.Fatalf("Fetch without skip-broken returned nil error")
	}

	stats := &ui.Stats{}
	lenient := newDownloader(srv, true, stats)
	files, err := lenient.Fetch(context.Background(), urls, t.TempDir(), nil)
	if err != nil {
		t.Fatalf("Fetch with skip-broken: %v", err)
	}
	if len(files) != 1 || stats.Failed.Load() != 4 {
		t.Fatalf("files = %v, stats = %s", files, stats.Summary())
	}
}

func TestFetchNoPlan(t *testing.T) {
	t.Parallel()
	srv, _ := newImageServer(t)
	d := newDownloader(srv, false, nil)
	d.planner = RequestPlanner{
		Builder:  imgrequest.NewBuilder(urlnorm.New(rules.Default()), antiscrape.Default()),
		Template: imgrequest.Request{ServerURL: srv.URL + "/api/5"},
	}

	_, err := d.Fetch(context.Background(), []string{"/assets/book/1.jpg"}, t.TempDir(), nil)
	if !errors.Is(err, ErrNoPlan) {
		t.Fatalf("Fetch err = %v, want ErrNoPlan", err)
	}
}

func TestImageExt(t *testing.T) {
	t.Parallel()
	tests := []struct {
		url, ct, want string
	}{
		{"https://h/a/1.JPEG?x=1", "", ".jpg"},
		{"https://h/a/1.webp", "image/png", ".webp"},
		{"https://h/a/1", "image/png; charset=binary", ".png"},
		{"https://h/a/1.php", "application/octet-stream", ".jpg"},
	}

	for _, tc := range tests {
		if got := imageExt(tc.url, tc.ct); got != tc.want {
			t.Fatalf("imageExt(%q, %q) = %q, want %q", tc.url, tc.ct, got, tc.want)
		}
	}
}

func TestCopyLimited(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer

	n, err := copyLimited(&buf, strings.NewReader("12345"), 5)
	if err != nil || n != 5 {
		t.Fatalf("copyLimited = %d, %v", n, err)
	}

	if _, err := copyLimited(&buf, strings.NewReader("123456"), 5); !errors.Is(err, errTooLarge) {
		t.Fatalf("copyLimited over limit err = %v", err)
	}
}

func TestVerifyImage(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	tests := []struct {
		name   string
		data   []byte
		broken bool
	}{
		{"ok.png", pageImage, false},
		{"truncated.png", []byte("\x89PNG\r\n\x1a\nxx"), true},
		{"unknown.avif", []byte("\x00\x00\x00\x1cftypavif"), false},
	}

	for _, tc := range tests {
		p := filepath.Join(dir, tc.name)
		if err := os.WriteFile(p, tc.data, 0644); err != nil {
			t.Fatal(err)
		}

		err := verifyImage(p)
		if got := errors.Is(err, errBrokenImage); got != tc.broken {
			t.Fatalf("verifyImage(%s) = %v, want broken=%v", tc.name, err, tc.broken)
		}
	}
}
