// Package chapterpage downloads a chapter page and keeps the raw markup
// for image extraction.
package chapterpage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/PuerkitoBio/goquery"

	"github.com/brogergvhs/panelfetch/internal/util"
)

// MaxBodySize caps how much of a page is read.
const MaxBodySize = 16 << 20

type Page struct {
	URL   string
	Title string
	Body  string
}

var reUnderscore = regexp.MustCompile(`_+`)

// Fetch GETs url and returns its body. Non-2xx responses are errors.
func Fetch(ctx context.Context, c *http.Client, url string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("chapter page: %w", err)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,*/*;q=0.8")

	resp, err := util.DoWithRetry(c, req, 3, 500*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("chapter page %s: %w", url, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("chapter page %s: HTTP %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize))
	if err != nil {
		return nil, fmt.Errorf("chapter page %s: %w", url, err)
	}

	return FromHTML(url, string(data)), nil
}

// FromHTML wraps markup that was obtained some other way.
func FromHTML(url, body string) *Page {
	return &Page{URL: url, Title: parseTitle(body), Body: body}
}

func parseTitle(body string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return ""
	}

	if og, ok := doc.Find(`meta[property="og:title"]`).First().Attr("content"); ok {
		if og = strings.TrimSpace(og); og != "" {
			return og
		}
	}

	return strings.TrimSpace(doc.Find("title").First().Text())
}

// Name is a filesystem-safe chapter name taken from the title, or from the
// last URL path segment when there is no title.
func (p *Page) Name() string {
	if n := sanitize(p.Title); n != "" {
		return n
	}

	u := p.URL
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	u = strings.TrimRight(u, "/")
	if i := strings.LastIndex(u, "/"); i >= 0 {
		u = u[i+1:]
	}
	if n := sanitize(u); n != "" {
		return n
	}

	return "chapter"
}

func (p *Page) FolderName() string {
	return p.Name() + util.TempSuffix
}

func (p *Page) OutputCBZPath(out string) string {
	return filepath.Join(out, p.Name()+".cbz")
}

func sanitize(s string) string {
	s = strings.ToLower(s)

	repl := strings.NewReplacer(
		"•", "_",
		"-", "_",
		"—", "_",
		"–", "_",
		"/", "_",
		"\\", "_",
		".", "_",
		" ", "_",
		"(", "",
		")", "",
	)
	s = repl.Replace(s)

	clean := make([]rune, 0, len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			clean = append(clean, r)
		}
	}

	s = reUnderscore.ReplaceAllString(string(clean), "_")
	return strings.Trim(s, "_")
}
