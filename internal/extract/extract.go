// Package extract finds image references in raw chapter markup scraped from
// manga sites. It does a token-level scan, not a DOM parse: payloads are
// often half-escaped JSON with HTML fragments inside.
package extract

import (
	"html"
	"regexp"
	"sort"
	"strings"

	"github.com/brogergvhs/panelfetch/internal/urlnorm"
)

// MinExpectedImages is the structured result size below which the raw URL
// scan gets a chance to override it.
const MinExpectedImages = 3

// LazyAttributes are tried in order before the plain src attribute.
var LazyAttributes = []string{"data-original", "data-src", "data-lazy", "data-echo", "data-img", "data-url"}

var (
	reImgTag   = regexp.MustCompile(`(?is)<img\b([^>]*)>`)
	reImgToken = regexp.MustCompile(`__IMG__([^\s"'<>\\]+)`)

	reSignedURL = regexp.MustCompile(`https?://[^\s"'<>()\\,?]+\?(?:[^\s"'<>()\\,]*&)?(?:sign|t)=[^\s"'<>()\\,]*`)
	reBareImage = regexp.MustCompile(`(?i)https?://[^\s"'<>()\\,?]+\.(?:jpe?g|png|webp|gif|bmp)(?:\?[^\s"'<>()\\,]*)?`)

	attrPatterns = compileAttrPatterns(append(append([]string(nil), LazyAttributes...), "src"))
)

type attrPattern struct {
	name string
	re   *regexp.Regexp
}

func compileAttrPatterns(names []string) []attrPattern {
	out := make([]attrPattern, 0, len(names))
	for _, name := range names {
		// value is double-quoted, single-quoted (both possibly JSON-escaped) or bare
		re := regexp.MustCompile(`(?is)(?:^|[\s/])` + regexp.QuoteMeta(name) +
			`\s*=\s*(?:\\?"(.*?)\\?"|\\?'(.*?)\\?'|([^\s"'>\\]+))`)
		out = append(out, attrPattern{name: name, re: re})
	}

	return out
}

type Extractor struct {
	norm *urlnorm.Normalizer
}

func New(norm *urlnorm.Normalizer) *Extractor {
	return &Extractor{norm: norm}
}

type collector struct {
	urls []string
	seen map[string]bool
}

func newCollector() *collector {
	return &collector{seen: make(map[string]bool)}
}

func (c *collector) add(u string) {
	u = strings.TrimSpace(u)
	if u == "" {
		return
	}

	lu := strings.ToLower(u)
	if strings.HasPrefix(lu, "data:") || strings.HasPrefix(lu, "javascript:") {
		return
	}
	if c.seen[u] {
		return
	}

	c.seen[u] = true
	c.urls = append(c.urls, u)
}

// ExtractImageURLs returns the image URLs referenced by raw in document
// order, without duplicates.
func (e *Extractor) ExtractImageURLs(raw string) []string {
	text := urlnorm.NormalizeEscapedText(raw)

	structured := newCollector()
	ScanImgTags(raw, structured.add)
	ScanImgTokens(text, structured.add)
	if len(structured.urls) >= MinExpectedImages && !e.norm.ShouldPreferSignedURLs(structured.urls, text) {
		return structured.urls
	}

	if fallback := ScanRawURLs(text); len(fallback) > 0 {
		return fallback
	}

	return structured.urls
}

// ScanImgTags calls add with the preferred source of every <img> tag.
func ScanImgTags(raw string, add func(string)) {
	for _, m := range reImgTag.FindAllStringSubmatch(raw, -1) {
		if v, ok := pickAttribute(m[1]); ok {
			add(v)
		}
	}
}

func pickAttribute(attrs string) (string, bool) {
	for _, p := range attrPatterns {
		m := p.re.FindStringSubmatch(attrs)
		if m == nil {
			continue
		}

		v := m[1] + m[2] + m[3]
		v = strings.TrimSpace(html.UnescapeString(urlnorm.NormalizeEscapedText(v)))
		if v != "" {
			return v, true
		}
	}

	return "", false
}

func ScanImgTokens(raw string, add func(string)) {
	for _, m := range reImgToken.FindAllStringSubmatch(raw, -1) {
		add(m[1])
	}
}

// ScanRawURLs finds signed URLs and bare image URLs in already unescaped
// text, ordered by position.
func ScanRawURLs(text string) []string {
	type hit struct {
		pos int
		url string
	}

	var hits []hit
	for _, re := range []*regexp.Regexp{reSignedURL, reBareImage} {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			hits = append(hits, hit{pos: loc[0], url: text[loc[0]:loc[1]]})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })

	c := newCollector()
	for _, h := range hits {
		c.add(h.url)
	}

	return c.urls
}
