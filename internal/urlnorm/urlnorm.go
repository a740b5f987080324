// Package urlnorm repairs image URLs scraped from third-party pages: scheme
// typos, trailing JSON junk, CDN host aliases and relative paths.
//
// Every function is total: malformed input comes back as-is or trimmed, never
// as an error.
package urlnorm

import (
	"regexp"
	"strings"

	"github.com/brogergvhs/panelfetch/internal/rules"
)

var (
	reImageExt = regexp.MustCompile(`(?i)\.(?:jpe?g|png|webp|gif|bmp)`)
	reScheme   = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.\-]*://`)

	escapedText = strings.NewReplacer(
		`\u002F`, "/",
		`\u002f`, "/",
		`\/`, "/",
		`\u003F`, "?",
		`\u003f`, "?",
		`\u0026`, "&",
	)
)

type Normalizer struct {
	table rules.Table
}

func New(table rules.Table) *Normalizer {
	return &Normalizer{table: table}
}

// SanitizeURLString fixes dropped scheme slashes and cuts junk that scraped
// pages append after the image URL.
func SanitizeURLString(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	s = fixScheme(s)

	if loc := reImageExt.FindStringIndex(s); loc != nil && loc[1] < len(s) && s[loc[1]] == ',' {
		return strings.TrimSpace(s[:loc[1]])
	}

	// only junk after the last image extension is cut
	start := 0
	if all := reImageExt.FindAllStringIndex(s, -1); len(all) > 0 {
		start = all[len(all)-1][1]
	}

	lower := strings.ToLower(s[start:])
	cut := -1
	for _, marker := range []string{",%7b", ",{"} {
		if i := strings.Index(lower, marker); i >= 0 && (cut < 0 || i < cut) {
			cut = i
		}
	}
	if cut >= 0 {
		return strings.TrimSpace(s[:start+cut])
	}

	return s
}

func fixScheme(s string) string {
	lower := strings.ToLower(s)

	for _, scheme := range []string{"https", "http"} {
		if !strings.HasPrefix(lower, scheme) {
			continue
		}

		rest := s[len(scheme):]
		switch {
		case strings.HasPrefix(rest, "://"):
			return s
		case strings.HasPrefix(rest, "//"), strings.HasPrefix(rest, ":/"):
			return s[:len(scheme)] + "://" + rest[2:]
		}
	}

	return s
}

// HasScheme reports whether s starts with "<scheme>://".
func HasScheme(s string) bool {
	return reScheme.MatchString(s)
}

// ResolveURL sanitizes raw, joins it to baseURL when it is relative and
// applies host rewriting.
func (n *Normalizer) ResolveURL(raw, baseURL string) string {
	s := SanitizeURLString(raw)
	if s == "" {
		return ""
	}

	switch {
	case HasScheme(s):
	case strings.HasPrefix(s, "//"):
		scheme := "https"
		if i := strings.Index(baseURL, "://"); i > 0 {
			scheme = baseURL[:i]
		}
		s = scheme + ":" + s
	case strings.TrimSpace(baseURL) != "":
		s = strings.TrimRight(strings.TrimSpace(baseURL), "/") + "/" + strings.TrimLeft(s, "/")
	}

	return n.NormalizeHost(s)
}

// NormalizeHost rewrites a known CDN alias in the URL's host. Only the host
// inside the authority changes; the rest of the string is kept byte for byte.
func (n *Normalizer) NormalizeHost(raw string) string {
	host := rules.HostOf(raw)
	if host == "" {
		return raw
	}

	rule, ok := n.table.RewriteFor(host)
	if !ok {
		return raw
	}
	// a target inside the alias domain would be rewritten again
	if rules.MatchSuffix(rule.To, rule.From) && rules.MatchSuffix(host, rule.To) {
		return raw
	}

	from := strings.ToLower(strings.Trim(rule.From, "."))
	to := strings.ToLower(strings.Trim(rule.To, "."))
	newHost := host[:len(host)-len(from)] + to

	return replaceHost(raw, host, newHost)
}

func replaceHost(raw, oldHost, newHost string) string {
	i := strings.Index(raw, "//")
	if i < 0 {
		return raw
	}

	start := i + 2
	end := len(raw)
	if j := strings.IndexAny(raw[start:], "/?#"); j >= 0 {
		end = start + j
	}

	authority := raw[start:end]
	at := strings.LastIndex(authority, "@")
	hostPart := authority[at+1:]
	if len(hostPart) < len(oldHost) || !strings.EqualFold(hostPart[:len(oldHost)], oldHost) {
		return raw
	}

	return raw[:start] + authority[:at+1] + newHost + hostPart[len(oldHost):] + raw[end:]
}

// NormalizeCoverURL is ResolveURL without a base: relative cover paths are
// left for the caller to resolve.
func (n *Normalizer) NormalizeCoverURL(raw string) string {
	s := SanitizeURLString(raw)
	if !HasScheme(s) {
		return s
	}

	return n.NormalizeHost(s)
}

// ShouldPreferSignedURLs reports whether the extractor should drop the
// structured candidates in favour of signed URLs found in fullText. Every
// candidate must be unsigned and live on a prefer-signed host.
func (n *Normalizer) ShouldPreferSignedURLs(candidates []string, fullText string) bool {
	if len(candidates) == 0 || !strings.Contains(fullText, "sign=") {
		return false
	}

	for _, c := range candidates {
		if strings.Contains(c, "sign=") {
			return false
		}
	}

	for _, c := range candidates {
		if !n.table.PrefersSigned(rules.HostOf(c)) {
			return false
		}
	}

	return true
}

// NormalizeEscapedText undoes the JSON escaping of slashes, question marks
// and ampersands in scraped payloads.
func NormalizeEscapedText(text string) string {
	return escapedText.Replace(text)
}
