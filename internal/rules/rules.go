// Package rules holds the data-only tables consumed by the URL normalizer
// and the image extractor: CDN host aliases and hosts whose image URLs must
// keep their signature tokens.
package rules

import (
	"net/url"
	"strings"
)

// HostRewrite replaces a CDN alias suffix with its canonical suffix.
type HostRewrite struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

type Table struct {
	HostRewrites      []HostRewrite `yaml:"host_rewrites"`
	PreferSignedHosts []string      `yaml:"prefer_signed_hosts"`
}

var defaultRewrites = []HostRewrite{
	{From: "bzmh.net", To: "bzcdn.net"},
	{From: "baozimh.org", To: "baozimh.com"},
	{From: "cdnmanhua.net", To: "cdndm5.com"},
	{From: "mangabzcdn.net", To: "mangabz.com"},
}

var defaultPreferSigned = []string{
	"cdndm5.com",
	"cdnmanhuaren.com",
	"mangabz.com",
	"xmanhua.com",
}

// Default returns a fresh copy of the built-in table.
func Default() Table {
	return Table{
		HostRewrites:      append([]HostRewrite(nil), defaultRewrites...),
		PreferSignedHosts: append([]string(nil), defaultPreferSigned...),
	}
}

// Merge returns a table with extra's entries ahead of t's.
// Blank entries in extra are dropped.
func (t Table) Merge(extra Table) Table {
	out := Table{
		HostRewrites:      make([]HostRewrite, 0, len(extra.HostRewrites)+len(t.HostRewrites)),
		PreferSignedHosts: make([]string, 0, len(extra.PreferSignedHosts)+len(t.PreferSignedHosts)),
	}

	for _, r := range extra.HostRewrites {
		from := normalizeSuffix(r.From)
		to := normalizeSuffix(r.To)
		if from == "" || to == "" {
			continue
		}
		out.HostRewrites = append(out.HostRewrites, HostRewrite{From: from, To: to})
	}
	out.HostRewrites = append(out.HostRewrites, t.HostRewrites...)

	for _, h := range extra.PreferSignedHosts {
		if h = normalizeSuffix(h); h != "" {
			out.PreferSignedHosts = append(out.PreferSignedHosts, h)
		}
	}
	out.PreferSignedHosts = append(out.PreferSignedHosts, t.PreferSignedHosts...)

	return out
}

// RewriteFor returns the first rule whose From suffix matches host.
func (t Table) RewriteFor(host string) (HostRewrite, bool) {
	for _, r := range t.HostRewrites {
		if MatchSuffix(host, r.From) {
			return r, true
		}
	}

	return HostRewrite{}, false
}

func (t Table) PrefersSigned(host string) bool {
	for _, h := range t.PreferSignedHosts {
		if MatchSuffix(host, h) {
			return true
		}
	}

	return false
}

// MatchSuffix reports whether host equals suffix or ends with "." + suffix,
// ignoring case.
func MatchSuffix(host, suffix string) bool {
	host = strings.ToLower(strings.TrimSpace(host))
	suffix = normalizeSuffix(suffix)
	if host == "" || suffix == "" {
		return false
	}

	return host == suffix || strings.HasSuffix(host, "."+suffix)
}

// HostOf returns the lowercase hostname of an absolute or protocol-relative
// URL, or "" if there is none.
func HostOf(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	u, err := url.Parse(raw)
	if err != nil || u == nil {
		return ""
	}

	return strings.ToLower(u.Hostname())
}

func normalizeSuffix(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Trim(s, ".")
}
