// Package imgrequest turns a scraped image reference into the URL and
// headers a client should fetch it with: direct, through the reading
// server's asset endpoint, or through its image proxy.
//
// Building is a pure function of its inputs. Retrying a failed direct fetch
// with ForceProxy is the caller's job.
package imgrequest

import (
	"net/url"
	"strings"

	"github.com/brogergvhs/panelfetch/internal/antiscrape"
	"github.com/brogergvhs/panelfetch/internal/urlnorm"
)

type Strategy int

const (
	Refused Strategy = iota
	DirectFetch
	AssetRewrite
	ProxyRewrite
)

func (s Strategy) String() string {
	switch s {
	case DirectFetch:
		return "direct"
	case AssetRewrite:
		return "asset"
	case ProxyRewrite:
		return "proxy"
	default:
		return "refused"
	}
}

// Decide is the fetch strategy table. Asset paths always go through the
// asset endpoint when a token exists and are never fetched without one;
// the proxy is used only on request, with a token, on a backend that has it.
func Decide(isAsset, hasToken, forceProxy, proxySupported bool) Strategy {
	switch {
	case isAsset && hasToken:
		return AssetRewrite
	case isAsset:
		return Refused
	case forceProxy && hasToken && proxySupported:
		return ProxyRewrite
	default:
		return DirectFetch
	}
}

type Request struct {
	RawURL      string
	ServerURL   string
	ChapterURL  string
	ForceProxy  bool
	AccessToken string
}

type Result struct {
	// ResolvedURL is the absolute, host-rewritten image URL.
	ResolvedURL string
	// RequestURL is what to fetch; it differs from ResolvedURL for asset and
	// proxy rewrites.
	RequestURL string
	Headers    antiscrape.Headers
	Strategy   Strategy
}

type Builder struct {
	norm      *urlnorm.Normalizer
	profiles  *antiscrape.Registry
	servers   ServerResolver
	userAgent string

	sameOriginAuth bool
}

type Option func(*Builder)

// WithUserAgent replaces antiscrape.DefaultUserAgent for profiles that do
// not set their own.
func WithUserAgent(ua string) Option {
	return func(b *Builder) {
		if ua = strings.TrimSpace(ua); ua != "" {
			b.userAgent = ua
		}
	}
}

func WithServerResolver(r ServerResolver) Option {
	return func(b *Builder) {
		if r != nil {
			b.servers = r
		}
	}
}

// WithSameOriginAuth limits the Authorization header to requests on the
// reading server's own origin, so the token is not sent to image CDNs.
func WithSameOriginAuth() Option {
	return func(b *Builder) {
		b.sameOriginAuth = true
	}
}

func NewBuilder(norm *urlnorm.Normalizer, profiles *antiscrape.Registry, opts ...Option) *Builder {
	b := &Builder{
		norm:      norm,
		profiles:  profiles,
		servers:   PathResolver{},
		userAgent: antiscrape.DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Build returns false when no request should be made: blank input, an asset
// path without a token, or a result that is not an absolute http(s) URL.
func (b *Builder) Build(req Request) (Result, bool) {
	raw := strings.TrimSpace(req.RawURL)
	if raw == "" {
		return Result{}, false
	}

	token := strings.TrimSpace(req.AccessToken)
	srv := b.servers.ResolveServer(req.ServerURL)

	resolved := b.norm.ResolveURL(raw, srv.BaseURL)
	strategy := Decide(IsAssetPath(resolved), token != "", req.ForceProxy, srv.Kind.SupportsProxy())

	var target string
	switch strategy {
	case AssetRewrite:
		assetPath := NormalizeAssetPath(resolved)
		if assetPath == "" {
			return Result{}, false
		}
		target = srv.APIBase + "/assets?path=" + url.QueryEscape(assetPath) +
			"&accessToken=" + url.QueryEscape(token)
	case ProxyRewrite:
		target = srv.APIBase + "/proxypng?url=" + url.QueryEscape(resolved)
	case DirectFetch:
		target = resolved
	default:
		return Result{}, false
	}

	if !isAbsoluteHTTP(target) {
		return Result{}, false
	}

	profile := b.profiles.ResolveProfile(resolved, req.ChapterURL)
	referer := b.profiles.ResolveReferer(profile, req.ChapterURL, resolved)

	var headers antiscrape.Headers
	if referer != "" {
		headers.Set("Referer", referer)
	}

	ua := b.userAgent
	if profile != nil && profile.UserAgent != "" {
		ua = profile.UserAgent
	}
	headers.Set("User-Agent", ua)

	if token != "" && strategy != AssetRewrite && (!b.sameOriginAuth || sameOrigin(target, srv.BaseURL)) {
		headers.Set("Authorization", "Bearer "+token)
	}

	if profile != nil {
		for _, h := range profile.ExtraHeaders {
			headers.Set(h.Name, h.Value)
		}
	}

	return Result{
		ResolvedURL: resolved,
		RequestURL:  target,
		Headers:     headers,
		Strategy:    strategy,
	}, true
}

func isAbsoluteHTTP(s string) bool {
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return false
	}

	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}

// sameOrigin keeps the access token away from third-party image hosts.
func sameOrigin(target, base string) bool {
	t, err := url.Parse(target)
	if err != nil {
		return false
	}
	b, err := url.Parse(base)
	if err != nil || b.Host == "" {
		return false
	}

	return strings.EqualFold(t.Scheme, b.Scheme) && strings.EqualFold(t.Host, b.Host)
}
