// Package antiscrape picks the Referer, User-Agent and extra headers a
// manga image CDN expects before it will serve a picture to a client that
// is not the site's own reader.
package antiscrape

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/brogergvhs/panelfetch/internal/rules"
)

type Profile struct {
	Key          string
	Name         string
	HostSuffixes []string
	Referer      string
	UserAgent    string
	ExtraHeaders Headers
}

func (p Profile) Matches(host string) bool {
	for _, s := range p.HostSuffixes {
		if rules.MatchSuffix(host, s) {
			return true
		}
	}

	return false
}

// Registry is an immutable, ordered profile table.
type Registry struct {
	profiles []Profile
}

func NewRegistry(profiles []Profile) (*Registry, error) {
	seen := make(map[string]bool, len(profiles))
	out := make([]Profile, 0, len(profiles))

	for _, p := range profiles {
		if strings.TrimSpace(p.Key) == "" {
			return nil, errors.New("antiscrape: profile with empty key")
		}
		if seen[p.Key] {
			return nil, fmt.Errorf("antiscrape: duplicate profile key %q", p.Key)
		}
		if len(p.HostSuffixes) == 0 {
			return nil, fmt.Errorf("antiscrape: profile %q has no host suffixes", p.Key)
		}
		seen[p.Key] = true

		p.HostSuffixes = append([]string(nil), p.HostSuffixes...)
		p.ExtraHeaders = p.ExtraHeaders.Clone()
		out = append(out, p)
	}

	return &Registry{profiles: out}, nil
}

// Profiles returns a copy of the table in match order.
func (r *Registry) Profiles() []Profile {
	out := make([]Profile, len(r.profiles))
	copy(out, r.profiles)

	return out
}

// ResolveProfile returns the first profile matching the referer host, or
// failing that the first matching the image host. Nil means no profile.
func (r *Registry) ResolveProfile(imageURL, referer string) *Profile {
	for _, host := range []string{rules.HostOf(referer), rules.HostOf(imageURL)} {
		if host == "" {
			continue
		}
		if p := r.match(host); p != nil {
			return p
		}
	}

	return nil
}

func (r *Registry) match(host string) *Profile {
	for i := range r.profiles {
		if r.profiles[i].Matches(host) {
			p := r.profiles[i]
			return &p
		}
	}

	return nil
}

// ResolveReferer picks the Referer header for an image request; "" means
// none could be determined.
func (r *Registry) ResolveReferer(profile *Profile, referer, imageURL string) string {
	referer = strings.TrimSpace(referer)
	imageHost := authority(imageURL)

	if profile != nil && profile.Key == StrictRefererKey && referer != "" {
		if v := normalizeReferer(referer, imageHost, true); v != "" {
			return v
		}
	}

	if profile != nil && profile.Referer != "" {
		return profile.Referer
	}

	if referer != "" {
		if v := normalizeReferer(referer, imageHost, false); v != "" {
			return v
		}
	}

	if imageHost != "" {
		return "https://" + imageHost + "/"
	}

	return ""
}

// normalizeReferer makes candidate absolute against host and ends it with a
// single slash. forceHTTPS upgrades plain http.
func normalizeReferer(candidate, host string, forceHTTPS bool) string {
	switch {
	case strings.Contains(candidate, "://"):
	case strings.HasPrefix(candidate, "//"):
		candidate = "https:" + candidate
	case host != "":
		candidate = "https://" + host + "/" + strings.TrimLeft(candidate, "/")
	default:
		return ""
	}

	if forceHTTPS && strings.HasPrefix(strings.ToLower(candidate), "http://") {
		candidate = "https://" + candidate[len("http://"):]
	}

	return strings.TrimRight(candidate, "/") + "/"
}

// authority returns host[:port] of an absolute or protocol-relative URL.
func authority(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u == nil {
		return ""
	}

	return strings.ToLower(u.Host)
}
