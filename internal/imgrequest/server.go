package imgrequest

import (
	"net/url"
	"strings"
)

// DefaultAPIVersion is used for endpoint URLs when the configured server
// address carries no /api/<version> segment.
const DefaultAPIVersion = "5"

type BackendKind int

const (
	BackendUnknown BackendKind = iota
	// BackendReader serves /api/<version>/assets and /api/<version>/proxypng.
	BackendReader
	// BackendStatic serves files only; it has no proxy endpoint.
	BackendStatic
)

func (k BackendKind) String() string {
	switch k {
	case BackendReader:
		return "reader"
	case BackendStatic:
		return "static"
	default:
		return "unknown"
	}
}

func ParseBackendKind(s string) BackendKind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "reader":
		return BackendReader
	case "static":
		return BackendStatic
	default:
		return BackendUnknown
	}
}

// SupportsProxy reports whether the backend exposes the proxypng endpoint.
func (k BackendKind) SupportsProxy() bool {
	return k == BackendReader
}

// Server describes the reading server a request is built against.
type Server struct {
	Kind BackendKind
	// BaseURL is the server address without any API sub-path, used as the
	// base for relative image URLs.
	BaseURL string
	// APIBase is BaseURL + "/api/<version>".
	APIBase string
}

type ServerResolver interface {
	ResolveServer(serverURL string) Server
}

// PathResolver derives the backend from the server address: an
// /api/<version> path segment marks a reader backend. A non-zero Kind
// overrides the detection.
type PathResolver struct {
	Kind BackendKind
}

func (r PathResolver) ResolveServer(serverURL string) Server {
	raw := strings.TrimRight(strings.TrimSpace(serverURL), "/")
	if raw == "" {
		return Server{Kind: r.Kind}
	}

	kind := BackendStatic
	base := raw
	version := DefaultAPIVersion

	if u, err := url.Parse(raw); err == nil && u.Host != "" {
		segs := strings.Split(strings.Trim(u.Path, "/"), "/")
		for i, s := range segs {
			if s != "api" {
				continue
			}

			kind = BackendReader
			if i+1 < len(segs) && segs[i+1] != "" {
				version = segs[i+1]
			}

			u.Path = "/" + strings.Join(segs[:i], "/")
			u.RawQuery = ""
			u.Fragment = ""
			base = strings.TrimRight(u.String(), "/")
			break
		}
	}

	if r.Kind != BackendUnknown {
		kind = r.Kind
	}

	return Server{
		Kind:    kind,
		BaseURL: base,
		APIBase: base + "/api/" + version,
	}
}
