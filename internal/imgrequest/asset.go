package imgrequest

import (
	"path"
	"regexp"
	"strings"
)

var (
	// /assets/, assets/, ../assets/, book-assets variants and http:/assets/ style typos
	reAssetPrefix  = regexp.MustCompile(`^(?:(?i:https?):/*)?(?:\.{1,2}/|/)*(?:book-)?assets/`)
	reSchemePrefix = regexp.MustCompile(`^(?i:https?):/*`)
)

// IsAssetPath reports whether s points into the reading server's book asset
// storage. Anything containing /assets/ or /book-assets/ counts, including
// asset paths that a scraped site prefixed with a foreign host.
func IsAssetPath(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	if reAssetPrefix.MatchString(s) {
		return true
	}

	return strings.Contains(s, "/assets/") || strings.Contains(s, "/book-assets/")
}

// NormalizeAssetPath returns the server-side asset path for s: rooted at
// /assets/ or /book-assets/, ".." collapsed, a single leading slash and no
// doubled /assets/assets/ prefix. It returns "" when ".." climbs out of the
// asset roots.
func NormalizeAssetPath(s string) string {
	p := strings.TrimSpace(s)
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}

	p = reSchemePrefix.ReplaceAllString(p, "")
	if i := assetIndex(p); i > 0 {
		p = p[i:]
	}

	p = path.Clean("/" + p)
	for strings.HasPrefix(p, "/assets/assets/") {
		p = strings.TrimPrefix(p, "/assets")
	}

	if !strings.HasPrefix(p, "/assets/") && !strings.HasPrefix(p, "/book-assets/") {
		return ""
	}

	return p
}

func assetIndex(p string) int {
	idx := -1
	for _, marker := range []string{"/assets/", "/book-assets/"} {
		if i := strings.Index(p, marker); i >= 0 && (idx < 0 || i < idx) {
			idx = i
		}
	}

	return idx
}
