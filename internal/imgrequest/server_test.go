package imgrequest

import "testing"

func TestPathResolver(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		resolver PathResolver
		in       string
		want     Server
	}{
		{"api version stripped", PathResolver{}, "https://host/api/5", Server{BackendReader, "https://host", "https://host/api/5"}},
		{"nested api with slash", PathResolver{}, "https://host:8080/reader/api/3/", Server{BackendReader, "https://host:8080/reader", "https://host:8080/reader/api/3"}},
		{"api without version", PathResolver{}, "http://host/api", Server{BackendReader, "http://host", "http://host/api/5"}},
		{"plain host is static", PathResolver{}, "https://files.example.com/books", Server{BackendStatic, "https://files.example.com/books", "https://files.example.com/books/api/5"}},
		{"kind override", PathResolver{Kind: BackendReader}, "https://host", Server{BackendReader, "https://host", "https://host/api/5"}},
		{"blank", PathResolver{}, "  ", Server{}},
	}

	for _, tc := range tests {
		if got := tc.resolver.ResolveServer(tc.in); got != tc.want {
			t.Fatalf("%s: ResolveServer(%q) = %+v, want %+v", tc.name, tc.in, got, tc.want)
		}
	}
}

func TestParseBackendKind(t *testing.T) {
	t.Parallel()
	for _, k := range []BackendKind{BackendUnknown, BackendReader, BackendStatic} {
		if got := ParseBackendKind(k.String()); got != k {
			t.Fatalf("ParseBackendKind(%q) = %v, want %v", k.String(), got, k)
		}
	}
	if ParseBackendKind(" Reader ") != BackendReader {
		t.Fatalf("ParseBackendKind is not case-insensitive")
	}
}

func TestIsAssetPath(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want bool
	}{
		{"/assets/b/1.jpg", true},
		{"assets/b/1.jpg", true},
		{"../assets/b/1.jpg", true},
		{"/book-assets/b/1.jpg", true},
		{"book-assets/b/1.jpg", true},
		{"../book-assets/b/1.jpg", true},
		{"http:/assets/b/1.jpg", true},
		{"https://assets/b/1.jpg", true},
		{"https://cdn.example.com/wp/assets/1.jpg", true},
		{"https://cdn.example.com/img/1.jpg", false},
		{"assetsx/1.jpg", false},
		{"", false},
	}

	for _, tc := range tests {
		if got := IsAssetPath(tc.in); got != tc.want {
			t.Fatalf("IsAssetPath(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeAssetPath(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in, want string
	}{
		{"assets/b/1.jpg", "/assets/b/1.jpg"},
		{"//assets/b/1.jpg", "/assets/b/1.jpg"},
		{"../assets/b/../c/1.jpg", "/assets/c/1.jpg"},
		{"https://host/api/../assets/assets/assets/b/1.jpg?x=1", "/assets/b/1.jpg"},
		{"http:/book-assets/u/1.jpg#frag", "/book-assets/u/1.jpg"},
		{"https://host/x/book-assets/u/1.jpg", "/book-assets/u/1.jpg"},
		{"/assets/../../etc/passwd", ""},
		{"/book-assets/../assets/1.jpg", "/assets/1.jpg"},
		{"assets/..", ""},
	}

	for _, tc := range tests {
		if got := NormalizeAssetPath(tc.in); got != tc.want {
			t.Fatalf("NormalizeAssetPath(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
