package antiscrape

import "testing"

func TestNewRegistryValidates(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		profiles []Profile
	}{
		{"empty suffixes", []Profile{{Key: "a"}}},
		{"empty key", []Profile{{HostSuffixes: []string{"a.com"}}}},
		{"duplicate key", []Profile{
			{Key: "a", HostSuffixes: []string{"a.com"}},
			{Key: "a", HostSuffixes: []string{"b.com"}},
		}},
	}

	for _, tc := range tests {
		if _, err := NewRegistry(tc.profiles); err == nil {
			t.Fatalf("%s: NewRegistry returned nil error", tc.name)
		}
	}
}

func TestDefaultTableIsValid(t *testing.T) {
	t.Parallel()
	ps := Default().Profiles()
	if len(ps) == 0 {
		t.Fatalf("default table is empty")
	}
	if ps[0].Key != StrictRefererKey {
		t.Fatalf("first profile = %q, want %q", ps[0].Key, StrictRefererKey)
	}
}

func TestResolveProfileTableOrder(t *testing.T) {
	t.Parallel()
	r, err := NewRegistry([]Profile{
		{Key: "first", HostSuffixes: []string{"example.com"}},
		{Key: "second", HostSuffixes: []string{"img.example.com"}},
	})
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 5; i++ {
		p := r.ResolveProfile("https://img.example.com/1.jpg", "")
		if p == nil || p.Key != "first" {
			t.Fatalf("ResolveProfile = %+v, want first", p)
		}
	}
}

func TestResolveProfileRefererHostFirst(t *testing.T) {
	t.Parallel()
	r := Default()
	tests := []struct {
		name     string
		imageURL string
		referer  string
		want     string
	}{
		{"referer wins over image", "https://img.bzcdn.net/1.jpg", "https://www.manhuagui.com/comic/1/", "manhuagui"},
		{"image host when referer unknown", "https://img.bzcdn.net/1.jpg", "https://unknown.org/", "baozimh"},
		{"image host when referer relative", "https://i.hamreus.com/1.jpg", "/comic/2/", "manhuagui"},
		{"case insensitive", "https://IMAGE.CDNDM5.COM/1.jpg", "", "dm5"},
		{"no match", "https://example.org/1.jpg", "", ""},
		{"garbage", "%%%", "::", ""},
	}

	for _, tc := range tests {
		p := r.ResolveProfile(tc.imageURL, tc.referer)
		got := ""
		if p != nil {
			got = p.Key
		}
		if got != tc.want {
			t.Fatalf("%s: ResolveProfile(%q, %q) = %q, want %q", tc.name, tc.imageURL, tc.referer, got, tc.want)
		}
	}
}

func TestResolveProfileReturnsCopy(t *testing.T) {
	t.Parallel()
	r := Default()
	p := r.ResolveProfile("https://www.dm5.com/1.jpg", "")
	p.Referer = "mutated"

	if again := r.ResolveProfile("https://www.dm5.com/1.jpg", ""); again.Referer == "mutated" {
		t.Fatalf("ResolveProfile exposes the registry's table")
	}
}

func TestResolveReferer(t *testing.T) {
	t.Parallel()
	r := Default()
	dm5 := r.ResolveProfile("https://www.dm5.com/", "")
	gui := r.ResolveProfile("https://www.manhuagui.com/", "")
	noReferer := &Profile{Key: "bare", HostSuffixes: []string{"bare.com"}}

	tests := []struct {
		name     string
		profile  *Profile
		referer  string
		imageURL string
		want     string
	}{
		{"strict site forces https", dm5, "http://dm5.com/x", "https://cdndm5.com/1.jpg", "https://dm5.com/x/"},
		{"strict site keeps single slash", dm5, "HTTP://www.dm5.com/m1//", "https://cdndm5.com/1.jpg", "https://www.dm5.com/m1/"},
		{"strict site relative referer", dm5, "/m1/", "https://cdndm5.com/1.jpg", "https://cdndm5.com/m1/"},
		{"strict site without referer", dm5, "", "https://cdndm5.com/1.jpg", "https://www.dm5.com/"},
		{"profile referer wins", gui, "http://elsewhere.com/a", "https://i.hamreus.com/1.jpg", "https://www.manhuagui.com/"},
		{"supplied referer normalized", nil, "http://site.com/ch/1", "https://cdn.site.com/1.jpg", "http://site.com/ch/1/"},
		{"relative referer uses image host", nil, "ch/1", "https://cdn.site.com:8443/1.jpg", "https://cdn.site.com:8443/ch/1/"},
		{"protocol relative referer", nil, "//site.com/ch", "", "https://site.com/ch/"},
		{"profile without referer falls through", noReferer, "", "https://img.bare.com/1.jpg", "https://img.bare.com/"},
		{"image host fallback", nil, "", "https://cdn.site.com/1.jpg", "https://cdn.site.com/"},
		{"nothing known", nil, "relative/only", "/also/relative.jpg", ""},
		{"nothing at all", nil, "", "", ""},
	}

	for _, tc := range tests {
		if got := r.ResolveReferer(tc.profile, tc.referer, tc.imageURL); got != tc.want {
			t.Fatalf("%s: ResolveReferer(%q, %q) = %q, want %q", tc.name, tc.referer, tc.imageURL, got, tc.want)
		}
	}
}

func TestHeadersSet(t *testing.T) {
	t.Parallel()
	var h Headers
	h.Set("Referer", "a")
	h.Set("User-Agent", "b")
	h.Set("referer", "c")

	if len(h) != 2 || h[0].Name != "Referer" || h[0].Value != "c" {
		t.Fatalf("Headers after Set = %+v", h)
	}
	if v, ok := h.Get("USER-AGENT"); !ok || v != "b" {
		t.Fatalf("Get(USER-AGENT) = %q, %v", v, ok)
	}
	if got := h.HTTP().Get("Referer"); got != "c" {
		t.Fatalf("HTTP().Get(Referer) = %q", got)
	}
}
