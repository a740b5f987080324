package antiscrape

// DefaultUserAgent is sent when neither the profile nor the caller overrides it.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

const mobileUserAgent = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_4 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Mobile/15E148 Safari/604.1"

// StrictRefererKey names the one site whose image CDN rejects the fixed
// profile referer and wants the chapter page itself, over https with a
// trailing slash.
const StrictRefererKey = "dm5"

// Order matters: the first profile matching a host wins.
var defaultProfiles = []Profile{
	{
		Key:          "dm5",
		Name:         "DM5",
		HostSuffixes: []string{"dm5.com", "cdndm5.com", "cdnmanhua.net"},
		Referer:      "https://www.dm5.com/",
	},
	{
		Key:          "manhuaren",
		Name:         "Manhuaren",
		HostSuffixes: []string{"manhuaren.com", "cdnmanhuaren.com"},
		Referer:      "https://www.manhuaren.com/",
		UserAgent:    mobileUserAgent,
	},
	{
		Key:          "mangabz",
		Name:         "Mangabz",
		HostSuffixes: []string{"mangabz.com", "xmanhua.com"},
		Referer:      "https://www.mangabz.com/",
	},
	{
		Key:          "manhuagui",
		Name:         "Manhuagui",
		HostSuffixes: []string{"manhuagui.com", "hamreus.com"},
		Referer:      "https://www.manhuagui.com/",
		ExtraHeaders: Headers{
			{Name: "Accept", Value: "image/webp,image/apng,image/*,*/*;q=0.8"},
		},
	},
	{
		Key:          "baozimh",
		Name:         "Baozi Manhua",
		HostSuffixes: []string{"baozimh.com", "bzcdn.net", "bzmh.net"},
		Referer:      "https://www.baozimh.com/",
	},
	{
		Key:          "copymanga",
		Name:         "Copy Manga",
		HostSuffixes: []string{"copymanga.tv", "mangafuna.xyz"},
		Referer:      "https://www.copymanga.tv/",
		ExtraHeaders: Headers{
			{Name: "Accept", Value: "image/avif,image/webp,image/apng,image/*,*/*;q=0.8"},
			{Name: "Sec-Fetch-Dest", Value: "image"},
		},
	},
	{
		Key:          "92hm",
		Name:         "92hm",
		HostSuffixes: []string{"92hm.life", "92hm.net"},
		Referer:      "https://www.92hm.life/",
		UserAgent:    "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	},
	{
		Key:          "mangafire",
		Name:         "MangaFire",
		HostSuffixes: []string{"mangafire.to", "mfcdn.nl"},
		Referer:      "https://mangafire.to/",
	},
}

var defaultRegistry = mustRegistry(defaultProfiles)

// Default returns the registry built from the compiled-in profile table.
func Default() *Registry {
	return defaultRegistry
}

func mustRegistry(profiles []Profile) *Registry {
	r, err := NewRegistry(profiles)
	if err != nil {
		panic(err)
	}

	return r
}
