package config

import (
	"fmt"
	"os"

	"github.com/brogergvhs/panelfetch/internal/rules"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ServerURL   string `yaml:"server_url"`
	ServerKind  string `yaml:"server_kind"`
	AccessToken string `yaml:"access_token"`

	Output       string `yaml:"output"`
	ImageWorkers int    `yaml:"image_workers"`
	KeepFolders  bool   `yaml:"keep_folders"`
	SkipBroken   bool   `yaml:"skip_broken"`
	Debug        bool   `yaml:"debug"`

	UserAgent        string `yaml:"user_agent"`
	CloudflareBypass bool   `yaml:"cloudflare_bypass"`
	SameOriginAuth   bool   `yaml:"same_origin_auth"`

	HostRewrites      []rules.HostRewrite `yaml:"host_rewrites,omitempty"`
	PreferSignedHosts []string            `yaml:"prefer_signed_hosts,omitempty"`
}

// Options carries CLI flag values; non-zero fields override the file.
type Options struct {
	IgnoreConfig bool
	Debug        bool
	ServerURL    string
	ServerKind   string
	AccessToken  string
	Output       string
	ImageWorkers int
	KeepFolders  bool
	SkipBroken   bool
	UserAgent    string

	SameOriginAuth bool
}

func DefaultConfig() *Config {
	return &Config{
		Output:       ".",
		ImageWorkers: 5,
	}
}

// Rules returns the built-in normalization table with the configured
// entries in front.
func (c *Config) Rules() rules.Table {
	return rules.Default().Merge(rules.Table{
		HostRewrites:      c.HostRewrites,
		PreferSignedHosts: c.PreferSignedHosts,
	})
}

func SaveYAML(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

func loadYAML(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	c := DefaultConfig()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, err
	}

	return c, nil
}

// LoadMerged loads the active config (or defaults) and applies opts on top.
// The second return value describes where the config came from.
func LoadMerged(opts Options) (*Config, string, error) {
	if opts.IgnoreConfig {
		cfg := DefaultConfig()
		mergeConfig(cfg, opts)
		normalizeDefaults(cfg)
		return cfg, "(ignored config)", nil
	}

	activePath, err := ActiveConfigPath()
	if err == ErrNoConfig || activePath == "" {
		cfg := DefaultConfig()
		mergeConfig(cfg, opts)
		normalizeDefaults(cfg)
		return cfg, "(default config in memory)\nRun `panelfetch config init` to create an actual config\n", nil
	}
	if err != nil {
		return nil, "", err
	}

	cfg, err := loadYAML(activePath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config %s: %w", activePath, err)
	}

	mergeConfig(cfg, opts)
	normalizeDefaults(cfg)

	return cfg, activePath, nil
}

func mergeConfig(c *Config, o Options) {
	if o.ServerURL != "" {
		c.ServerURL = o.ServerURL
	}
	if o.ServerKind != "" {
		c.ServerKind = o.ServerKind
	}
	if o.AccessToken != "" {
		c.AccessToken = o.AccessToken
	}
	if o.Output != "" {
		c.Output = o.Output
	}
	if o.ImageWorkers != 0 {
		c.ImageWorkers = o.ImageWorkers
	}
	if o.KeepFolders {
		c.KeepFolders = true
	}
	if o.SkipBroken {
		c.SkipBroken = true
	}
	if o.Debug {
		c.Debug = true
	}
	if o.UserAgent != "" {
		c.UserAgent = o.UserAgent
	}
	if o.SameOriginAuth {
		c.SameOriginAuth = true
	}
}

func normalizeDefaults(c *Config) {
	if c.Output == "" {
		c.Output = "."
	}
	if c.ImageWorkers <= 0 {
		c.ImageWorkers = 5
	}
}

func (c *Config) Print() {
	if c.ServerURL != "" {
		fmt.Printf(" -server_url: %s\n", c.ServerURL)
	}
	if c.ServerKind != "" {
		fmt.Printf(" -server_kind: %s\n", c.ServerKind)
	}
	if c.AccessToken != "" {
		fmt.Printf(" -access_token: (set)\n")
	}
	fmt.Printf(" -output: %s\n", c.Output)
	fmt.Printf(" -image_workers: %d\n", c.ImageWorkers)
	if c.KeepFolders {
		fmt.Printf(" -keep_folders: %t\n", c.KeepFolders)
	}
	if c.SkipBroken {
		fmt.Printf(" -skip_broken: %t\n", c.SkipBroken)
	}
	if c.Debug {
		fmt.Printf(" -debug: %t\n", c.Debug)
	}
	if c.UserAgent != "" {
		fmt.Printf(" -user_agent: %s\n", c.UserAgent)
	}
	if c.CloudflareBypass {
		fmt.Printf(" -cloudflare_bypass: %t\n", c.CloudflareBypass)
	}
	if c.SameOriginAuth {
		fmt.Printf(" -same_origin_auth: %t\n", c.SameOriginAuth)
	}
	for _, r := range c.HostRewrites {
		fmt.Printf(" -host_rewrite: %s -> %s\n", r.From, r.To)
	}
	for _, h := range c.PreferSignedHosts {
		fmt.Printf(" -prefer_signed_host: %s\n", h)
	}
}
