package config

import (
	"embed"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/matheuskafuri/newswave/internal/news"
	"gopkg.in/yaml.v3"
)

//go:embed default_config.yaml
var defaultConfigFS embed.FS

const (
	ProviderNewsAPI = "newsapi"
	ProviderRSS     = "rss"
)

// Environment variables consulted for the provider key, in order.
var apiKeyEnv = []string{"NEWSWAVE_API_KEY", "NEWS_API_KEY"}

type ArchiveConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Retention string `yaml:"retention"`
}

type ServerConfig struct {
	Addr     string                     `yaml:"addr"`
	Path     string                     `yaml:"path"`
	Provider string                     `yaml:"provider"` // "newsapi" or "rss"
	BaseURL  string                     `yaml:"base_url"`
	Country  string                     `yaml:"country"`
	APIKey   string                     `yaml:"api_key"`
	Feeds    map[news.Category][]string `yaml:"feeds,omitempty"`
}

type Config struct {
	Category string        `yaml:"category"`
	ProxyURL string        `yaml:"proxy_url"`
	Timeout  string        `yaml:"timeout"`
	LogLevel string        `yaml:"log_level"`
	Archive  ArchiveConfig `yaml:"archive"`
	Server   ServerConfig  `yaml:"server"`
}

// StartCategory returns the configured category, falling back to general.
func (c *Config) StartCategory() news.Category {
	cat, err := news.ParseCategory(c.Category)
	if err != nil {
		return news.DefaultCategory
	}
	return cat
}

func (c *Config) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return 15 * time.Second
	}
	return d
}

func (c *Config) RetentionDuration() time.Duration {
	if c.Archive.Retention == "" {
		return 30 * 24 * time.Hour
	}
	d, err := ParseDays(c.Archive.Retention)
	if err != nil {
		return 30 * 24 * time.Hour
	}
	return d
}

// APIKey returns the provider key from the config file or the environment.
func (c *Config) APIKey() string {
	if c.Server.APIKey != "" {
		return c.Server.APIKey
	}
	for _, name := range apiKeyEnv {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// ParseDays accepts time.ParseDuration syntax plus an "Nd" day suffix.
func ParseDays(s string) (time.Duration, error) {
	if len(s) > 1 && s[len(s)-1] == 'd' {
		var days int
		if _, err := fmt.Sscanf(s, "%dd", &days); err == nil {
			return time.Duration(days) * 24 * time.Hour, nil
		}
	}
	return time.ParseDuration(s)
}

func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "newswave", "config.yaml")
}

func ArchivePath() string {
	return filepath.Join(xdg.DataHome, "newswave", "archive.db")
}

func LogPath() string {
	return filepath.Join(xdg.StateHome, "newswave", "newswave.log")
}

func loadDefaults() (*Config, error) {
	data, err := defaultConfigFS.ReadFile("default_config.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading embedded config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded config: %w", err)
	}
	return &cfg, nil
}

// Load reads the config at path (or the default location) on top of the
// embedded defaults. A missing file is created from the defaults.
func Load(path string) (*Config, error) {
	cfg, err := loadDefaults()
	if err != nil {
		return nil, err
	}

	if path == "" {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Non-fatal: the embedded defaults still apply.
			_ = writeDefaults(path)
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Feeds replace the defaults wholesale rather than merging per key.
	var probe struct {
		Server struct {
			Feeds yaml.Node `yaml:"feeds"`
		} `yaml:"server"`
	}
	if err := yaml.Unmarshal(data, &probe); err == nil && !probe.Server.Feeds.IsZero() {
		cfg.Server.Feeds = nil
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func writeDefaults(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, _ := defaultConfigFS.ReadFile("default_config.yaml")
	return os.WriteFile(path, data, 0o644)
}

func validate(cfg *Config) error {
	if _, err := news.ParseCategory(cfg.Category); err != nil {
		return fmt.Errorf("category: %w", err)
	}
	if err := checkHTTPURL(cfg.ProxyURL); err != nil {
		return fmt.Errorf("proxy_url: %w", err)
	}
	if cfg.Timeout != "" {
		if d, err := time.ParseDuration(cfg.Timeout); err != nil || d <= 0 {
			return fmt.Errorf("timeout: invalid duration %q", cfg.Timeout)
		}
	}
	if cfg.Archive.Retention != "" {
		if _, err := ParseDays(cfg.Archive.Retention); err != nil {
			return fmt.Errorf("archive.retention: %w", err)
		}
	}

	switch cfg.Server.Provider {
	case ProviderNewsAPI, ProviderRSS:
	default:
		return fmt.Errorf("server.provider: unknown provider %q (valid: newsapi, rss)", cfg.Server.Provider)
	}
	if cfg.Server.Path != "" && !strings.HasPrefix(cfg.Server.Path, "/") {
		return fmt.Errorf("server.path: must start with /, got %q", cfg.Server.Path)
	}
	if cfg.Server.BaseURL != "" {
		if err := checkHTTPURL(cfg.Server.BaseURL); err != nil {
			return fmt.Errorf("server.base_url: %w", err)
		}
	}
	for cat, urls := range cfg.Server.Feeds {
		if _, err := news.ParseCategory(string(cat)); err != nil {
			return fmt.Errorf("server.feeds: %w", err)
		}
		for _, u := range urls {
			if err := checkHTTPURL(u); err != nil {
				return fmt.Errorf("server.feeds.%s: %w", cat, err)
			}
		}
	}
	return nil
}

func checkHTTPURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("url is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got %q", u.Scheme)
	}
	return nil
}
