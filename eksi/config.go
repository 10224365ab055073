package eksi

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/eksirss/eksi/internal/fetch"
)

// Config holds all eksirss configuration.
type Config struct {
	BaseURL           string        `yaml:"base_url"`
	MaxPages          int           `yaml:"max_pages"`
	PageSize          int           `yaml:"page_size"` // full-page threshold for pagination
	CombinedLimit     int           `yaml:"combined_limit"`
	CacheTTL          time.Duration `yaml:"cache_ttl"`
	SubscriptionsFile string        `yaml:"subscriptions_file"`
	FetchLogDB        string        `yaml:"fetch_log_db"`
	Fetch             fetch.Config  `yaml:"fetch"`
	Browser           BrowserConfig `yaml:"browser"`
}

// BrowserConfig controls the headless-browser fetch path.
type BrowserConfig struct {
	Enabled   bool   `yaml:"enabled"`
	RemoteURL string `yaml:"remote_url"`
}

func (c *Config) defaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.MaxPages <= 0 {
		c.MaxPages = 3
	}
	if c.PageSize <= 0 {
		c.PageSize = 10
	}
	if c.CombinedLimit <= 0 {
		c.CombinedLimit = 10
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = 15 * time.Minute
	}
	if c.SubscriptionsFile == "" {
		c.SubscriptionsFile = "subscriptions.json"
	}
}

// LoadConfigFile reads a YAML config file.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
