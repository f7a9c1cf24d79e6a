package wallet

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"tradelens-api/internal/cache"
	"tradelens-api/pkg/confkit"
)

const (
	defaultWorkers     = 2
	defaultPace        = 250 * time.Millisecond
	defaultRetryPace   = 300 * time.Millisecond
	defaultRetryCap    = 30
	defaultPositiveTTL = 24 * time.Hour
	defaultNegativeTTL = 10 * time.Minute
)

// ProviderConfig points at one explorer endpoint.
type ProviderConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
}

// Config describes the wallet-birth resolution pipeline.
type Config struct {
	Primary   ProviderConfig `yaml:"primary"`
	Secondary ProviderConfig `yaml:"secondary"`
	RPCURL    string         `yaml:"rpc_url"`

	SnapshotPath string `yaml:"snapshot_path"`

	Workers      int    `yaml:"workers"`
	PaceRaw      string `yaml:"pace"`
	RetryPaceRaw string `yaml:"retry_pace"`
	RetryCap     int    `yaml:"retry_cap"`

	PositiveTTLSec int `yaml:"positive_ttl"` // seconds
	NegativeTTLSec int `yaml:"negative_ttl"` // seconds

	Pace      time.Duration `yaml:"-"`
	RetryPace time.Duration `yaml:"-"`
}

// LoadConfig reads wallet configuration from disk.
func LoadConfig(path string) (*Config, error) {
	confkit.LoadDotenvOnce()
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open wallet config: %w", err)
	}
	defer file.Close()
	return LoadConfigFromReader(file)
}

// LoadConfigFromReader constructs a Config from an io.Reader.
func LoadConfigFromReader(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read wallet config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal wallet config: %w", err)
	}
	if err := cfg.normalise(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// TTLPolicy returns the configured positive/negative TTL split.
func (c *Config) TTLPolicy() cache.Policy {
	return cache.NewPolicy(c.PositiveTTLSec, c.NegativeTTLSec, defaultPositiveTTL, defaultNegativeTTL)
}

func (c *Config) normalise() error {
	c.Primary.expandEnv()
	c.Secondary.expandEnv()
	c.RPCURL = strings.TrimSpace(os.ExpandEnv(c.RPCURL))
	c.SnapshotPath = strings.TrimSpace(os.ExpandEnv(c.SnapshotPath))

	if c.Workers <= 0 {
		c.Workers = defaultWorkers
	}
	if c.RetryCap <= 0 {
		c.RetryCap = defaultRetryCap
	}

	var err error
	if c.Pace, err = parsePace("pace", c.PaceRaw, defaultPace); err != nil {
		return err
	}
	if c.RetryPace, err = parsePace("retry_pace", c.RetryPaceRaw, defaultRetryPace); err != nil {
		return err
	}
	return nil
}

func (p *ProviderConfig) expandEnv() {
	p.BaseURL = strings.TrimSpace(os.ExpandEnv(p.BaseURL))
	p.APIKey = strings.TrimSpace(os.ExpandEnv(p.APIKey))
}

func parsePace(name, raw string, fallback time.Duration) (time.Duration, error) {
	raw = strings.TrimSpace(os.ExpandEnv(raw))
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("wallet config: invalid %s %q: %w", name, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("wallet config: %s must not be negative, got %s", name, d)
	}
	return d, nil
}

// Validate ensures the configuration is structurally sound.
func (c *Config) Validate() error {
	if c.Primary.BaseURL == "" {
		return fmt.Errorf("wallet config: primary.base_url is required")
	}
	if c.RPCURL == "" {
		return fmt.Errorf("wallet config: rpc_url is required")
	}
	return nil
}
