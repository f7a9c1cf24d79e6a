package marketmeta

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"tradelens-api/pkg/confkit"
)

const (
	defaultChunkSize = 30
	defaultWorkers   = 4
	defaultPace      = 80 * time.Millisecond
	defaultTagTTL    = 6 * time.Hour
)

// Config describes the market-metadata resolution pipeline.
type Config struct {
	BaseURL      string `yaml:"base_url"`
	SnapshotPath string `yaml:"snapshot_path"`

	ChunkSize int    `yaml:"chunk_size"`
	Workers   int    `yaml:"workers"`
	PaceRaw   string `yaml:"pace"`
	TagTTLSec int    `yaml:"tag_ttl"` // seconds

	Pace time.Duration `yaml:"-"`
}

// LoadConfig reads market-metadata configuration from disk.
func LoadConfig(path string) (*Config, error) {
	confkit.LoadDotenvOnce()
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open marketmeta config: %w", err)
	}
	defer file.Close()
	return LoadConfigFromReader(file)
}

// LoadConfigFromReader constructs a Config from an io.Reader.
func LoadConfigFromReader(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read marketmeta config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal marketmeta config: %w", err)
	}
	if err := cfg.normalise(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// TagTTL is the flat freshness window for cached event tags.
func (c *Config) TagTTL() time.Duration {
	if c.TagTTLSec > 0 {
		return time.Duration(c.TagTTLSec) * time.Second
	}
	return defaultTagTTL
}

func (c *Config) normalise() error {
	c.BaseURL = strings.TrimSpace(os.ExpandEnv(c.BaseURL))
	c.SnapshotPath = strings.TrimSpace(os.ExpandEnv(c.SnapshotPath))
	if c.ChunkSize <= 0 {
		c.ChunkSize = defaultChunkSize
	}
	if c.Workers <= 0 {
		c.Workers = defaultWorkers
	}
	raw := strings.TrimSpace(os.ExpandEnv(c.PaceRaw))
	if raw == "" {
		c.Pace = defaultPace
		return nil
	}
	pace, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("marketmeta config: invalid pace %q: %w", raw, err)
	}
	if pace < 0 {
		return fmt.Errorf("marketmeta config: pace must not be negative, got %s", pace)
	}
	c.Pace = pace
	return nil
}

// Validate ensures the configuration is structurally sound.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("marketmeta config: base_url is required")
	}
	return nil
}
