package enrich

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
	defaultWalletCap = 500
	defaultBudget    = 20 * time.Second
)

// Config tunes the orchestrator.
type Config struct {
	// WalletCap bounds how many distinct wallets one enrichment run may
	// push into birth resolution.
	WalletCap int `yaml:"wallet_cap"`

	// BudgetRaw is the overall per-run deadline; past it whatever resolved
	// so far is returned.
	BudgetRaw string        `yaml:"budget"`
	Budget    time.Duration `yaml:"-"`
}

// LoadConfig reads orchestrator configuration from disk.
func LoadConfig(path string) (*Config, error) {
	confkit.LoadDotenvOnce()
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open enrich config: %w", err)
	}
	defer file.Close()
	return LoadConfigFromReader(file)
}

// LoadConfigFromReader constructs a Config from an io.Reader.
func LoadConfigFromReader(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read enrich config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal enrich config: %w", err)
	}
	if err := cfg.normalise(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalise() error {
	if c.WalletCap <= 0 {
		c.WalletCap = defaultWalletCap
	}
	c.BudgetRaw = strings.TrimSpace(os.ExpandEnv(c.BudgetRaw))
	if c.BudgetRaw == "" {
		c.Budget = defaultBudget
		return nil
	}
	budget, err := time.ParseDuration(c.BudgetRaw)
	if err != nil {
		return fmt.Errorf("enrich config: invalid budget %q: %w", c.BudgetRaw, err)
	}
	if budget <= 0 {
		return fmt.Errorf("enrich config: budget must be positive, got %s", budget)
	}
	c.Budget = budget
	return nil
}
