package enrich

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromReaderDefaults(t *testing.T) {
	cfg, err := LoadConfigFromReader(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, defaultWalletCap, cfg.WalletCap)
	assert.Equal(t, defaultBudget, cfg.Budget)
}

func TestLoadConfigFromReaderOverrides(t *testing.T) {
	cfg, err := LoadConfigFromReader(strings.NewReader("wallet_cap: 50\nbudget: 5s\n"))
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.WalletCap)
	assert.Equal(t, 5*time.Second, cfg.Budget)
}

func TestLoadConfigFromReaderRejectsBadBudget(t *testing.T) {
	_, err := LoadConfigFromReader(strings.NewReader("budget: whenever\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid budget")

	_, err = LoadConfigFromReader(strings.NewReader("budget: -2s\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be positive")
}
