package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigTree(t *testing.T, mainYAML string) string {
	t.Helper()
	dir := t.TempDir()

	sections := map[string]string{
		"wallet.yaml": `
primary:
  base_url: https://api.polygonscan.com/api
rpc_url: https://polygon-rpc.example.com
`,
		"markets.yaml": "base_url: https://gamma-api.example.com\n",
		"enrich.yaml":  "wallet_cap: 100\nbudget: 10s\n",
	}
	for name, body := range sections {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}

	path := filepath.Join(dir, "tradelens.yaml")
	require.NoError(t, os.WriteFile(path, []byte(mainYAML), 0o644))
	return path
}

const mainYAML = `
Name: tradelens-api
Host: 0.0.0.0
Port: 8888
Env: test

TradeFeed:
  PageSize: 50

Wallet:
  File: wallet.yaml
Markets:
  File: markets.yaml
Enrich:
  File: enrich.yaml
`

func TestLoadHydratesSections(t *testing.T) {
	path := writeConfigTree(t, mainYAML)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.Env)
	assert.True(t, cfg.IsTestEnv())
	assert.Equal(t, filepath.Dir(path), cfg.BaseDir())
	assert.Equal(t, path, cfg.MainPath())

	require.NotNil(t, cfg.Wallet.Value)
	assert.Equal(t, "https://api.polygonscan.com/api", cfg.Wallet.Value.Primary.BaseURL)
	require.NotNil(t, cfg.Markets.Value)
	assert.Equal(t, "https://gamma-api.example.com", cfg.Markets.Value.BaseURL)
	require.NotNil(t, cfg.Enrich.Value)
	assert.Equal(t, 100, cfg.Enrich.Value.WalletCap)
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfigTree(t, `
Name: tradelens-api
Host: 0.0.0.0
Port: 8888
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Env)
	assert.False(t, cfg.IsTestEnv())
	assert.Equal(t, "https://data-api.polymarket.com", cfg.TradeFeed.BaseURL)
	assert.Equal(t, 100, cfg.TradeFeed.PageSize)
	assert.Equal(t, 500, cfg.TradeFeed.BatchLimit)

	// Sections without a file stay empty rather than failing.
	assert.Nil(t, cfg.Wallet.Value)
	assert.Nil(t, cfg.Markets.Value)
	assert.Nil(t, cfg.Enrich.Value)
}

func TestLoadRejectsUnknownEnv(t *testing.T) {
	path := writeConfigTree(t, `
Name: tradelens-api
Host: 0.0.0.0
Port: 8888
Env: staging
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "env must be one of")
}

func TestLoadMissingSectionFileFails(t *testing.T) {
	path := writeConfigTree(t, `
Name: tradelens-api
Host: 0.0.0.0
Port: 8888
Wallet:
  File: nope.yaml
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wallet config")
}
