package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const validConfig = `{
	"mnemonic": "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about",
	"database_path": "/tmp/swapd.db",
	"rpc_endpoints": {"ethereum": "https://eth.example", "base": "https://base.example"},
	"onchain_api_base": "https://api.example"
}`

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig))
	require.NoError(t, err)

	assert.Equal(t, "/tmp/swapd.db", cfg.DatabasePath)
	assert.Len(t, cfg.RPCEndpoints, 2)
	assert.Equal(t, 8080, cfg.Port, "port defaults when omitted")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}

func TestLoadBadJSON(t *testing.T) {
	_, err := Load(writeConfig(t, "{not json"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		errHas string
	}{
		{"missing mnemonic", func(c *Config) { c.Mnemonic = "" }, "mnemonic"},
		{"missing database", func(c *Config) { c.DatabasePath = "" }, "database_path"},
		{"missing rpc", func(c *Config) { c.RPCEndpoints = nil }, "rpc_endpoints"},
		{"unknown chain", func(c *Config) { c.RPCEndpoints = map[string]string{"dogechain": "x"} }, "dogechain"},
		{"missing api base", func(c *Config) { c.OnChainAPIBase = "" }, "onchain_api_base"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &Config{
				Mnemonic:       "abandon abandon about",
				DatabasePath:   "/tmp/swapd.db",
				RPCEndpoints:   map[string]string{"ethereum": "https://eth.example"},
				OnChainAPIBase: "https://api.example",
			}
			tc.mutate(cfg)

			err := cfg.validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errHas)
		})
	}
}

func TestExplorerTxURL(t *testing.T) {
	cfg := &Config{Explorers: map[string]string{"base": "https://custom.example"}}

	// Override wins over the registry default.
	assert.Equal(t, "https://custom.example/tx/0xabc", cfg.ExplorerTxURL("base", "0xabc"))
	// Registry default applies otherwise.
	assert.Equal(t, "https://etherscan.io/tx/0xabc", cfg.ExplorerTxURL("ethereum", "0xabc"))
	// Unknown networks produce no link.
	assert.Equal(t, "", cfg.ExplorerTxURL("dogechain", "0xabc"))
}

func TestExplorerBase(t *testing.T) {
	cfg := &Config{Explorers: map[string]string{"base": "https://custom.example"}}

	assert.Equal(t, "https://custom.example", cfg.ExplorerBase("base"))
	assert.Equal(t, "https://etherscan.io", cfg.ExplorerBase("ethereum"))
	assert.Equal(t, "", cfg.ExplorerBase("dogechain"))
}
