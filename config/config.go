package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/openbridge/swapd/chains"
)

type Config struct {
	// BIP39 mnemonic for the daemon's signing wallet
	Mnemonic string `json:"mnemonic"`

	// Path to SQLite database for history and API logs
	DatabasePath string `json:"database_path"`

	// RPC endpoints keyed by chain code ("ethereum", "base", ...)
	RPCEndpoints map[string]string `json:"rpc_endpoints"`

	// HTTP server port (default 8080)
	Port int `json:"port"`

	// Same-chain aggregator API
	OnChainAPIBase string `json:"onchain_api_base"`
	OnChainAPIKey  string `json:"onchain_api_key"`

	// NEAR Intents 1click API key for cross-chain swaps
	IntentsAPIKey string `json:"intents_api_key"`

	// CoinGecko demo API key for token logos and prices
	CoinGeckoAPIKey string `json:"coingecko_api_key"`

	// Optional Telegram notifications for terminal swap outcomes
	TelegramToken  string `json:"telegram_token"`
	TelegramChatID int64  `json:"telegram_chat_id"`

	// Explorer base URL overrides keyed by chain code; defaults come
	// from the chains registry
	Explorers map[string]string `json:"explorers"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Mnemonic == "" {
		return fmt.Errorf("mnemonic is required")
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("database_path is required")
	}
	if len(c.RPCEndpoints) == 0 {
		return fmt.Errorf("rpc_endpoints is required")
	}
	for chain := range c.RPCEndpoints {
		if !chains.IsSupported(chain) {
			return fmt.Errorf("unknown chain %q in rpc_endpoints", chain)
		}
	}
	if c.OnChainAPIBase == "" {
		return fmt.Errorf("onchain_api_base is required")
	}
	if c.Port == 0 {
		c.Port = 8080
	}
	return nil
}

// ExplorerTxURL builds an explorer link for a tx, honoring config overrides.
func (c *Config) ExplorerTxURL(chain, txHash string) string {
	if base, ok := c.Explorers[chain]; ok && base != "" {
		return fmt.Sprintf("%s/tx/%s", base, txHash)
	}
	return chains.ExplorerTxURL(chain, txHash)
}

// ExplorerBase returns the explorer root URL for a network, honoring config
// overrides. Empty for unknown networks.
func (c *Config) ExplorerBase(chain string) string {
	if base, ok := c.Explorers[chain]; ok && base != "" {
		return base
	}
	n, err := chains.Get(chain)
	if err != nil {
		return ""
	}
	return n.ExplorerBase
}
