// Package chains holds the static network registry: the chain codes the
// orchestrator accepts, their EVM chain IDs, native assets and explorers.
package chains

import (
	"fmt"
	"math/big"
	"strings"
)

// Network describes one supported chain.
type Network struct {
	Code           string // lowercase key used in config and API paths
	ChainID        *big.Int
	NativeSymbol   string
	NativeDecimals int
	ExplorerBase   string // https://... without trailing slash
}

// networks is keyed by lowercase chain code.
var networks = map[string]Network{
	"ethereum": {
		Code:           "ethereum",
		ChainID:        big.NewInt(1),
		NativeSymbol:   "ETH",
		NativeDecimals: 18,
		ExplorerBase:   "https://etherscan.io",
	},
	"base": {
		Code:           "base",
		ChainID:        big.NewInt(8453),
		NativeSymbol:   "ETH",
		NativeDecimals: 18,
		ExplorerBase:   "https://basescan.org",
	},
	"avalanche": {
		Code:           "avalanche",
		ChainID:        big.NewInt(43114),
		NativeSymbol:   "AVAX",
		NativeDecimals: 18,
		ExplorerBase:   "https://snowtrace.io",
	},
	"arbitrum": {
		Code:           "arbitrum",
		ChainID:        big.NewInt(42161),
		NativeSymbol:   "ETH",
		NativeDecimals: 18,
		ExplorerBase:   "https://arbiscan.io",
	},
	"polygon": {
		Code:           "polygon",
		ChainID:        big.NewInt(137),
		NativeSymbol:   "POL",
		NativeDecimals: 18,
		ExplorerBase:   "https://polygonscan.com",
	},
	"optimism": {
		Code:           "optimism",
		ChainID:        big.NewInt(10),
		NativeSymbol:   "ETH",
		NativeDecimals: 18,
		ExplorerBase:   "https://optimistic.etherscan.io",
	},
	"bsc": {
		Code:           "bsc",
		ChainID:        big.NewInt(56),
		NativeSymbol:   "BNB",
		NativeDecimals: 18,
		ExplorerBase:   "https://bscscan.com",
	},
}

// Get returns the network for a chain code.
func Get(code string) (Network, error) {
	n, ok := networks[strings.ToLower(code)]
	if !ok {
		return Network{}, fmt.Errorf("unknown network %q", code)
	}
	return n, nil
}

// ChainID returns the EVM chain ID for a chain code.
func ChainID(code string) (*big.Int, error) {
	n, err := Get(code)
	if err != nil {
		return nil, err
	}
	return n.ChainID, nil
}

// IsSupported reports whether the chain code is in the registry.
func IsSupported(code string) bool {
	_, ok := networks[strings.ToLower(code)]
	return ok
}

// Codes returns all registered chain codes.
func Codes() []string {
	codes := make([]string, 0, len(networks))
	for code := range networks {
		codes = append(codes, code)
	}
	return codes
}

// ExplorerTxURL builds an explorer link for a transaction hash.
func ExplorerTxURL(code, txHash string) string {
	n, err := Get(code)
	if err != nil || n.ExplorerBase == "" {
		return ""
	}
	return fmt.Sprintf("%s/tx/%s", n.ExplorerBase, txHash)
}
