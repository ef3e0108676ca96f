// Package tokens maintains the tradable token registry: the built-in list
// per network, on-chain validation of user-imported contracts, and the
// logo/price lookup service.
package tokens

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/openbridge/swapd/swap"
)

// Token is one registry entry.
type Token struct {
	Asset swap.Asset
	Name  string
}

// builtin holds the curated per-network lists. Native entries use the zero
// address, matching swap.Asset semantics.
var builtin = map[string][]Token{
	"ethereum": {
		native("ethereum", "ETH", 18, "Ether"),
		erc20("ethereum", "USDC", 6, "USD Coin", "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"),
		erc20("ethereum", "USDT", 6, "Tether USD", "0xdAC17F958D2ee523a2206206994597C13D831ec7"),
		erc20("ethereum", "WETH", 18, "Wrapped Ether", "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"),
		erc20("ethereum", "DAI", 18, "Dai Stablecoin", "0x6B175474E89094C44Da98b954EedeAC495271d0F"),
	},
	"base": {
		native("base", "ETH", 18, "Ether"),
		erc20("base", "USDC", 6, "USD Coin", "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913"),
		erc20("base", "WETH", 18, "Wrapped Ether", "0x4200000000000000000000000000000000000006"),
	},
	"arbitrum": {
		native("arbitrum", "ETH", 18, "Ether"),
		erc20("arbitrum", "USDC", 6, "USD Coin", "0xaf88d065e77c8cC2239327C5EDb3A432268e5831"),
		erc20("arbitrum", "ARB", 18, "Arbitrum", "0x912CE59144191C1204E64559FE8253a0e49E6548"),
	},
	"avalanche": {
		native("avalanche", "AVAX", 18, "Avalanche"),
		erc20("avalanche", "USDC", 6, "USD Coin", "0xB97EF9Ef8734C71904D8002F8B6BC66Dd9c48a6E"),
	},
	"polygon": {
		native("polygon", "POL", 18, "Polygon Ecosystem Token"),
		erc20("polygon", "USDC", 6, "USD Coin", "0x3c499c542cEF5E3811e1192ce70d8cC03d5c3359"),
	},
	"optimism": {
		native("optimism", "ETH", 18, "Ether"),
		erc20("optimism", "OP", 18, "Optimism", "0x4200000000000000000000000000000000000042"),
		erc20("optimism", "USDC", 6, "USD Coin", "0x0b2C639c533813f4Aa9D7837CAf62653d097Ff85"),
	},
	"bsc": {
		native("bsc", "BNB", 18, "BNB"),
		erc20("bsc", "USDT", 18, "Tether USD", "0x55d398326f99059fF775485246999027B3197955"),
	},
}

func native(network, symbol string, decimals int, name string) Token {
	return Token{
		Asset: swap.Asset{Network: network, Symbol: symbol, Decimals: decimals},
		Name:  name,
	}
}

func erc20(network, symbol string, decimals int, name, addr string) Token {
	return Token{
		Asset: swap.Asset{
			Network:  network,
			Address:  common.HexToAddress(addr),
			Symbol:   symbol,
			Decimals: decimals,
		},
		Name: name,
	}
}

// List returns the built-in tokens for a network, nil for unknown networks.
func List(network string) []Token {
	return builtin[network]
}

// Lookup finds a built-in token by network and address. The zero address
// resolves to the network's native asset.
func Lookup(network string, addr common.Address) (Token, bool) {
	for _, t := range builtin[network] {
		if t.Asset.Address == addr {
			return t, true
		}
	}
	return Token{}, false
}

// BySymbol finds a built-in token by network and symbol, case-insensitive.
func BySymbol(network, symbol string) (Token, bool) {
	for _, t := range builtin[network] {
		if strings.EqualFold(t.Asset.Symbol, symbol) {
			return t, true
		}
	}
	return Token{}, false
}
