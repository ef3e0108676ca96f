package intents

import (
	"strings"

	"github.com/openbridge/swapd/swap"
)

// nativeTokenID maps network codes to the 1click token ID of the network's
// native asset.
var nativeTokenID = map[string]string{
	"ethereum":  "nep141:eth.omft.near",
	"base":      "nep141:base.omft.near",
	"arbitrum":  "nep141:arb.omft.near",
	"avalanche": "nep245:v2_1.omni.hot.tg:43114_11111111111111111111",
	"bsc":       "nep245:v2_1.omni.hot.tg:56_11111111111111111111",
	"polygon":   "nep245:v2_1.omni.hot.tg:137_11111111111111111111",
	"optimism":  "nep245:v2_1.omni.hot.tg:10_11111111111111111111",
}

// erc20TokenID maps "network:0xaddress" (address lowercased) to 1click token
// IDs for bridgeable ERC-20s.
var erc20TokenID = map[string]string{
	"ethereum:0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48":  "nep141:eth-0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48.omft.near",
	"ethereum:0xdac17f958d2ee523a2206206994597c13d831ec7":  "nep141:eth-0xdac17f958d2ee523a2206206994597c13d831ec7.omft.near",
	"base:0x833589fcd6edb6e08f4c7c32d4f71b54bda02913":      "nep141:base-0x833589fcd6edb6e08f4c7c32d4f71b54bda02913.omft.near",
	"arbitrum:0xaf88d065e77c8cc2239327c5edb3a432268e5831":  "nep141:arb-0xaf88d065e77c8cc2239327c5edb3a432268e5831.omft.near",
	"avalanche:0xb97ef9ef8734c71904d8002f8b6bc66dd9c48a6e": "nep245:v2_1.omni.hot.tg:43114_3atVJH3r5c4GqiSYmg9fECvjc47o",
}

// TokenID looks up the 1click token ID for an asset.
func TokenID(asset swap.Asset) (string, bool) {
	if asset.IsNative() {
		id, ok := nativeTokenID[asset.Network]
		return id, ok
	}
	key := asset.Network + ":" + strings.ToLower(asset.Address.Hex())
	id, ok := erc20TokenID[key]
	return id, ok
}
