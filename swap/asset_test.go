package swap

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAddress(t *testing.T) {
	addr, err := ParseAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	require.NoError(t, err)
	assert.Equal(t, "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", addr.Hex())

	// Zero address is accepted as the native sentinel.
	addr, err = ParseAddress("0x0000000000000000000000000000000000000000")
	require.NoError(t, err)
	assert.Equal(t, ZeroAddress, addr)

	for _, bad := range []string{"", "0x123", "A0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", "0xZZb86991c6218b36c1d19D4a2e9Eb0cE3606eB48"} {
		_, err := ParseAddress(bad)
		assert.Error(t, err, bad)
	}
}

func TestAssetNativeAndString(t *testing.T) {
	eth := Asset{Network: "ethereum", Symbol: "ETH", Decimals: 18}
	assert.True(t, eth.IsNative())
	assert.Equal(t, "ETHEREUM.ETH", eth.String())

	usdc := Asset{
		Network:  "ethereum",
		Address:  common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"),
		Symbol:   "usdc",
		Decimals: 6,
	}
	assert.False(t, usdc.IsNative())
	assert.Equal(t, "ETHEREUM.USDC-0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", usdc.String())
}
