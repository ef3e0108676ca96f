package chains

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetKnownNetwork(t *testing.T) {
	n, err := Get("ethereum")
	require.NoError(t, err)
	assert.Equal(t, "ethereum", n.Code)
	assert.Equal(t, int64(1), n.ChainID.Int64())
	assert.Equal(t, "ETH", n.NativeSymbol)
	assert.Equal(t, 18, n.NativeDecimals)
}

func TestGetUnknownNetwork(t *testing.T) {
	_, err := Get("dogechain")
	assert.Error(t, err)
	assert.False(t, IsSupported("dogechain"))
}

func TestChainIDs(t *testing.T) {
	cases := map[string]int64{
		"ethereum":  1,
		"base":      8453,
		"avalanche": 43114,
		"arbitrum":  42161,
		"polygon":   137,
		"optimism":  10,
		"bsc":       56,
	}
	for code, want := range cases {
		id, err := ChainID(code)
		require.NoError(t, err, code)
		assert.Equal(t, want, id.Int64(), code)
	}
}

func TestCodesCoversAllNetworks(t *testing.T) {
	codes := Codes()
	assert.Len(t, codes, 7)
	for _, code := range codes {
		assert.True(t, IsSupported(code))
	}
}

func TestExplorerTxURL(t *testing.T) {
	url := ExplorerTxURL("ethereum", "0xabc")
	assert.Equal(t, "https://etherscan.io/tx/0xabc", url)
	assert.Empty(t, ExplorerTxURL("dogechain", "0xabc"))
}
