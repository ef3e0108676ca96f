package swap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const spenderA = "0x1111111111111111111111111111111111111111"
const spenderB = "0x2222222222222222222222222222222222222222"

func TestNormalizeTradeNestingPriority(t *testing.T) {
	// "trade" wins over top-level, which wins over "crossChain".
	raw := map[string]any{
		"trade": map[string]any{
			"spenderAddress": spenderA,
			"to":             map[string]any{"tokenAmount": "1.5"},
		},
		"spenderAddress": spenderB,
		"to":             map[string]any{"tokenAmount": "9.9"},
	}

	f, err := NormalizeTrade(raw, 6)
	require.NoError(t, err)
	assert.Equal(t, spenderA, f.Spender.Hex())
	assert.True(t, f.HasSpender)
	assert.Equal(t, "1.5", f.OutputDisplay)
	assert.Equal(t, "1500000", f.OutputAmount.String())
}

func TestNormalizeTradeSpenderKeyOrder(t *testing.T) {
	raw := map[string]any{
		"contractAddress": spenderB,
		"routerAddress":   spenderA,
	}
	f, err := NormalizeTrade(raw, 6)
	require.NoError(t, err)
	assert.True(t, f.HasSpender)
	// contractAddress precedes routerAddress in the probe order.
	assert.Equal(t, spenderB, f.Spender.Hex())
}

func TestNormalizeTradeOnChainTradeIsSpenderOnly(t *testing.T) {
	raw := map[string]any{
		"onChainTrade": map[string]any{
			"spenderAddress": spenderA,
			"to":             map[string]any{"tokenAmount": "7.7"},
		},
	}
	f, err := NormalizeTrade(raw, 6)
	require.NoError(t, err)
	assert.True(t, f.HasSpender)
	// Output is never read from the spender-only nesting level.
	assert.Empty(t, f.OutputDisplay)
	assert.Equal(t, "0", f.OutputAmount.String())
}

func TestNormalizeTradeApprovalSignal(t *testing.T) {
	f, err := NormalizeTrade(map[string]any{"needApprove": true}, 6)
	require.NoError(t, err)
	require.NotNil(t, f.ApprovalRequired)
	assert.True(t, *f.ApprovalRequired)

	f, err = NormalizeTrade(map[string]any{"needsApprove": false}, 6)
	require.NoError(t, err)
	require.NotNil(t, f.ApprovalRequired)
	assert.False(t, *f.ApprovalRequired)

	// Absent signal stays nil, not false.
	f, err = NormalizeTrade(map[string]any{"provider": "x"}, 6)
	require.NoError(t, err)
	assert.Nil(t, f.ApprovalRequired)
}

func TestNormalizeTradeProviderTag(t *testing.T) {
	f, err := NormalizeTrade(map[string]any{"dexName": "quickswap"}, 6)
	require.NoError(t, err)
	assert.Equal(t, "quickswap", f.ProviderTag)

	f, err = NormalizeTrade(map[string]any{
		"provider": "uniswap",
		"dexName":  "other",
	}, 6)
	require.NoError(t, err)
	assert.Equal(t, "uniswap", f.ProviderTag)
}

func TestNormalizeTradeTransaction(t *testing.T) {
	raw := map[string]any{
		"transaction": map[string]any{
			"to":    spenderA,
			"data":  "0xdeadbeef",
			"value": "1000",
		},
	}
	f, err := NormalizeTrade(raw, 6)
	require.NoError(t, err)
	require.NotNil(t, f.Tx)
	assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, f.Tx.Data)
	assert.Equal(t, "1000", f.Tx.Value.String())
}

func TestNormalizeTradeMalformedOutputRanksZero(t *testing.T) {
	raw := map[string]any{
		"to": map[string]any{"tokenAmount": "not-a-number"},
	}
	f, err := NormalizeTrade(raw, 6)
	require.NoError(t, err)
	assert.Equal(t, "0", f.OutputAmount.String())
}

func TestNormalizeTradeNilPayload(t *testing.T) {
	_, err := NormalizeTrade(nil, 6)
	assert.Error(t, err)
}

func TestNormalizeTradeZeroAddressSpenderIgnored(t *testing.T) {
	raw := map[string]any{
		"spenderAddress": "0x0000000000000000000000000000000000000000",
	}
	f, err := NormalizeTrade(raw, 6)
	require.NoError(t, err)
	assert.False(t, f.HasSpender)
}
