package intents

import (
	"context"
	"encoding/hex"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openbridge/swapd/swap"
)

func TestRouteContract(t *testing.T) {
	r := &route{
		provider: NewProvider("key", nil, nil, nil),
		from:     swap.Asset{Network: "ethereum", Symbol: "ETH"},
		to:       swap.Asset{Network: "polygon", Symbol: "POL"},
		amount:   big.NewInt(1e18),
		output:   big.NewInt(5e18),
	}

	assert.Equal(t, "intents", r.Provider())
	assert.Equal(t, swap.KindCrossChain, r.Kind())
	assert.Equal(t, big.NewInt(5e18), r.Output())

	// Deposits are transfers, never router calls.
	needed, err := r.NeedsApproval(context.Background())
	require.NoError(t, err)
	assert.False(t, needed)

	_, ok := r.Spender()
	assert.False(t, ok)

	_, err = r.Approve(context.Background())
	assert.ErrorIs(t, err, swap.ErrApprovalUnsupported)
}

func TestPackTransfer(t *testing.T) {
	to := common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	data, err := packTransfer(to, big.NewInt(1000000))
	require.NoError(t, err)

	// 4-byte selector plus two 32-byte arguments.
	require.Len(t, data, 4+32+32)
	assert.Equal(t, "a9059cbb", hex.EncodeToString(data[:4]))
	assert.Equal(t, to.Bytes(), data[16:36])
	assert.Equal(t, big.NewInt(1000000), new(big.Int).SetBytes(data[36:]))
}
