package aggregator

import (
	"context"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openbridge/swapd/swap"
)

var (
	testRecipient = common.HexToAddress("0x9858EfFD232B4033E47d90003D41EC34EcaEda94")
	testETH       = swap.Asset{Network: "ethereum", Symbol: "ETH", Decimals: 18}
	testUSDC      = swap.Asset{
		Network:  "ethereum",
		Address:  common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"),
		Symbol:   "USDC",
		Decimals: 6,
	}
	testBaseUSDC = swap.Asset{
		Network:  "base",
		Address:  common.HexToAddress("0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913"),
		Symbol:   "USDC",
		Decimals: 6,
	}
)

func testProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewClient(srv.URL, "", nil)
	rpc := map[string]*ethclient.Client{"ethereum": nil}
	return NewProvider(client, nil, rpc)
}

func TestQuoteOnChain(t *testing.T) {
	p := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/trades/onchain", r.URL.Path)
		w.Write([]byte(`{"trades":[
			{"id":"t-1","provider":"uniswap","to":{"tokenAmount":"995.5"}},
			{"id":"t-2","provider":"sushiswap","to":{"tokenAmount":"990"}}
		]}`))
	})

	routes, err := p.Quote(context.Background(), testETH, testUSDC, big.NewInt(1e18), testRecipient)
	require.NoError(t, err)
	require.Len(t, routes, 2)

	assert.Equal(t, "uniswap", routes[0].Provider())
	assert.Equal(t, swap.KindOnChain, routes[0].Kind())
	assert.Equal(t, "995500000", routes[0].Output().String())
	assert.Equal(t, "sushiswap", routes[1].Provider())
}

func TestQuoteCrossChain(t *testing.T) {
	p := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/trades/crosschain", r.URL.Path)
		w.Write([]byte(`{"trades":[{"crossChain":{"id":"x-1","to":{"tokenAmount":"998"}}}]}`))
	})

	routes, err := p.Quote(context.Background(), testUSDC, testBaseUSDC, big.NewInt(1_000_000_000), testRecipient)
	require.NoError(t, err)
	require.Len(t, routes, 1)

	assert.Equal(t, swap.KindCrossChain, routes[0].Kind())
	// The provider tag falls back to the provider name when the payload has none.
	assert.Equal(t, "aggregator", routes[0].Provider())
}

func TestQuoteDropsMalformedTrades(t *testing.T) {
	p := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"trades":[null,{"id":"t-1","to":{"tokenAmount":"100"}}]}`))
	})

	routes, err := p.Quote(context.Background(), testETH, testUSDC, big.NewInt(1e18), testRecipient)
	require.NoError(t, err)
	require.Len(t, routes, 1)
}

func TestQuoteNoRPCClient(t *testing.T) {
	p := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("API should not be called without an RPC client")
	})

	from := swap.Asset{Network: "base", Symbol: "ETH", Decimals: 18}
	_, err := p.Quote(context.Background(), from, testBaseUSDC, big.NewInt(1e18), testRecipient)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no RPC client")
}

func TestCheckStatusCrossChain(t *testing.T) {
	cases := []struct {
		remote string
		want   string
	}{
		{"SUCCESS", "completed"},
		{"COMPLETED", "completed"},
		{"done", "completed"},
		{"FAILED", "failed"},
		{"REFUNDED", "failed"},
		{"PENDING", "pending"},
		{"PROCESSING", "pending"},
	}

	for _, tc := range cases {
		t.Run(tc.remote, func(t *testing.T) {
			p := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"status":"` + tc.remote + `"}`))
			})

			got, err := p.CheckStatus(context.Background(), "0xabc", "x-1")
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestTradeID(t *testing.T) {
	cases := []struct {
		name string
		raw  map[string]any
		want string
	}{
		{"top level", map[string]any{"id": "a"}, "a"},
		{"tradeId alias", map[string]any{"tradeId": "b"}, "b"},
		{"nested trade", map[string]any{"trade": map[string]any{"quoteId": "c"}}, "c"},
		{"nested crossChain", map[string]any{"crossChain": map[string]any{"id": "d"}}, "d"},
		{"top level wins", map[string]any{"id": "a", "trade": map[string]any{"id": "c"}}, "a"},
		{"missing", map[string]any{"provider": "uniswap"}, ""},
		{"empty string skipped", map[string]any{"id": "", "tradeId": "b"}, "b"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tradeID(tc.raw))
		})
	}
}
