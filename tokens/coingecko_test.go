package tokens

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openbridge/swapd/swap"
)

func testPriceClient(handler http.HandlerFunc) (*PriceClient, *httptest.Server) {
	srv := httptest.NewServer(handler)
	c := NewPriceClient("test-key")
	c.baseURL = srv.URL
	return c, srv
}

func TestLogoCached(t *testing.T) {
	var calls atomic.Int32
	c, srv := testPriceClient(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"image":{"small":"https://img.example/eth-small.png"}}`))
	})
	defer srv.Close()

	eth := swap.Asset{Network: "ethereum", Symbol: "ETH"}

	logo, err := c.Logo(context.Background(), eth)
	require.NoError(t, err)
	assert.Equal(t, "https://img.example/eth-small.png", logo)

	_, err = c.Logo(context.Background(), eth)
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load(), "second lookup should hit the cache")
}

func TestLogoUnknownNotPinned(t *testing.T) {
	var calls atomic.Int32
	c, srv := testPriceClient(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			// Asset unknown to the API on the first lookup.
			w.Write([]byte(`{}`))
			return
		}
		w.Write([]byte(`{"image":{"large":"https://img.example/tok.png"}}`))
	})
	defer srv.Close()

	tok := swap.Asset{Network: "ethereum", Symbol: "TOK"}

	logo, err := c.Logo(context.Background(), tok)
	require.NoError(t, err)
	assert.Empty(t, logo)

	// The empty result must not be held for the full TTL.
	logo, err = c.Logo(context.Background(), tok)
	require.NoError(t, err)
	assert.Equal(t, "https://img.example/tok.png", logo)
}

func TestPriceERC20(t *testing.T) {
	c, srv := testPriceClient(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/simple/token_price/ethereum")
		assert.Equal(t, "test-key", r.URL.Query().Get("x_cg_demo_api_key"))
		w.Write([]byte(`{"0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48":{"usd":0.9998}}`))
	})
	defer srv.Close()

	usdc := swap.Asset{
		Network: "ethereum",
		Address: common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"),
		Symbol:  "USDC",
	}

	price, err := c.Price(context.Background(), usdc)
	require.NoError(t, err)
	assert.Equal(t, 0.9998, price)
}
