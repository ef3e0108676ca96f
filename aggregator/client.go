// Package aggregator implements the swap provider backed by the external
// swap-aggregation HTTP API: quote calculation for same-chain and cross-chain
// routes, and swap transaction construction.
package aggregator

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client wraps the aggregation API with key authentication.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates an aggregation API client. httpClient may be nil.
func NewClient(baseURL, apiKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

// quoteResponse is the envelope around the raw trade payloads. The trades
// themselves stay opaque maps: their shape varies per route type and is
// normalized by swap.NormalizeTrade.
type quoteResponse struct {
	Trades []map[string]any `json:"trades"`
}

// swapTxResponse is the prepared transaction for one trade ID.
type swapTxResponse struct {
	Transaction struct {
		To    string `json:"to"`
		Data  string `json:"data"`
		Value string `json:"value"`
	} `json:"transaction"`
}

// OnChainTrades requests candidate same-chain trades.
func (c *Client) OnChainTrades(ctx context.Context, chain, fromToken, toToken, amount, sender string) ([]map[string]any, error) {
	params := url.Values{}
	params.Set("chain", chain)
	params.Set("fromToken", fromToken)
	params.Set("toToken", toToken)
	params.Set("amount", amount)
	params.Set("sender", sender)

	var resp quoteResponse
	if err := c.get(ctx, "/v2/trades/onchain", params, &resp); err != nil {
		return nil, fmt.Errorf("onchain trades: %w", err)
	}
	return resp.Trades, nil
}

// CrossChainTrades requests candidate bridging trades.
func (c *Client) CrossChainTrades(ctx context.Context, fromChain, toChain, fromToken, toToken, amount, sender string) ([]map[string]any, error) {
	params := url.Values{}
	params.Set("fromChain", fromChain)
	params.Set("toChain", toChain)
	params.Set("fromToken", fromToken)
	params.Set("toToken", toToken)
	params.Set("amount", amount)
	params.Set("sender", sender)

	var resp quoteResponse
	if err := c.get(ctx, "/v2/trades/crosschain", params, &resp); err != nil {
		return nil, fmt.Errorf("crosschain trades: %w", err)
	}
	return resp.Trades, nil
}

// BuildSwap asks the API to prepare the swap transaction for a trade ID.
func (c *Client) BuildSwap(ctx context.Context, tradeID, sender string) (*swapTxResponse, error) {
	params := url.Values{}
	params.Set("id", tradeID)
	params.Set("sender", sender)

	var resp swapTxResponse
	if err := c.get(ctx, "/v2/trades/build", params, &resp); err != nil {
		return nil, fmt.Errorf("build swap: %w", err)
	}
	return &resp, nil
}

// CrossChainStatus polls the bridge-side status of a submitted trade.
// Returns the raw status string ("PENDING", "SUCCESS", "FAILED", ...).
func (c *Client) CrossChainStatus(ctx context.Context, txHash string) (string, error) {
	params := url.Values{}
	params.Set("txHash", txHash)

	var resp struct {
		Status string `json:"status"`
	}
	if err := c.get(ctx, "/v2/trades/status", params, &resp); err != nil {
		return "", fmt.Errorf("crosschain status: %w", err)
	}
	return resp.Status, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("requesting %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API returned %d: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}
