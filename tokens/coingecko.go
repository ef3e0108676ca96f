package tokens

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/openbridge/swapd/swap"
)

const coingeckoBase = "https://api.coingecko.com/api/v3"

const (
	logoTTL  = 24 * time.Hour
	priceTTL = 1 * time.Minute
)

// networkToPlatform maps network codes to CoinGecko asset platform IDs.
var networkToPlatform = map[string]string{
	"ethereum":  "ethereum",
	"base":      "base",
	"avalanche": "avalanche",
	"arbitrum":  "arbitrum-one",
	"polygon":   "polygon-pos",
	"optimism":  "optimistic-ethereum",
	"bsc":       "binance-smart-chain",
}

// nativeCoinID maps network codes to the CoinGecko coin ID of the native
// asset, used where the contract endpoints do not apply.
var nativeCoinID = map[string]string{
	"ethereum":  "ethereum",
	"base":      "ethereum",
	"avalanche": "avalanche-2",
	"arbitrum":  "ethereum",
	"polygon":   "polygon-ecosystem-token",
	"optimism":  "ethereum",
	"bsc":       "binancecoin",
}

// PriceClient resolves token logos and USD prices via CoinGecko, with
// caching tuned per endpoint: logos barely change, prices go stale fast.
type PriceClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logoCache  *memoCache[string]
	priceCache *memoCache[float64]
}

func NewPriceClient(apiKey string) *PriceClient {
	return &PriceClient{
		apiKey:  apiKey,
		baseURL: coingeckoBase,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logoCache:  newMemoCache[string](logoTTL),
		priceCache: newMemoCache[float64](priceTTL),
	}
}

// Logo returns the token's image URL, or "" when CoinGecko does not know
// the asset. Empty results are not held for the full TTL: a token listed
// later shows up on the next request.
func (c *PriceClient) Logo(ctx context.Context, asset swap.Asset) (string, error) {
	logo, err := c.logoCache.getOrFetch(asset.String(), func() (string, error) {
		var path string
		if asset.IsNative() {
			coinID, ok := nativeCoinID[asset.Network]
			if !ok {
				return "", nil
			}
			path = fmt.Sprintf("/coins/%s?localization=false&tickers=false&market_data=false&community_data=false&developer_data=false", url.PathEscape(coinID))
		} else {
			platform, ok := networkToPlatform[asset.Network]
			if !ok {
				return "", nil
			}
			path = fmt.Sprintf("/coins/%s/contract/%s", url.PathEscape(platform), strings.ToLower(asset.Address.Hex()))
		}

		var raw struct {
			Image struct {
				Small string `json:"small"`
				Large string `json:"large"`
			} `json:"image"`
		}
		if err := c.get(ctx, path, &raw); err != nil {
			return "", err
		}
		if raw.Image.Small != "" {
			return raw.Image.Small, nil
		}
		return raw.Image.Large, nil
	})
	if err == nil && logo == "" {
		c.logoCache.invalidate(asset.String())
	}
	return logo, err
}

// Price returns the token's USD price, 0 when unknown.
func (c *PriceClient) Price(ctx context.Context, asset swap.Asset) (float64, error) {
	return c.priceCache.getOrFetch(asset.String(), func() (float64, error) {
		if asset.IsNative() {
			coinID, ok := nativeCoinID[asset.Network]
			if !ok {
				return 0, nil
			}
			path := fmt.Sprintf("/simple/price?ids=%s&vs_currencies=usd", url.QueryEscape(coinID))
			var raw map[string]map[string]float64
			if err := c.get(ctx, path, &raw); err != nil {
				return 0, err
			}
			return raw[coinID]["usd"], nil
		}

		platform, ok := networkToPlatform[asset.Network]
		if !ok {
			return 0, nil
		}
		addr := strings.ToLower(asset.Address.Hex())
		path := fmt.Sprintf("/simple/token_price/%s?contract_addresses=%s&vs_currencies=usd", url.PathEscape(platform), addr)
		var raw map[string]map[string]float64
		if err := c.get(ctx, path, &raw); err != nil {
			return 0, err
		}
		return raw[addr]["usd"], nil
	})
}

func (c *PriceClient) get(ctx context.Context, path string, out any) error {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	u := fmt.Sprintf("%s%s%sx_cg_demo_api_key=%s", c.baseURL, path, sep, url.QueryEscape(c.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("coingecko: HTTP %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("coingecko decode: %w", err)
	}
	return nil
}
