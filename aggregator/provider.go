package aggregator

import (
	"context"
	"fmt"
	"log"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/openbridge/swapd/chains"
	"github.com/openbridge/swapd/swap"
	"github.com/openbridge/swapd/wallet"
)

// Provider serves both same-chain and cross-chain routes from the
// aggregation API. Same-chain swaps settle with the receipt; cross-chain
// swaps stay pending until the bridge-side status confirms delivery.
type Provider struct {
	client *Client
	signer *wallet.Signer
	rpc    map[string]*ethclient.Client
}

// NewProvider creates the aggregator provider. rpc maps network codes to
// dialed clients; networks without a client are skipped at quote time.
func NewProvider(client *Client, signer *wallet.Signer, rpc map[string]*ethclient.Client) *Provider {
	return &Provider{
		client: client,
		signer: signer,
		rpc:    rpc,
	}
}

func (p *Provider) Name() string {
	return "aggregator"
}

// Quote fetches candidate trades and normalizes each payload into a route.
// Malformed individual trades are logged and dropped rather than failing the
// whole quote.
func (p *Provider) Quote(ctx context.Context, from, to swap.Asset, amount *big.Int, recipient common.Address) ([]swap.Route, error) {
	rpc, ok := p.rpc[from.Network]
	if !ok {
		return nil, fmt.Errorf("no RPC client for network %s", from.Network)
	}

	chainID, err := chains.ChainID(from.Network)
	if err != nil {
		return nil, err
	}

	kind := swap.KindOnChain
	var raws []map[string]any
	if from.Network == to.Network {
		raws, err = p.client.OnChainTrades(ctx, from.Network, from.Address.Hex(), to.Address.Hex(), amount.String(), recipient.Hex())
	} else {
		kind = swap.KindCrossChain
		raws, err = p.client.CrossChainTrades(ctx, from.Network, to.Network, from.Address.Hex(), to.Address.Hex(), amount.String(), recipient.Hex())
	}
	if err != nil {
		return nil, fmt.Errorf("fetching %s trades: %w", kind, err)
	}

	routes := make([]swap.Route, 0, len(raws))
	for _, raw := range raws {
		fields, err := swap.NormalizeTrade(raw, to.Decimals)
		if err != nil {
			log.Printf("[aggregator] dropping malformed trade: %v", err)
			continue
		}
		routes = append(routes, &route{
			provider: p,
			fields:   fields,
			kind:     kind,
			tradeID:  tradeID(raw),
			from:     from,
			to:       to,
			amount:   amount,
			rpc:      rpc,
			chainID:  chainID,
			signer:   p.signer,
		})
	}
	return routes, nil
}

// Execute rebuilds the swap transaction through the API and submits it. The
// sequencer calls this once when a route's own submission failed.
func (p *Provider) Execute(ctx context.Context, r swap.Route) (swap.ExecuteResult, error) {
	ar, ok := r.(*route)
	if !ok {
		return swap.ExecuteResult{}, fmt.Errorf("route not issued by this provider")
	}

	tx, err := p.buildTx(ctx, ar)
	if err != nil {
		return swap.ExecuteResult{}, err
	}

	hash, err := ar.signer.Call(ctx, ar.rpc, ar.chainID, tx.To, tx.Value, tx.Data)
	if err != nil {
		return swap.ExecuteResult{}, fmt.Errorf("submitting rebuilt swap: %w", err)
	}

	result := swap.ExecuteResult{TxHash: hash}
	if ar.kind == swap.KindCrossChain {
		result.ExternalID = ar.tradeID
	}
	return result, nil
}

// CheckStatus polls a submitted swap. Cross-chain swaps (identified by a
// provider ID) consult the bridge status endpoint; same-chain swaps read the
// receipt.
func (p *Provider) CheckStatus(ctx context.Context, txHash, externalID string) (string, error) {
	if externalID != "" {
		status, err := p.client.CrossChainStatus(ctx, txHash)
		if err != nil {
			return "", err
		}
		switch strings.ToUpper(status) {
		case "SUCCESS", "COMPLETED", "DONE":
			return "completed", nil
		case "FAILED", "REFUNDED":
			return "failed", nil
		default:
			return "pending", nil
		}
	}

	// Same-chain status comes straight from the receipt. Receipts for
	// unmined transactions are reported as not found, which maps to pending.
	for _, rpc := range p.rpc {
		receipt, err := rpc.TransactionReceipt(ctx, common.HexToHash(txHash))
		if err != nil {
			continue
		}
		if receipt.Status == 1 {
			return "completed", nil
		}
		return "failed", nil
	}
	return "pending", nil
}

// tradeID pulls the trade identifier from the payload, checking the same
// nesting levels as the field normalizer.
func tradeID(raw map[string]any) string {
	for _, c := range []any{raw, raw["trade"], raw["crossChain"]} {
		m, ok := c.(map[string]any)
		if !ok {
			continue
		}
		for _, k := range []string{"id", "tradeId", "quoteId"} {
			if v, ok := m[k].(string); ok && v != "" {
				return v
			}
		}
	}
	return ""
}
