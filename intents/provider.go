package intents

import (
	"context"
	"fmt"
	"log"
	"math/big"
	"net/http"
	"time"

	oneclick "github.com/defuse-protocol/one-click-sdk-go"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/openbridge/swapd/chains"
	"github.com/openbridge/swapd/swap"
	"github.com/openbridge/swapd/wallet"
)

const quoteDeadline = 60 * time.Minute

// slippage tolerance in basis points (1%)
const slippageBps = 100

type Provider struct {
	client *Client
	signer *wallet.Signer
	rpc    map[string]*ethclient.Client
}

// NewProvider creates the intents provider. httpClient may carry the API
// request logger.
func NewProvider(apiKey string, signer *wallet.Signer, rpc map[string]*ethclient.Client, httpClient *http.Client) *Provider {
	return &Provider{
		client: NewClient(apiKey, httpClient),
		signer: signer,
		rpc:    rpc,
	}
}

func (p *Provider) Name() string {
	return "intents"
}

// Quote requests a deposit-address quote for the pair. Pairs outside the
// token ID registry produce no routes rather than an error, so other
// providers can still serve them.
func (p *Provider) Quote(ctx context.Context, from, to swap.Asset, amount *big.Int, recipient common.Address) ([]swap.Route, error) {
	if from.Network == to.Network {
		return nil, nil
	}

	originID, ok := TokenID(from)
	if !ok {
		return nil, nil
	}
	destID, ok := TokenID(to)
	if !ok {
		return nil, nil
	}

	rpc, ok := p.rpc[from.Network]
	if !ok {
		return nil, fmt.Errorf("no RPC client for network %s", from.Network)
	}
	chainID, err := chains.ChainID(from.Network)
	if err != nil {
		return nil, err
	}

	deadline := time.Now().Add(quoteDeadline)
	req := *oneclick.NewQuoteRequest(
		false,               // dry
		"EXACT_INPUT",       // swapType
		slippageBps,         // slippageTolerance
		originID,            // originAsset
		"ORIGIN_CHAIN",      // depositType
		destID,              // destinationAsset
		amount.String(),     // amount
		p.signer.Address().Hex(), // refundTo
		"ORIGIN_CHAIN",      // refundType
		recipient.Hex(),     // recipient
		"DESTINATION_CHAIN", // recipientType
		deadline,            // deadline
	)
	depositMode := "SIMPLE"
	req.DepositMode = &depositMode

	resp, err := p.client.GetQuote(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("intents quote for %s -> %s: %w", from, to, err)
	}

	depositAddr := resp.Quote.GetDepositAddress()
	if depositAddr == "" {
		return nil, fmt.Errorf("intents: no deposit address returned for %s -> %s", from, to)
	}

	output, ok := new(big.Int).SetString(resp.Quote.GetAmountOut(), 10)
	if !ok {
		output = swap.ParseDecimal(resp.Quote.GetAmountOutFormatted(), to.Decimals)
	}

	return []swap.Route{&route{
		provider:      p,
		from:          from,
		to:            to,
		amount:        amount,
		output:        output,
		depositAddr:   common.HexToAddress(depositAddr),
		correlationID: resp.GetCorrelationId(),
		rpc:           rpc,
		chainID:       chainID,
	}}, nil
}

// Execute resubmits the deposit transfer for the route.
func (p *Provider) Execute(ctx context.Context, r swap.Route) (swap.ExecuteResult, error) {
	ir, ok := r.(*route)
	if !ok {
		return swap.ExecuteResult{}, fmt.Errorf("route not issued by this provider")
	}
	return ir.Swap(ctx)
}

// CheckStatus polls the 1click execution status by deposit address.
func (p *Provider) CheckStatus(ctx context.Context, txHash, externalID string) (string, error) {
	if externalID == "" {
		return "pending", nil
	}

	resp, err := p.client.GetExecutionStatus(ctx, externalID)
	if err != nil {
		return "", fmt.Errorf("intents status: %w", err)
	}

	switch string(resp.GetStatus()) {
	case "SUCCESS":
		return "completed", nil
	case "FAILED", "REFUNDED":
		return "failed", nil
	default:
		// PENDING_DEPOSIT, INCOMPLETE_DEPOSIT, PROCESSING, KNOWN_DEPOSIT_TX
		return "pending", nil
	}
}

// submitDepositTx is best-effort: polling by deposit address works without it.
func (p *Provider) submitDepositTx(ctx context.Context, txHash string, depositAddr common.Address) {
	if err := p.client.SubmitDepositTx(ctx, txHash, depositAddr.Hex()); err != nil {
		log.Printf("[intents] submit deposit tx (non-fatal): %v", err)
	}
}
