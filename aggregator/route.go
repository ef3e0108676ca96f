package aggregator

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/openbridge/swapd/balances"
	"github.com/openbridge/swapd/swap"
	"github.com/openbridge/swapd/wallet"
)

// route is one normalized aggregator trade bound to the signer and RPC it
// will execute against.
type route struct {
	provider *Provider
	fields   swap.TradeFields
	kind     swap.Kind
	tradeID  string

	from   swap.Asset
	to     swap.Asset
	amount *big.Int

	rpc     *ethclient.Client
	chainID *big.Int
	signer  *wallet.Signer
}

func (r *route) Provider() string {
	if r.fields.ProviderTag != "" {
		return r.fields.ProviderTag
	}
	return r.provider.Name()
}

func (r *route) Kind() swap.Kind {
	return r.kind
}

func (r *route) Output() *big.Int {
	return r.fields.OutputAmount
}

// NeedsApproval prefers the payload's own signal; otherwise it probes the
// current allowance on chain. With neither a signal nor a spender to probe it
// reports ErrApprovalUnknown and leaves the decision to the caller.
func (r *route) NeedsApproval(ctx context.Context) (bool, error) {
	if r.from.IsNative() {
		return false, nil
	}
	if r.fields.ApprovalRequired != nil {
		return *r.fields.ApprovalRequired, nil
	}
	if !r.fields.HasSpender {
		return false, swap.ErrApprovalUnknown
	}

	allowance, err := balances.Allowance(ctx, r.rpc, r.from.Address, r.signer.Address(), r.fields.Spender)
	if err != nil {
		return false, fmt.Errorf("probing allowance: %w", err)
	}
	return allowance.Cmp(r.amount) < 0, nil
}

func (r *route) Spender() (common.Address, bool) {
	return r.fields.Spender, r.fields.HasSpender
}

func (r *route) Approve(ctx context.Context) (string, error) {
	if r.from.IsNative() {
		return "", fmt.Errorf("approve on native asset %s", r.from)
	}
	if !r.fields.HasSpender {
		return "", swap.ErrApprovalUnsupported
	}
	return r.signer.Approve(ctx, r.rpc, r.chainID, r.from.Address, r.fields.Spender)
}

func (r *route) Swap(ctx context.Context) (swap.ExecuteResult, error) {
	tx := r.fields.Tx
	if tx == nil {
		built, err := r.provider.buildTx(ctx, r)
		if err != nil {
			return swap.ExecuteResult{}, err
		}
		tx = built
	}

	hash, err := r.signer.Call(ctx, r.rpc, r.chainID, tx.To, tx.Value, tx.Data)
	if err != nil {
		return swap.ExecuteResult{}, fmt.Errorf("submitting swap: %w", err)
	}

	result := swap.ExecuteResult{TxHash: hash}
	if r.kind == swap.KindCrossChain {
		result.ExternalID = r.tradeID
	}
	return result, nil
}

// buildTx fetches and decodes a prepared swap transaction for the route.
func (p *Provider) buildTx(ctx context.Context, r *route) (*swap.TxRequest, error) {
	if r.tradeID == "" {
		return nil, fmt.Errorf("trade has no transaction and no ID to build one")
	}

	resp, err := p.client.BuildSwap(ctx, r.tradeID, r.signer.Address().Hex())
	if err != nil {
		return nil, err
	}

	to, err := swap.ParseAddress(resp.Transaction.To)
	if err != nil {
		return nil, fmt.Errorf("built tx target: %w", err)
	}

	data, err := hexutil.Decode(resp.Transaction.Data)
	if err != nil {
		return nil, fmt.Errorf("built tx data: %w", err)
	}

	value := big.NewInt(0)
	if v := strings.TrimSpace(resp.Transaction.Value); v != "" {
		parsed, ok := new(big.Int).SetString(v, 10)
		if !ok {
			return nil, fmt.Errorf("built tx value %q", v)
		}
		value = parsed
	}

	return &swap.TxRequest{To: to, Data: data, Value: value}, nil
}
