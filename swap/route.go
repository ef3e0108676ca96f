package swap

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Kind distinguishes same-chain from bridging swaps.
type Kind string

const (
	KindOnChain    Kind = "on-chain"
	KindCrossChain Kind = "cross-chain"
)

// ErrApprovalUnsupported is returned by Route.Approve when the route cannot
// grant the allowance itself; the sequencer then falls back to a manual
// ERC-20 approve against the spender.
var ErrApprovalUnsupported = errors.New("route does not support approval")

// ErrApprovalUnknown is returned by Route.NeedsApproval when the aggregator
// payload carried no approval signal at all; the quote engine then applies
// its non-native heuristic.
var ErrApprovalUnknown = errors.New("approval requirement unknown")

// ExecuteResult holds the result of submitting a swap.
type ExecuteResult struct {
	TxHash     string
	ExternalID string // provider-specific ID used for status polling
}

// Route is the canonical view of a single aggregator trade. Providers
// normalize their heterogeneous payloads into this contract at the quote
// boundary so the execution sequencer never probes shapes.
type Route interface {
	// Provider returns the provider tag displayed in the route list.
	Provider() string

	// Kind reports whether the route is same-chain or cross-chain.
	Kind() Kind

	// Output returns the expected destination amount in smallest units.
	// Routes with unparseable outputs return zero and rank last.
	Output() *big.Int

	// NeedsApproval reports whether an allowance grant must precede the
	// swap. ErrApprovalUnknown means the payload had no signal; any other
	// error means the probe itself failed and approval must be assumed.
	NeedsApproval(ctx context.Context) (bool, error)

	// Spender returns the contract to approve, when one could be located.
	Spender() (common.Address, bool)

	// Approve submits the allowance grant and returns its tx hash, or
	// ErrApprovalUnsupported.
	Approve(ctx context.Context) (string, error)

	// Swap submits the swap transaction.
	Swap(ctx context.Context) (ExecuteResult, error)
}

// Provider is the interface swap providers implement.
type Provider interface {
	// Name returns the provider identifier (e.g. "onchain", "intents").
	Name() string

	// Quote returns candidate routes for the given pair and input amount,
	// in the aggregator's response order.
	Quote(ctx context.Context, from, to Asset, amount *big.Int, recipient common.Address) ([]Route, error)

	// Execute is the generic fallback execution path used when a route's
	// own Swap fails: the sequencer attempts it exactly once.
	Execute(ctx context.Context, route Route) (ExecuteResult, error)

	// CheckStatus polls a submitted swap by tx hash / provider ID.
	// Returns "pending", "completed", or "failed".
	CheckStatus(ctx context.Context, txHash, externalID string) (string, error)
}
