// Package executor runs the submission half of the swap lifecycle: chain
// check, balance check, approval, swap, and terminal record keeping.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sethvargo/go-retry"

	"github.com/openbridge/swapd/balances"
	"github.com/openbridge/swapd/chains"
	"github.com/openbridge/swapd/classify"
	"github.com/openbridge/swapd/config"
	"github.com/openbridge/swapd/db"
	"github.com/openbridge/swapd/quote"
	"github.com/openbridge/swapd/swap"
	"github.com/openbridge/swapd/wallet"
)

// receiptPollInterval seeds the backoff for approval receipt polling.
const receiptPollInterval = time.Second

// receiptPollRetries bounds how long an approval receipt is awaited.
const receiptPollRetries = 30

// Notifier receives terminal swap outcomes. Implementations must not block.
type Notifier interface {
	SwapSucceeded(rec db.Swap)
	SwapFailed(rec db.Swap, reason string)
}

// BalanceFunc matches balances.Balance; swapped out in tests.
type BalanceFunc func(ctx context.Context, rpc *ethclient.Client, asset swap.Asset, holder common.Address) (*big.Int, error)

// ChainIDFunc reports the chain ID an RPC client is actually serving;
// swapped out in tests.
type ChainIDFunc func(ctx context.Context, rpc *ethclient.Client) (*big.Int, error)

// Progress is one state-machine transition published to subscribers.
type Progress struct {
	State   State             `json:"state"`
	TxHash  string            `json:"tx_hash,omitempty"`
	Outcome *classify.Outcome `json:"outcome,omitempty"`
	Record  *db.Swap          `json:"record,omitempty"`
}

// Submission is one user-initiated swap: the route the engine selected plus
// the inputs that produced it.
type Submission struct {
	Route    swap.Route
	Provider swap.Provider // generic fallback execution path
	From     swap.Asset
	To       swap.Asset
	Amount   string // raw user input
	Approval quote.Approval
}

// Executor sequences swap submissions. One submission runs at a time; a
// second Submit while non-idle is silently dropped.
type Executor struct {
	cfg        *config.Config
	rpcClients map[string]*ethclient.Client
	signer     *wallet.Signer
	store      *db.Store
	engine     *quote.Engine
	notifier   Notifier
	publish    func(Progress)
	balanceOf  BalanceFunc
	chainIDOf  ChainIDFunc

	busy chan struct{} // holds one token; taken for the duration of a submission
}

// New creates an executor. notifier and publish may be nil.
func New(cfg *config.Config, rpcClients map[string]*ethclient.Client, signer *wallet.Signer, store *db.Store, engine *quote.Engine, notifier Notifier, publish func(Progress)) *Executor {
	busy := make(chan struct{}, 1)
	busy <- struct{}{}
	return &Executor{
		cfg:        cfg,
		rpcClients: rpcClients,
		signer:     signer,
		store:      store,
		engine:     engine,
		notifier:   notifier,
		publish:    publish,
		balanceOf:  balances.Balance,
		chainIDOf: func(ctx context.Context, rpc *ethclient.Client) (*big.Int, error) {
			return rpc.ChainID(ctx)
		},
		busy: busy,
	}
}

// Submit runs one submission to a terminal state. The second return value is
// false when the submission was dropped: no route, or another submission is
// already in flight.
func (x *Executor) Submit(ctx context.Context, sub Submission) (Progress, bool) {
	if sub.Route == nil {
		return Progress{}, false
	}

	select {
	case <-x.busy:
	default:
		// Already mid-sequence; drop without feedback.
		return Progress{}, false
	}
	defer func() { x.busy <- struct{}{} }()

	return x.run(ctx, sub), true
}

func (x *Executor) run(ctx context.Context, sub Submission) Progress {
	// ChainCheck
	x.transition(Progress{State: StateChainCheck})

	network, err := chains.Get(sub.From.Network)
	if err != nil {
		return x.fail(ctx, sub, "", failedSwitch(sub.From.Network))
	}
	rpc, ok := x.rpcClients[network.Code]
	if !ok {
		return x.fail(ctx, sub, "", failedSwitch(sub.From.Network))
	}
	liveID, err := x.chainIDOf(ctx, rpc)
	if err != nil || liveID.Cmp(network.ChainID) != 0 {
		return x.fail(ctx, sub, "", failedSwitch(sub.From.Network))
	}

	// BalanceCheck
	x.transition(Progress{State: StateBalanceCheck})

	amount, ok := swap.ParseUnits(sub.Amount, sub.From.Decimals)
	if !ok || amount.Sign() <= 0 {
		return x.fail(ctx, sub, "", insufficientFunds(sub.From.Symbol))
	}
	bal, err := x.balanceOf(ctx, rpc, sub.From, x.signer.Address())
	if err != nil {
		// A failing balance probe is treated as missing funds, not as a
		// generic error; approval and swap are never attempted.
		return x.fail(ctx, sub, "", insufficientFunds(sub.From.Symbol))
	}
	if bal.Cmp(amount) < 0 {
		return x.fail(ctx, sub, "", insufficientFunds(sub.From.Symbol))
	}

	// Approving
	if sub.Approval.Required {
		x.transition(Progress{State: StateApproving})

		hash, err := x.approve(ctx, rpc, network.ChainID, sub)
		if err != nil {
			out := classify.ClassifyApproval(err)
			return x.fail(ctx, sub, "", &out)
		}
		if hash != "" {
			if err := x.waitReceipt(ctx, rpc, hash); err != nil {
				out := classify.ClassifyApproval(err)
				return x.fail(ctx, sub, "", &out)
			}
			x.engine.MarkApproved(sub.From)
		}
	}

	// Swapping
	x.transition(Progress{State: StateSwapping})

	result, err := sub.Route.Swap(ctx)
	if err != nil && sub.Provider != nil {
		// Exactly one fallback attempt through the provider's generic
		// execution path.
		log.Printf("Executor: route swap failed (%v), trying generic execution", err)
		result, err = sub.Provider.Execute(ctx, sub.Route)
	}
	if err != nil {
		out := classify.Classify(err)
		return x.fail(ctx, sub, result.TxHash, &out)
	}
	if result.TxHash == "" {
		out := classify.Classify(errors.New("swap returned no transaction hash"))
		return x.fail(ctx, sub, "", &out)
	}

	// Succeeded
	rec := x.record(ctx, sub, result, terminalStatus(sub.Route.Kind()))
	prog := Progress{State: StateSucceeded, TxHash: result.TxHash, Record: rec}
	x.transition(prog)

	if x.notifier != nil && rec != nil {
		x.notifier.SwapSucceeded(*rec)
	}
	return prog
}

// approve runs the allowance grant: the route's own path first, then a manual
// max-allowance ERC-20 approve against the resolved spender. With no spender
// available the sequence proceeds with a warning only; the aggregator may
// approve internally during the swap.
func (x *Executor) approve(ctx context.Context, rpc *ethclient.Client, chainID *big.Int, sub Submission) (string, error) {
	hash, err := sub.Route.Approve(ctx)
	if err == nil {
		return hash, nil
	}
	if !errors.Is(err, swap.ErrApprovalUnsupported) {
		return "", err
	}

	if !sub.Approval.HasSpender {
		log.Printf("Executor: no approval path for %s, proceeding without explicit approval", sub.From)
		return "", nil
	}
	return x.signer.Approve(ctx, rpc, chainID, sub.From.Address, sub.Approval.Spender)
}

// waitReceipt polls for the approval receipt with bounded fibonacci backoff
// instead of a fixed settle sleep. A reverted approval fails the sequence.
func (x *Executor) waitReceipt(ctx context.Context, rpc *ethclient.Client, txHash string) error {
	hash := common.HexToHash(txHash)

	backoff := retry.WithMaxRetries(receiptPollRetries, retry.NewFibonacci(receiptPollInterval))
	var receipt *types.Receipt
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		r, err := rpc.TransactionReceipt(ctx, hash)
		if err != nil {
			return retry.RetryableError(err)
		}
		receipt = r
		return nil
	})
	if err != nil {
		return fmt.Errorf("waiting for approval %s: %w", txHash, err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("approval transaction %s reverted", txHash)
	}
	return nil
}

func (x *Executor) fail(ctx context.Context, sub Submission, txHash string, out *classify.Outcome) Progress {
	var rec *db.Swap
	if txHash != "" {
		// Submitted but later found failed: the record still belongs in
		// history.
		rec = x.record(ctx, sub, swap.ExecuteResult{TxHash: txHash}, "failed")
	}

	prog := Progress{State: StateFailed, TxHash: txHash, Outcome: out, Record: rec}
	x.transition(prog)

	if x.notifier != nil && rec != nil {
		x.notifier.SwapFailed(*rec, out.Message)
	}
	return prog
}

// record persists the history row. History writes are fire-and-forget
// relative to the state machine: a failed write never alters the outcome.
func (x *Executor) record(ctx context.Context, sub Submission, result swap.ExecuteResult, status string) *db.Swap {
	if x.store == nil {
		return nil
	}

	rec, err := x.store.RecordSwap(ctx, db.InsertSwapParams{
		Wallet:      strings.ToLower(x.signer.Address().Hex()),
		TxHash:      result.TxHash,
		ExternalID:  result.ExternalID,
		FromNetwork: sub.From.Network,
		ToNetwork:   sub.To.Network,
		FromSymbol:  sub.From.Symbol,
		FromAddress: sub.From.Address.Hex(),
		ToSymbol:    sub.To.Symbol,
		ToAddress:   sub.To.Address.Hex(),
		Amount:      swap.SanitizeAmount(sub.Amount),
		Kind:        string(sub.Route.Kind()),
		Provider:    sub.Route.Provider(),
		Status:      status,
		ExplorerURL: x.cfg.ExplorerTxURL(sub.From.Network, result.TxHash),
	})
	if err != nil {
		log.Printf("Executor: error recording swap: %v", err)
		return nil
	}
	return &rec
}

func (x *Executor) transition(p Progress) {
	log.Printf("Executor: state %s", p.State)
	if x.publish != nil {
		x.publish(p)
	}
}

// terminalStatus maps the route kind to the initial record status: on-chain
// submissions are final once mined, cross-chain ones stay pending until the
// tracker sees the bridge complete.
func terminalStatus(kind swap.Kind) string {
	if kind == swap.KindCrossChain {
		return "pending"
	}
	return "success"
}

func failedSwitch(network string) *classify.Outcome {
	return &classify.Outcome{
		Category: classify.NetworkError,
		Title:    "Network switch failed",
		Message:  fmt.Sprintf("Failed to switch network to %s", network),
	}
}

func insufficientFunds(symbol string) *classify.Outcome {
	return &classify.Outcome{
		Category: classify.InsufficientFunds,
		Title:    "Insufficient funds",
		Message:  fmt.Sprintf("Insufficient %s balance for this swap", symbol),
	}
}
