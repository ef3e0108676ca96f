package executor

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openbridge/swapd/chains"
	"github.com/openbridge/swapd/classify"
	"github.com/openbridge/swapd/config"
	"github.com/openbridge/swapd/quote"
	"github.com/openbridge/swapd/swap"
	"github.com/openbridge/swapd/wallet"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

var (
	ethAsset  = swap.Asset{Network: "ethereum", Symbol: "ETH", Decimals: 18}
	usdcAsset = swap.Asset{
		Network:  "ethereum",
		Address:  common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"),
		Symbol:   "USDC",
		Decimals: 6,
	}
)

// fakeRoute counts calls so tests can assert which lifecycle stages ran.
type fakeRoute struct {
	kind swap.Kind

	mu           sync.Mutex
	approveCalls int
	swapCalls    int

	approveHash string
	approveErr  error
	swapResult  swap.ExecuteResult
	swapErr     error
}

func (r *fakeRoute) Provider() string { return "fake" }
func (r *fakeRoute) Kind() swap.Kind  { return r.kind }
func (r *fakeRoute) Output() *big.Int { return big.NewInt(1) }
func (r *fakeRoute) NeedsApproval(ctx context.Context) (bool, error) {
	return false, nil
}
func (r *fakeRoute) Spender() (common.Address, bool) { return common.Address{}, false }

func (r *fakeRoute) Approve(ctx context.Context) (string, error) {
	r.mu.Lock()
	r.approveCalls++
	r.mu.Unlock()
	return r.approveHash, r.approveErr
}

func (r *fakeRoute) Swap(ctx context.Context) (swap.ExecuteResult, error) {
	r.mu.Lock()
	r.swapCalls++
	r.mu.Unlock()
	return r.swapResult, r.swapErr
}

func (r *fakeRoute) counts() (approves, swaps int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.approveCalls, r.swapCalls
}

// fakeFallback is the provider-level generic execution path.
type fakeFallback struct {
	mu     sync.Mutex
	calls  int
	result swap.ExecuteResult
	err    error
}

func (p *fakeFallback) Name() string { return "fake" }
func (p *fakeFallback) Quote(ctx context.Context, from, to swap.Asset, amount *big.Int, recipient common.Address) ([]swap.Route, error) {
	return nil, errors.New("not used")
}
func (p *fakeFallback) Execute(ctx context.Context, route swap.Route) (swap.ExecuteResult, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	return p.result, p.err
}
func (p *fakeFallback) CheckStatus(ctx context.Context, txHash, externalID string) (string, error) {
	return "pending", nil
}

func (p *fakeFallback) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

type testHarness struct {
	exec     *Executor
	progress []Progress
	mu       sync.Mutex
}

func newHarness(t *testing.T, balance *big.Int) *testHarness {
	t.Helper()

	signer, err := wallet.NewSigner(testMnemonic, 0)
	require.NoError(t, err)

	h := &testHarness{}
	h.exec = New(&config.Config{}, map[string]*ethclient.Client{"ethereum": nil},
		signer, nil, quote.New(nil, signer.Address()), nil, func(p Progress) {
			h.mu.Lock()
			h.progress = append(h.progress, p)
			h.mu.Unlock()
		})

	// Stub out the live RPC probes.
	h.exec.chainIDOf = func(ctx context.Context, rpc *ethclient.Client) (*big.Int, error) {
		return chains.ChainID("ethereum")
	}
	h.exec.balanceOf = func(ctx context.Context, rpc *ethclient.Client, asset swap.Asset, holder common.Address) (*big.Int, error) {
		if balance == nil {
			return nil, errors.New("probe failed")
		}
		return balance, nil
	}
	return h
}

func (h *testHarness) states() []State {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]State, len(h.progress))
	for i, p := range h.progress {
		out[i] = p.State
	}
	return out
}

func submission(route *fakeRoute, provider *fakeFallback) Submission {
	sub := Submission{
		Route:  route,
		From:   ethAsset,
		To:     usdcAsset,
		Amount: "1",
	}
	if provider != nil {
		sub.Provider = provider
	}
	return sub
}

func TestSubmitNilRouteDropped(t *testing.T) {
	h := newHarness(t, big.NewInt(1))
	_, ok := h.exec.Submit(context.Background(), Submission{})
	assert.False(t, ok)
}

func TestSuccessfulOnChainSwap(t *testing.T) {
	route := &fakeRoute{
		kind:       swap.KindOnChain,
		swapResult: swap.ExecuteResult{TxHash: "0xabc"},
	}
	h := newHarness(t, mustWei("10"))

	prog, ok := h.exec.Submit(context.Background(), submission(route, nil))
	require.True(t, ok)
	assert.Equal(t, StateSucceeded, prog.State)
	assert.Equal(t, "0xabc", prog.TxHash)
	assert.Equal(t, []State{StateChainCheck, StateBalanceCheck, StateSwapping, StateSucceeded}, h.states())
}

func TestInsufficientBalanceShortCircuits(t *testing.T) {
	route := &fakeRoute{kind: swap.KindOnChain}
	h := newHarness(t, big.NewInt(0))

	sub := submission(route, nil)
	sub.Approval = quote.Approval{Required: true}

	prog, ok := h.exec.Submit(context.Background(), sub)
	require.True(t, ok)
	assert.Equal(t, StateFailed, prog.State)
	require.NotNil(t, prog.Outcome)
	assert.Equal(t, classify.InsufficientFunds, prog.Outcome.Category)

	// Neither approval nor swap may run after the balance guard trips.
	approves, swaps := route.counts()
	assert.Zero(t, approves)
	assert.Zero(t, swaps)
}

func TestBalanceProbeErrorTreatedAsInsufficient(t *testing.T) {
	route := &fakeRoute{kind: swap.KindOnChain}
	h := newHarness(t, nil) // balanceOf errors

	prog, ok := h.exec.Submit(context.Background(), submission(route, nil))
	require.True(t, ok)
	assert.Equal(t, StateFailed, prog.State)
	assert.Equal(t, classify.InsufficientFunds, prog.Outcome.Category)

	_, swaps := route.counts()
	assert.Zero(t, swaps)
}

func TestUnknownNetworkFailsChainCheck(t *testing.T) {
	route := &fakeRoute{kind: swap.KindOnChain}
	h := newHarness(t, mustWei("10"))

	sub := submission(route, nil)
	sub.From.Network = "dogechain"

	prog, ok := h.exec.Submit(context.Background(), sub)
	require.True(t, ok)
	assert.Equal(t, StateFailed, prog.State)
	assert.Equal(t, classify.NetworkError, prog.Outcome.Category)
}

func TestChainIDMismatchFailsChainCheck(t *testing.T) {
	route := &fakeRoute{kind: swap.KindOnChain}
	h := newHarness(t, mustWei("10"))
	h.exec.chainIDOf = func(ctx context.Context, rpc *ethclient.Client) (*big.Int, error) {
		return big.NewInt(31337), nil
	}

	prog, ok := h.exec.Submit(context.Background(), submission(route, nil))
	require.True(t, ok)
	assert.Equal(t, StateFailed, prog.State)
	assert.Equal(t, classify.NetworkError, prog.Outcome.Category)
}

func TestGenericExecutionFallbackOnce(t *testing.T) {
	route := &fakeRoute{
		kind:    swap.KindOnChain,
		swapErr: errors.New("router call reverted"),
	}
	fallback := &fakeFallback{result: swap.ExecuteResult{TxHash: "0xfeed"}}
	h := newHarness(t, mustWei("10"))

	prog, ok := h.exec.Submit(context.Background(), submission(route, fallback))
	require.True(t, ok)
	assert.Equal(t, StateSucceeded, prog.State)
	assert.Equal(t, "0xfeed", prog.TxHash)
	assert.Equal(t, 1, fallback.callCount())
}

func TestFallbackFailureClassified(t *testing.T) {
	route := &fakeRoute{
		kind:    swap.KindOnChain,
		swapErr: errors.New("insufficient liquidity"),
	}
	fallback := &fakeFallback{err: errors.New("insufficient liquidity")}
	h := newHarness(t, mustWei("10"))

	prog, ok := h.exec.Submit(context.Background(), submission(route, fallback))
	require.True(t, ok)
	assert.Equal(t, StateFailed, prog.State)
	assert.Equal(t, classify.InsufficientLiquidity, prog.Outcome.Category)
	assert.Equal(t, 1, fallback.callCount())
}

func TestEmptyTxHashFails(t *testing.T) {
	route := &fakeRoute{kind: swap.KindOnChain} // swap returns zero result
	h := newHarness(t, mustWei("10"))

	prog, ok := h.exec.Submit(context.Background(), submission(route, nil))
	require.True(t, ok)
	assert.Equal(t, StateFailed, prog.State)
}

func TestReentrancyGuard(t *testing.T) {
	release := make(chan struct{})
	h := newHarness(t, mustWei("10"))
	h.exec.balanceOf = func(ctx context.Context, rpc *ethclient.Client, asset swap.Asset, holder common.Address) (*big.Int, error) {
		<-release
		return mustWei("10"), nil
	}

	route := &fakeRoute{kind: swap.KindOnChain, swapResult: swap.ExecuteResult{TxHash: "0x1"}}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, ok := h.exec.Submit(context.Background(), submission(route, nil))
		assert.True(t, ok)
	}()

	// Wait until the first submission is parked in the balance probe, then
	// confirm a second one is dropped.
	time.Sleep(20 * time.Millisecond)
	_, ok := h.exec.Submit(context.Background(), submission(route, nil))
	assert.False(t, ok)

	close(release)
	wg.Wait()

	// Guard releases after the run: a fresh submission is accepted.
	_, ok = h.exec.Submit(context.Background(), submission(route, nil))
	assert.True(t, ok)
}

func TestApprovalUnsupportedWithoutSpenderProceeds(t *testing.T) {
	route := &fakeRoute{
		kind:       swap.KindOnChain,
		approveErr: swap.ErrApprovalUnsupported,
		swapResult: swap.ExecuteResult{TxHash: "0xabc"},
	}
	h := newHarness(t, mustWei("10"))

	sub := submission(route, nil)
	sub.From = usdcAsset
	sub.To = ethAsset
	sub.Approval = quote.Approval{Required: true} // no spender resolved

	prog, ok := h.exec.Submit(context.Background(), sub)
	require.True(t, ok)
	assert.Equal(t, StateSucceeded, prog.State)

	approves, swaps := route.counts()
	assert.Equal(t, 1, approves)
	assert.Equal(t, 1, swaps)
}

func TestApprovalErrorClassifiedAsApprovalFailure(t *testing.T) {
	route := &fakeRoute{
		kind:       swap.KindOnChain,
		approveErr: errors.New("execution reverted"),
	}
	h := newHarness(t, mustWei("10"))

	sub := submission(route, nil)
	sub.From = usdcAsset
	sub.Approval = quote.Approval{Required: true}

	prog, ok := h.exec.Submit(context.Background(), sub)
	require.True(t, ok)
	assert.Equal(t, StateFailed, prog.State)
	assert.Equal(t, classify.ApprovalFailed, prog.Outcome.Category)

	_, swaps := route.counts()
	assert.Zero(t, swaps)
}

func TestTerminalStatusByKind(t *testing.T) {
	assert.Equal(t, "success", terminalStatus(swap.KindOnChain))
	assert.Equal(t, "pending", terminalStatus(swap.KindCrossChain))
}

func TestStateStringAndTerminal(t *testing.T) {
	assert.Equal(t, "ChainCheck", StateChainCheck.String())
	assert.True(t, StateSucceeded.Terminal())
	assert.True(t, StateFailed.Terminal())
	assert.False(t, StateSwapping.Terminal())
}

func mustWei(eth string) *big.Int {
	v, ok := swap.ParseUnits(eth, 18)
	if !ok {
		panic("bad test amount")
	}
	return v
}
