// Package quote implements the debounced quote engine: it turns a stream of
// input changes into ranked candidate routes, a selected best route, and the
// approval requirement for that route.
package quote

import (
	"context"
	"errors"
	"log"
	"math/big"
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/openbridge/swapd/classify"
	"github.com/openbridge/swapd/swap"
)

const (
	// DebounceDelay is how long input must stay unchanged before a quote
	// request is issued.
	DebounceDelay = 500 * time.Millisecond

	fetchTimeout         = 30 * time.Second
	approvalProbeTimeout = 10 * time.Second
)

// Inputs is the full input set that triggers quoting. Any change resets the
// engine state and restarts the debounce window.
type Inputs struct {
	From   swap.Asset
	To     swap.Asset
	Amount string // raw user input, sanitized before use
}

// Approval describes whether the selected best route needs an allowance grant.
type Approval struct {
	Required   bool
	Spender    common.Address
	HasSpender bool
}

// State is the engine's published output. Best is nil or a member of Routes.
type State struct {
	Routes            []swap.Route
	Providers         []string // deduplicated provider tags, ranking order
	Best              swap.Route
	SelectedProvider  string
	OutputDisplay     string
	Approval          Approval
	Err               *classify.Outcome
	InsufficientFunds bool
	NoRoutes          bool
}

// Engine debounces input changes and keeps exactly one quote request's result
// live: a generation counter guards against both rapid re-triggers and slow
// in-flight responses resolving after newer inputs arrived.
type Engine struct {
	providers []swap.Provider
	recipient common.Address
	delay     time.Duration

	mu       sync.Mutex
	gen      uint64
	timer    *time.Timer
	inputs   Inputs
	state    State
	approved map[string]bool // session record of prior approvals, by asset key

	onUpdate func(State)
}

// New creates an engine over the given providers. recipient is the wallet
// that will receive swap output.
func New(providers []swap.Provider, recipient common.Address) *Engine {
	return &Engine{
		providers: providers,
		recipient: recipient,
		delay:     DebounceDelay,
		approved:  make(map[string]bool),
	}
}

// SetDebounce overrides the debounce window (tests use a short one).
func (e *Engine) SetDebounce(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.delay = d
}

// OnUpdate registers a callback invoked with a state snapshot after every
// engine update.
func (e *Engine) OnUpdate(fn func(State)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onUpdate = fn
}

// SetInputs registers an input change. State resets to empty immediately; the
// quote request fires after the debounce window unless superseded first.
func (e *Engine) SetInputs(in Inputs) {
	e.mu.Lock()

	e.gen++
	gen := e.gen
	e.inputs = in
	e.state = State{}
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}

	amount, ok := swap.ParseUnits(in.Amount, in.From.Decimals)
	skip := len(e.providers) == 0 || !ok || amount.Sign() <= 0
	if !skip {
		e.timer = time.AfterFunc(e.delay, func() {
			e.fetch(gen, in, amount)
		})
	}

	fn := e.onUpdate
	snapshot := e.snapshotLocked()
	e.mu.Unlock()

	if fn != nil {
		fn(snapshot)
	}
}

// State returns a snapshot of the current engine state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Inputs returns the inputs the current state was produced for.
func (e *Engine) Inputs() Inputs {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.inputs
}

// snapshotLocked copies state so callers cannot mutate the route slice.
func (e *Engine) snapshotLocked() State {
	s := e.state
	s.Routes = append([]swap.Route(nil), e.state.Routes...)
	s.Providers = append([]string(nil), e.state.Providers...)
	return s
}

// SelectProvider overrides the default best route with the first candidate
// whose provider tag matches. Unknown tags leave the selection unchanged.
// The approval probe for the new selection runs outside the lock; its result
// is dropped if the inputs changed meanwhile.
func (e *Engine) SelectProvider(tag string) {
	e.mu.Lock()
	gen := e.gen
	from := e.inputs.From
	toDecimals := e.inputs.To.Decimals
	var selected swap.Route
	for _, r := range e.state.Routes {
		if r.Provider() == tag {
			selected = r
			break
		}
	}
	if selected == nil {
		fn := e.onUpdate
		snapshot := e.snapshotLocked()
		e.mu.Unlock()
		if fn != nil {
			fn(snapshot)
		}
		return
	}
	e.mu.Unlock()

	approval, unknown := probeApproval(from, selected)

	e.mu.Lock()
	if gen != e.gen {
		e.mu.Unlock()
		return
	}
	if unknown {
		approval.Required = !e.approved[from.String()]
	}
	e.state.Best = selected
	e.state.SelectedProvider = tag
	e.state.OutputDisplay = swap.FormatUnits(selected.Output(), toDecimals)
	e.state.Approval = approval
	fn := e.onUpdate
	snapshot := e.snapshotLocked()
	e.mu.Unlock()

	if fn != nil {
		fn(snapshot)
	}
}

// MarkApproved records that the asset's spender allowance was granted this
// session; the approval heuristic consults this for routes that carry no
// explicit signal.
func (e *Engine) MarkApproved(asset swap.Asset) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.approved[asset.String()] = true
}

// fetch issues the quote request for generation gen and applies the result
// only when gen is still current at resolution time.
func (e *Engine) fetch(gen uint64, in Inputs, amount *big.Int) {
	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	var routes []swap.Route
	var firstErr error

	for _, p := range e.providers {
		got, err := p.Quote(ctx, in.From, in.To, amount, e.recipient)
		if err != nil {
			log.Printf("Quote: provider %s error: %v", p.Name(), err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		routes = append(routes, got...)
	}

	Rank(routes)

	// The approval probe is a network round trip; run it before taking
	// the lock so input changes and state reads never wait on it.
	var approval Approval
	var unknown bool
	var best swap.Route
	if len(routes) > 0 {
		best = routes[0]
		approval, unknown = probeApproval(in.From, best)
	}

	e.mu.Lock()
	if gen != e.gen {
		// Superseded while in flight; drop the response.
		e.mu.Unlock()
		return
	}

	switch {
	case len(routes) == 0 && firstErr != nil:
		out := classify.Classify(firstErr)
		e.state = State{Err: &out, InsufficientFunds: out.Category == classify.InsufficientFunds}
	case len(routes) == 0:
		e.state = State{NoRoutes: true, Err: &classify.Outcome{
			Category: classify.NoRouteFound,
			Title:    "No routes found",
			Message:  "No routes found for this trade",
		}}
	default:
		if unknown {
			// No signal from the aggregator: assume an ERC-20
			// without a recorded prior approval needs one.
			approval.Required = !e.approved[in.From.String()]
		}
		e.state = State{
			Routes:        routes,
			Providers:     providerTags(routes),
			Best:          best,
			OutputDisplay: swap.FormatUnits(best.Output(), in.To.Decimals),
			Approval:      approval,
		}
	}

	fn := e.onUpdate
	snapshot := e.snapshotLocked()
	e.mu.Unlock()

	if fn != nil {
		fn(snapshot)
	}
}

// probeApproval determines the approval requirement for a route without
// holding the engine lock. The native sentinel forces false regardless of
// what the route says. The second return is true when the route carried no
// signal at all; the caller then applies the session heuristic under the
// lock.
func probeApproval(from swap.Asset, r swap.Route) (Approval, bool) {
	var a Approval
	a.Spender, a.HasSpender = r.Spender()

	if from.IsNative() {
		return a, false
	}

	ctx, cancel := context.WithTimeout(context.Background(), approvalProbeTimeout)
	defer cancel()

	required, err := r.NeedsApproval(ctx)
	switch {
	case err == nil:
		a.Required = required
	case errors.Is(err, swap.ErrApprovalUnknown):
		return a, true
	default:
		// A failing probe means approval must be assumed.
		a.Required = true
	}
	return a, false
}

// Rank orders routes by output amount descending. The sort is stable so ties
// keep the aggregator's response order; unparseable outputs are zero and land
// last.
func Rank(routes []swap.Route) {
	sort.SliceStable(routes, func(i, j int) bool {
		return routes[i].Output().Cmp(routes[j].Output()) > 0
	})
}

func providerTags(routes []swap.Route) []string {
	seen := make(map[string]bool)
	var tags []string
	for _, r := range routes {
		tag := r.Provider()
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	return tags
}
