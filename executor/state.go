package executor

// State is the execution sequencer's position in the swap lifecycle.
type State uint8

const (
	// StateIdle means no submission is in flight; the only state from
	// which a new submission is accepted.
	StateIdle State = iota

	// StateChainCheck verifies the source network's RPC client reports
	// the chain ID the registry expects.
	StateChainCheck

	// StateBalanceCheck verifies the wallet holds the input amount.
	StateBalanceCheck

	// StateApproving submits the allowance grant and waits for its
	// receipt. Entered only when the quote engine resolved the approval
	// requirement to true.
	StateApproving

	// StateSwapping submits the swap transaction.
	StateSwapping

	// StateSucceeded is terminal for a submission: a tx hash exists and
	// the record was persisted. The sequencer returns to idle readiness.
	StateSucceeded

	// StateFailed is terminal for a submission: a guard failed or a
	// submission threw. The sequencer returns to idle readiness.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateChainCheck:
		return "ChainCheck"
	case StateBalanceCheck:
		return "BalanceCheck"
	case StateApproving:
		return "Approving"
	case StateSwapping:
		return "Swapping"
	case StateSucceeded:
		return "Succeeded"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Terminal reports whether the state ends a submission.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}
