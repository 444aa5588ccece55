package domain

import "github.com/ethereum/go-ethereum/common"

// Event is a notification emitted by the state machine for display
// consumers (progress tracker, TUI). Events never influence
// transitions.
type Event interface {
	isEvent()
}

// PhaseChanged fires on every state transition.
type PhaseChanged struct {
	From string
	To   string
}

func (PhaseChanged) isEvent() {}

// TokensCompleted fires when ledger entries flip to true.
type TokensCompleted struct {
	Tokens    []common.Address
	Completed int
	Involved  int
}

func (TokensCompleted) isEvent() {}

// DepositCompleted fires exactly once, when the mint confirms.
type DepositCompleted struct {
	TxHash common.Hash
}

func (DepositCompleted) isEvent() {}

// StepFailed fires when a transition surfaces an error.
type StepFailed struct {
	Phase string
	Err   error
}

func (StepFailed) isEvent() {}
