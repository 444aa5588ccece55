package domain

import "github.com/ethereum/go-ethereum/common"

// State is the machine's position in the authorization sequence,
// expressed as one tagged value instead of scattered flags: exactly one
// variant is current, and each variant carries the payload its
// transition needs and nothing else.
type State interface {
	isState()
	// Phase returns a stable name for logging and display.
	Phase() string
}

// StateInput: collecting amounts and range; nothing prepared.
type StateInput struct{}

func (StateInput) isState()      {}
func (StateInput) Phase() string { return "input" }

// StateApproving: an ERC20 approval is required before anything else.
type StateApproving struct {
	Step NeedsErc20Approval
}

func (StateApproving) isState()      {}
func (StateApproving) Phase() string { return "approving" }

// StatePermitSigning: an off-chain permit signature is required.
type StatePermitSigning struct {
	Step NeedsPermitSignature
}

func (StatePermitSigning) isState()      {}
func (StatePermitSigning) Phase() string { return "permit_signing" }

// StateMinting: the deposit transaction is prepared and ready to send.
type StateMinting struct {
	Step ReadyToMint
}

func (StateMinting) isState()      {}
func (StateMinting) Phase() string { return "minting" }

// StateDone: the deposit landed on-chain.
type StateDone struct {
	TxHash common.Hash
}

func (StateDone) isState()      {}
func (StateDone) Phase() string { return "done" }
