package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/fd1az/lp-deposit/internal/asset"
)

// PreparedStep is the preparer's answer for a DepositIntent: the one
// side effect that must happen next. It is a sealed union of exactly
// the three variants below, and it is ephemeral: discarded and
// re-fetched after every mutating wallet action, because the required
// next step can change once a prior approval lands on-chain.
type PreparedStep interface {
	isPreparedStep()
	// Kind returns a stable name for logging and display.
	Kind() string
}

// NeedsErc20Approval asks for a plain ERC20 approve before anything
// else can proceed.
type NeedsErc20Approval struct {
	Token   *asset.Asset
	Spender common.Address
	Amount  asset.Amount
}

func (NeedsErc20Approval) isPreparedStep() {}
func (NeedsErc20Approval) Kind() string    { return "needs_erc20_approval" }

// NeedsPermitSignature asks for an off-chain EIP-712 signature over a
// (possibly batched) permit message. The typed data is an opaque
// payload owned by the permit contract's schema; the orchestrator
// passes it through unchanged. CoveredTokens lists every token address
// the batch authorizes; the ledger marks all of them at once.
type NeedsPermitSignature struct {
	TypedData     apitypes.TypedData
	Permit2       common.Address
	CoveredTokens []common.Address
}

func (NeedsPermitSignature) isPreparedStep() {}
func (NeedsPermitSignature) Kind() string    { return "needs_permit_signature" }

// RawTransaction is a prepared transaction ready for the wallet.
type RawTransaction struct {
	To    common.Address
	Data  []byte
	Value *big.Int
}

// ReadyToMint carries the final mint transaction.
type ReadyToMint struct {
	Tx RawTransaction
}

func (ReadyToMint) isPreparedStep() {}
func (ReadyToMint) Kind() string    { return "ready_to_mint" }
