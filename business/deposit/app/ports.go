// Package app contains application services and port definitions for the deposit context.
package app

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/fd1az/lp-deposit/business/deposit/domain"
	"github.com/fd1az/lp-deposit/internal/asset"
)

// TransactionPreparer answers "what must happen next" for an intent.
// It must be re-callable with the same intent and return a consistent
// answer modulo on-chain state changes. justApproved names the token
// whose approval just landed, nil on the first call.
type TransactionPreparer interface {
	Prepare(ctx context.Context, intent *domain.DepositIntent, justApproved *asset.Asset) (domain.PreparedStep, error)

	// BuildPermitSubmission turns a signed permit step into the
	// transaction that redeems it on-chain.
	BuildPermitSubmission(ctx context.Context, step domain.NeedsPermitSignature, signature []byte) (domain.RawTransaction, error)
}

// WalletSigner is the injected signing/sending capability. Every method
// may be declined by the user (WALLET_REJECTED) or fail at chain level.
type WalletSigner interface {
	Approve(ctx context.Context, token *asset.Asset, spender common.Address, amount asset.Amount) (common.Hash, error)
	SignTypedData(ctx context.Context, typedData apitypes.TypedData) ([]byte, error)
	SendRawTransaction(ctx context.Context, tx domain.RawTransaction) (common.Hash, error)

	// WaitForReceipt blocks until the transaction confirms. A mined but
	// reverted transaction is TRANSACTION_REVERTED.
	WaitForReceipt(ctx context.Context, txHash common.Hash) error
}

// EventSink receives machine events. Implementations must not block.
type EventSink func(domain.Event)
