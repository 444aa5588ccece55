package app

import (
	"context"
	"errors"
	"io"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/fd1az/lp-deposit/business/deposit/domain"
	pooldomain "github.com/fd1az/lp-deposit/business/pool/domain"
	"github.com/fd1az/lp-deposit/internal/apperror"
	"github.com/fd1az/lp-deposit/internal/asset"
	"github.com/fd1az/lp-deposit/internal/logger"
)

var (
	tokenA = asset.NewAsset(
		asset.NewTokenAssetID(asset.ChainIDEthereum, common.HexToAddress("0x000000000000000000000000000000000000000A")),
		"AAA", 18, 6)
	tokenB = asset.NewAsset(
		asset.NewTokenAssetID(asset.ChainIDEthereum, common.HexToAddress("0x000000000000000000000000000000000000000B")),
		"BBB", 6, 2)

	spenderAddr = common.HexToAddress("0x000000000022D473030F116dDEE9F6B43aC78BA3")
)

func testIntent(t *testing.T, amount0, amount1 string) *domain.DepositIntent {
	t.Helper()
	a0, err := asset.ParseString(tokenA, amount0)
	if err != nil {
		t.Fatal(err)
	}
	a1, err := asset.ParseString(tokenB, amount1)
	if err != nil {
		t.Fatal(err)
	}
	return &domain.DepositIntent{
		Amount0:         a0,
		Amount1:         a1,
		Range:           pooldomain.TickRange{Lower: -887220, Upper: 887220},
		ActiveInputSide: domain.InputSide0,
	}
}

// scriptedPreparer returns its scripted steps in order, one per
// Prepare call.
type scriptedPreparer struct {
	mu    sync.Mutex
	steps []domain.PreparedStep
	errs  []error
	calls int

	lastJustApproved *asset.Asset
}

func (p *scriptedPreparer) Prepare(_ context.Context, _ *domain.DepositIntent, justApproved *asset.Asset) (domain.PreparedStep, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	i := p.calls
	p.calls++
	p.lastJustApproved = justApproved
	if i < len(p.errs) && p.errs[i] != nil {
		return nil, p.errs[i]
	}
	if i >= len(p.steps) {
		return nil, errors.New("scripted preparer exhausted")
	}
	return p.steps[i], nil
}

func (p *scriptedPreparer) BuildPermitSubmission(_ context.Context, _ domain.NeedsPermitSignature, _ []byte) (domain.RawTransaction, error) {
	return domain.RawTransaction{To: spenderAddr, Data: []byte{0x01}, Value: new(big.Int)}, nil
}

// fakeWallet approves and sends unconditionally; individual calls can
// be overridden per test.
type fakeWallet struct {
	mu        sync.Mutex
	approvals []common.Address

	approveErr error
	sendErr    error
	receiptErr error

	// When set, WaitForReceipt blocks until the channel is closed.
	receiptGate chan struct{}
}

func (w *fakeWallet) Approve(_ context.Context, token *asset.Asset, _ common.Address, _ asset.Amount) (common.Hash, error) {
	if w.approveErr != nil {
		return common.Hash{}, w.approveErr
	}
	w.mu.Lock()
	w.approvals = append(w.approvals, token.Address())
	w.mu.Unlock()
	return common.HexToHash("0x01"), nil
}

func (w *fakeWallet) SignTypedData(_ context.Context, _ apitypes.TypedData) ([]byte, error) {
	return []byte{0xde, 0xad}, nil
}

func (w *fakeWallet) SendRawTransaction(_ context.Context, _ domain.RawTransaction) (common.Hash, error) {
	if w.sendErr != nil {
		return common.Hash{}, w.sendErr
	}
	return common.HexToHash("0x02"), nil
}

func (w *fakeWallet) WaitForReceipt(_ context.Context, _ common.Hash) error {
	if w.receiptGate != nil {
		<-w.receiptGate
	}
	return w.receiptErr
}

func testLogger() logger.LoggerInterface {
	return logger.New(io.Discard, logger.LevelError, "test", nil)
}

func approvalStep(token *asset.Asset, amount string) domain.NeedsErc20Approval {
	amt, _ := asset.ParseString(token, amount)
	return domain.NeedsErc20Approval{Token: token, Spender: spenderAddr, Amount: amt}
}

func mintStep() domain.ReadyToMint {
	return domain.ReadyToMint{Tx: domain.RawTransaction{
		To:    common.HexToAddress("0xC36442b4a4522E871399CD717aBDD847Ab11FE88"),
		Data:  []byte{0x88},
		Value: new(big.Int),
	}}
}

func TestMachine_Determinism(t *testing.T) {
	// Scripted sequence approval(A), approval(B), mint must end in done
	// with both ledger entries true.
	prep := &scriptedPreparer{steps: []domain.PreparedStep{
		approvalStep(tokenA, "100"),
		approvalStep(tokenB, "250"),
		mintStep(),
	}}
	wallet := &fakeWallet{}
	m := NewMachine(prep, wallet, testLogger(), nil)
	ctx := context.Background()

	if err := m.Commit(ctx, testIntent(t, "100", "250")); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if _, ok := m.State().(domain.StateApproving); !ok {
		t.Fatalf("state after commit = %s, want approving", m.State().Phase())
	}

	if err := m.ConfirmApproval(ctx); err != nil {
		t.Fatalf("first approval: %v", err)
	}
	if prep.lastJustApproved == nil || !prep.lastJustApproved.Equals(tokenA) {
		t.Error("re-prepare after first approval did not flag token A")
	}
	if _, ok := m.State().(domain.StateApproving); !ok {
		t.Fatalf("state after first approval = %s, want approving", m.State().Phase())
	}

	if err := m.ConfirmApproval(ctx); err != nil {
		t.Fatalf("second approval: %v", err)
	}
	if _, ok := m.State().(domain.StateMinting); !ok {
		t.Fatalf("state after second approval = %s, want minting", m.State().Phase())
	}

	if err := m.Execute(ctx); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if _, ok := m.State().(domain.StateDone); !ok {
		t.Fatalf("final state = %s, want done", m.State().Phase())
	}

	completed, involved := m.Progress()
	if completed != 2 || involved != 2 {
		t.Errorf("progress = %d/%d, want 2/2", completed, involved)
	}
}

func TestMachine_FullRangeOneSided(t *testing.T) {
	// token1 amount is zero: only token0 needs authorization.
	prep := &scriptedPreparer{steps: []domain.PreparedStep{
		approvalStep(tokenA, "100"),
		mintStep(),
	}}
	m := NewMachine(prep, &fakeWallet{}, testLogger(), nil)
	ctx := context.Background()

	if err := m.Commit(ctx, testIntent(t, "100", "0")); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := m.ConfirmApproval(ctx); err != nil {
		t.Fatalf("approval: %v", err)
	}
	if err := m.Execute(ctx); err != nil {
		t.Fatalf("execute: %v", err)
	}

	if _, ok := m.State().(domain.StateDone); !ok {
		t.Fatalf("final state = %s, want done", m.State().Phase())
	}
	snapshot := m.LedgerSnapshot()
	if len(snapshot) != 1 {
		t.Fatalf("ledger has %d entries, want 1 (zero-amount token excluded)", len(snapshot))
	}
	if snapshot[0].Address != tokenA.Address() || !snapshot[0].Complete {
		t.Errorf("ledger entry = %+v, want token A complete", snapshot[0])
	}
}

func TestMachine_PermitBatchMarksAtomically(t *testing.T) {
	permit := domain.NeedsPermitSignature{
		TypedData:     apitypes.TypedData{PrimaryType: "PermitBatch"},
		Permit2:       spenderAddr,
		CoveredTokens: []common.Address{tokenA.Address(), tokenB.Address()},
	}
	prep := &scriptedPreparer{steps: []domain.PreparedStep{permit, mintStep()}}
	m := NewMachine(prep, &fakeWallet{}, testLogger(), nil)
	ctx := context.Background()

	if err := m.Commit(ctx, testIntent(t, "100", "250")); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if _, ok := m.State().(domain.StatePermitSigning); !ok {
		t.Fatalf("state after commit = %s, want permit_signing", m.State().Phase())
	}

	if err := m.SignAndSubmit(ctx); err != nil {
		t.Fatalf("sign and submit: %v", err)
	}

	completed, involved := m.Progress()
	if completed != 2 || involved != 2 {
		t.Errorf("progress after batch = %d/%d, want 2/2", completed, involved)
	}
	if _, ok := m.State().(domain.StateMinting); !ok {
		t.Fatalf("state after permit = %s, want minting", m.State().Phase())
	}
}

func TestMachine_UnexpectedBatchTokenFailsLoudly(t *testing.T) {
	outsider := common.HexToAddress("0x00000000000000000000000000000000000000CC")
	permit := domain.NeedsPermitSignature{
		TypedData:     apitypes.TypedData{PrimaryType: "PermitBatch"},
		Permit2:       spenderAddr,
		CoveredTokens: []common.Address{tokenA.Address(), outsider},
	}
	prep := &scriptedPreparer{steps: []domain.PreparedStep{permit}}
	m := NewMachine(prep, &fakeWallet{}, testLogger(), nil)
	ctx := context.Background()

	if err := m.Commit(ctx, testIntent(t, "100", "250")); err != nil {
		t.Fatalf("commit: %v", err)
	}
	err := m.SignAndSubmit(ctx)
	if !apperror.IsCode(err, apperror.CodeUnexpectedPermitToken) {
		t.Fatalf("error = %v, want UNEXPECTED_PERMIT_TOKEN", err)
	}
	if _, ok := m.State().(domain.StateInput); !ok {
		t.Errorf("state after unexpected batch token = %s, want input", m.State().Phase())
	}
	// The intact member of the batch must not have been marked either.
	if completed, _ := m.Progress(); completed != 0 {
		t.Errorf("completed = %d after rejected batch, want 0", completed)
	}
}

func TestMachine_ResetSafety(t *testing.T) {
	// Reset while an approval awaits its receipt: the stale
	// confirmation must not mutate the ledger or state.
	prep := &scriptedPreparer{steps: []domain.PreparedStep{
		approvalStep(tokenA, "100"),
		mintStep(),
	}}
	gate := make(chan struct{})
	wallet := &fakeWallet{receiptGate: gate}

	var events []domain.Event
	var evMu sync.Mutex
	m := NewMachine(prep, wallet, testLogger(), func(ev domain.Event) {
		evMu.Lock()
		events = append(events, ev)
		evMu.Unlock()
	})
	ctx := context.Background()

	if err := m.Commit(ctx, testIntent(t, "100", "0")); err != nil {
		t.Fatalf("commit: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- m.ConfirmApproval(ctx) }()

	// Give the goroutine time to reach the receipt wait, then abandon
	// the flow.
	time.Sleep(20 * time.Millisecond)
	m.Reset()

	evMu.Lock()
	eventsAtReset := len(events)
	evMu.Unlock()

	// Deliver the zombie confirmation.
	close(gate)
	if err := <-done; err != nil {
		t.Fatalf("abandoned approval returned error: %v", err)
	}

	if _, ok := m.State().(domain.StateInput); !ok {
		t.Errorf("state after zombie confirmation = %s, want input", m.State().Phase())
	}
	if completed, involved := m.Progress(); completed != 0 || involved != 0 {
		t.Errorf("ledger mutated by zombie confirmation: %d/%d", completed, involved)
	}
	evMu.Lock()
	if len(events) != eventsAtReset {
		t.Errorf("zombie confirmation emitted %d extra events", len(events)-eventsAtReset)
	}
	evMu.Unlock()
}

func TestMachine_ResetIdempotent(t *testing.T) {
	m := NewMachine(&scriptedPreparer{}, &fakeWallet{}, testLogger(), nil)
	m.Reset()
	m.Reset()
	if _, ok := m.State().(domain.StateInput); !ok {
		t.Errorf("state = %s, want input", m.State().Phase())
	}
}

func TestMachine_CommitRequiresInput(t *testing.T) {
	prep := &scriptedPreparer{steps: []domain.PreparedStep{approvalStep(tokenA, "100")}}
	m := NewMachine(prep, &fakeWallet{}, testLogger(), nil)
	ctx := context.Background()

	if err := m.Commit(ctx, testIntent(t, "100", "0")); err != nil {
		t.Fatalf("commit: %v", err)
	}

	// Changed intent without reset must be rejected: a stale prepared
	// step must never execute against a changed intent.
	err := m.Commit(ctx, testIntent(t, "500", "0"))
	if !apperror.IsCode(err, apperror.CodeInvalidState) {
		t.Fatalf("error = %v, want INVALID_STATE", err)
	}

	m.Reset()
	prep.mu.Lock()
	prep.calls = 0 // replay script
	prep.mu.Unlock()
	if err := m.Commit(ctx, testIntent(t, "500", "0")); err != nil {
		t.Fatalf("commit after reset: %v", err)
	}
}

func TestMachine_WalletRejectionKeepsState(t *testing.T) {
	prep := &scriptedPreparer{steps: []domain.PreparedStep{approvalStep(tokenA, "100")}}
	wallet := &fakeWallet{approveErr: apperror.New(apperror.CodeWalletRejected)}
	m := NewMachine(prep, wallet, testLogger(), nil)
	ctx := context.Background()

	if err := m.Commit(ctx, testIntent(t, "100", "0")); err != nil {
		t.Fatalf("commit: %v", err)
	}
	err := m.ConfirmApproval(ctx)
	if !apperror.IsCode(err, apperror.CodeWalletRejected) {
		t.Fatalf("error = %v, want WALLET_REJECTED", err)
	}
	// The user can retry without re-preparing.
	if _, ok := m.State().(domain.StateApproving); !ok {
		t.Errorf("state after rejection = %s, want approving", m.State().Phase())
	}

	wallet.approveErr = nil
	prep.mu.Lock()
	prep.steps = append(prep.steps, mintStep())
	prep.mu.Unlock()
	if err := m.ConfirmApproval(ctx); err != nil {
		t.Fatalf("retry after rejection: %v", err)
	}
}

func TestMachine_ApprovalRevertReturnsToInput(t *testing.T) {
	prep := &scriptedPreparer{steps: []domain.PreparedStep{approvalStep(tokenA, "100")}}
	wallet := &fakeWallet{receiptErr: apperror.New(apperror.CodeTransactionReverted)}
	m := NewMachine(prep, wallet, testLogger(), nil)
	ctx := context.Background()

	if err := m.Commit(ctx, testIntent(t, "100", "0")); err != nil {
		t.Fatalf("commit: %v", err)
	}
	err := m.ConfirmApproval(ctx)
	if !apperror.IsCode(err, apperror.CodeTransactionReverted) {
		t.Fatalf("error = %v, want TRANSACTION_REVERTED", err)
	}
	if _, ok := m.State().(domain.StateInput); !ok {
		t.Errorf("state after reverted approval = %s, want input", m.State().Phase())
	}
}

func TestMachine_MintRevertStaysInMinting(t *testing.T) {
	prep := &scriptedPreparer{steps: []domain.PreparedStep{mintStep()}}
	wallet := &fakeWallet{receiptErr: apperror.New(apperror.CodeTransactionReverted)}
	m := NewMachine(prep, wallet, testLogger(), nil)
	ctx := context.Background()

	if err := m.Commit(ctx, testIntent(t, "100", "250")); err != nil {
		t.Fatalf("commit: %v", err)
	}
	err := m.Execute(ctx)
	if !apperror.IsCode(err, apperror.CodeTransactionReverted) {
		t.Fatalf("error = %v, want TRANSACTION_REVERTED", err)
	}
	// Retry in place, without re-approving.
	if _, ok := m.State().(domain.StateMinting); !ok {
		t.Fatalf("state after reverted mint = %s, want minting", m.State().Phase())
	}

	wallet.receiptErr = nil
	if err := m.Execute(ctx); err != nil {
		t.Fatalf("retry mint: %v", err)
	}
	if _, ok := m.State().(domain.StateDone); !ok {
		t.Errorf("final state = %s, want done", m.State().Phase())
	}
}

func TestMachine_SingleCompletionEvent(t *testing.T) {
	prep := &scriptedPreparer{steps: []domain.PreparedStep{mintStep()}}
	var completions int
	var evMu sync.Mutex
	m := NewMachine(prep, &fakeWallet{}, testLogger(), func(ev domain.Event) {
		if _, ok := ev.(domain.DepositCompleted); ok {
			evMu.Lock()
			completions++
			evMu.Unlock()
		}
	})
	ctx := context.Background()

	if err := m.Commit(ctx, testIntent(t, "100", "250")); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := m.Execute(ctx); err != nil {
		t.Fatalf("execute: %v", err)
	}

	evMu.Lock()
	defer evMu.Unlock()
	if completions != 1 {
		t.Errorf("DepositCompleted emitted %d times, want exactly 1", completions)
	}
}
