package app

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/lp-deposit/business/deposit/domain"
	"github.com/fd1az/lp-deposit/internal/apperror"
	"github.com/fd1az/lp-deposit/internal/logger"
)

// Machine sequences the deposit authorization steps:
// input → approving* → permit signing? → minting → done.
//
// The machine never assumes it knows the full step sequence up front.
// After every side effect it re-asks the preparer what must happen
// next, because the answer depends on on-chain state that only changes
// once the side effect lands.
//
// Transitions are serialized by a mutex; the current state acts as the
// at-most-one-in-flight lock (no approving→approving re-entry). Wallet
// interactions run outside the lock; their results are applied only if
// the machine's epoch still matches the one captured at dispatch, so a
// Reset mid-flight detaches the eventual confirmation instead of
// letting it mutate state after the fact.
type Machine struct {
	mu       sync.Mutex
	state    domain.State
	intent   *domain.DepositIntent
	ledger   *domain.CompletionLedger
	epoch    uint64
	inFlight bool

	preparer TransactionPreparer
	wallet   WalletSigner
	logger   logger.LoggerInterface
	sink     EventSink
}

// NewMachine creates a machine in the input state. sink may be nil.
func NewMachine(preparer TransactionPreparer, wallet WalletSigner, log logger.LoggerInterface, sink EventSink) *Machine {
	return &Machine{
		state:    domain.StateInput{},
		preparer: preparer,
		wallet:   wallet,
		logger:   log,
		sink:     sink,
	}
}

// State returns the current state value.
func (m *Machine) State() domain.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Intent returns the committed intent, nil while in input.
func (m *Machine) Intent() *domain.DepositIntent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.intent
}

// Progress returns the ledger's completed and involved counts.
func (m *Machine) Progress() (completed, involved int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ledger == nil {
		return 0, 0
	}
	return m.ledger.Completed(), m.ledger.Involved()
}

// LedgerSnapshot returns a display copy of the completion ledger.
func (m *Machine) LedgerSnapshot() []domain.LedgerEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ledger == nil {
		return nil
	}
	return m.ledger.Snapshot()
}

// Commit accepts a finalized intent from the input state, asks the
// preparer for the first step, and transitions accordingly. Changing
// the intent in any other state requires Reset first: a stale prepared
// step must never execute against a changed intent.
func (m *Machine) Commit(ctx context.Context, intent *domain.DepositIntent) error {
	m.mu.Lock()
	if _, ok := m.state.(domain.StateInput); !ok {
		m.mu.Unlock()
		return apperror.New(apperror.CodeInvalidState,
			apperror.WithContext("commit requires the input state; reset first"))
	}
	if m.inFlight {
		m.mu.Unlock()
		return apperror.New(apperror.CodeInvalidState,
			apperror.WithContext("a step is already in flight"))
	}
	m.intent = intent
	m.ledger = domain.NewCompletionLedger(intent)
	m.inFlight = true
	epoch := m.epoch
	m.mu.Unlock()

	step, err := m.preparer.Prepare(ctx, intent, nil)

	m.mu.Lock()
	defer m.mu.Unlock()
	if epoch != m.epoch {
		return nil // reset mid-flight; drop the result
	}
	m.inFlight = false

	if err != nil {
		wrapped := apperror.Wrap(err, apperror.CodeCalculationFailed, "prepare deposit")
		m.emit(domain.StepFailed{Phase: m.state.Phase(), Err: wrapped})
		return wrapped
	}
	return m.applyStepLocked(step)
}

// ConfirmApproval sends the pending ERC20 approval, waits for the chain
// to confirm it, marks the token complete, and re-asks the preparer:
// approving one token may reveal a second approval or a permit
// signature is still required.
func (m *Machine) ConfirmApproval(ctx context.Context) error {
	m.mu.Lock()
	st, ok := m.state.(domain.StateApproving)
	if !ok {
		m.mu.Unlock()
		return apperror.New(apperror.CodeInvalidState,
			apperror.WithContext("no approval is pending"))
	}
	if m.inFlight {
		m.mu.Unlock()
		return apperror.New(apperror.CodeInvalidState,
			apperror.WithContext("a step is already in flight"))
	}
	m.inFlight = true
	epoch := m.epoch
	intent := m.intent
	m.mu.Unlock()

	step := st.Step
	hash, err := m.wallet.Approve(ctx, step.Token, step.Spender, step.Amount)
	if err == nil {
		m.logger.Info(ctx, "approval sent", "token", step.Token.Symbol(), "tx", hash.Hex())
		err = m.wallet.WaitForReceipt(ctx, hash)
	}

	var next domain.PreparedStep
	var prepErr error
	if err == nil {
		next, prepErr = m.preparer.Prepare(ctx, intent, step.Token)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if epoch != m.epoch {
		return nil
	}
	m.inFlight = false

	if err != nil {
		return m.failLocked(err)
	}

	if lerr := m.ledger.MarkComplete(step.Token.Address()); lerr != nil {
		m.emit(domain.StepFailed{Phase: m.state.Phase(), Err: lerr})
		m.toInputLocked()
		return lerr
	}
	m.emitCompletedLocked([]common.Address{step.Token.Address()})

	if prepErr != nil {
		wrapped := apperror.Wrap(prepErr, apperror.CodeCalculationFailed, "re-prepare after approval")
		m.emit(domain.StepFailed{Phase: m.state.Phase(), Err: wrapped})
		m.toInputLocked()
		return wrapped
	}
	return m.applyStepLocked(next)
}

// SignAndSubmit requests the EIP-712 signature for the pending permit
// batch, submits it to the permit contract, waits for confirmation,
// marks every covered token complete in one atomic update, and
// re-prepares.
func (m *Machine) SignAndSubmit(ctx context.Context) error {
	m.mu.Lock()
	st, ok := m.state.(domain.StatePermitSigning)
	if !ok {
		m.mu.Unlock()
		return apperror.New(apperror.CodeInvalidState,
			apperror.WithContext("no permit signature is pending"))
	}
	if m.inFlight {
		m.mu.Unlock()
		return apperror.New(apperror.CodeInvalidState,
			apperror.WithContext("a step is already in flight"))
	}
	m.inFlight = true
	epoch := m.epoch
	intent := m.intent
	m.mu.Unlock()

	step := st.Step

	sig, err := m.wallet.SignTypedData(ctx, step.TypedData)

	var hash common.Hash
	if err == nil {
		var tx domain.RawTransaction
		tx, err = m.preparer.BuildPermitSubmission(ctx, step, sig)
		if err == nil {
			hash, err = m.wallet.SendRawTransaction(ctx, tx)
		}
	}
	if err == nil {
		m.logger.Info(ctx, "permit submitted", "tx", hash.Hex(), "tokens", len(step.CoveredTokens))
		err = m.wallet.WaitForReceipt(ctx, hash)
	}

	var next domain.PreparedStep
	var prepErr error
	if err == nil {
		next, prepErr = m.preparer.Prepare(ctx, intent, nil)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if epoch != m.epoch {
		return nil
	}
	m.inFlight = false

	if err != nil {
		return m.failLocked(err)
	}

	// A batch signature can authorize several tokens at once; the
	// ledger reflects that atomically. A batch naming a token outside
	// the intent is a loud failure, never a silent no-op.
	if lerr := m.ledger.MarkBatch(step.CoveredTokens); lerr != nil {
		m.emit(domain.StepFailed{Phase: m.state.Phase(), Err: lerr})
		m.toInputLocked()
		return lerr
	}
	m.emitCompletedLocked(step.CoveredTokens)

	if prepErr != nil {
		wrapped := apperror.Wrap(prepErr, apperror.CodeCalculationFailed, "re-prepare after permit")
		m.emit(domain.StepFailed{Phase: m.state.Phase(), Err: wrapped})
		m.toInputLocked()
		return wrapped
	}
	return m.applyStepLocked(next)
}

// Execute sends the prepared mint transaction. Success transitions to
// done with a single completion event; any failure keeps the machine in
// minting so the user can retry without re-approving.
func (m *Machine) Execute(ctx context.Context) error {
	m.mu.Lock()
	st, ok := m.state.(domain.StateMinting)
	if !ok {
		m.mu.Unlock()
		return apperror.New(apperror.CodeInvalidState,
			apperror.WithContext("no mint transaction is prepared"))
	}
	if m.inFlight {
		m.mu.Unlock()
		return apperror.New(apperror.CodeInvalidState,
			apperror.WithContext("a step is already in flight"))
	}
	m.inFlight = true
	epoch := m.epoch
	m.mu.Unlock()

	hash, err := m.wallet.SendRawTransaction(ctx, st.Step.Tx)
	if err == nil {
		m.logger.Info(ctx, "mint sent", "tx", hash.Hex())
		err = m.wallet.WaitForReceipt(ctx, hash)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if epoch != m.epoch {
		return nil
	}
	m.inFlight = false

	if err != nil {
		// Stay in minting on rejection and on revert alike.
		m.emit(domain.StepFailed{Phase: m.state.Phase(), Err: err})
		return err
	}

	from := m.state.Phase()
	m.state = domain.StateDone{TxHash: hash}
	m.logger.Info(ctx, "deposit completed", "tx", hash.Hex())
	m.emit(domain.PhaseChanged{From: from, To: m.state.Phase()})
	m.emit(domain.DepositCompleted{TxHash: hash})
	return nil
}

// Reset forces the machine back to the input state from anywhere,
// clearing the prepared step, pending signature request, and ledger.
// Idempotent and safe mid-flight: the epoch bump turns any in-flight
// confirmation into a no-op when it eventually arrives.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.state.(domain.StateInput); ok && !m.inFlight && m.intent == nil {
		return
	}

	m.epoch++
	m.inFlight = false
	from := m.state.Phase()
	m.state = domain.StateInput{}
	m.intent = nil
	m.ledger = nil
	if from != (domain.StateInput{}).Phase() {
		m.emit(domain.PhaseChanged{From: from, To: (domain.StateInput{}).Phase()})
	}
}

// applyStepLocked maps the preparer's answer onto the next state.
// Caller holds the mutex.
func (m *Machine) applyStepLocked(step domain.PreparedStep) error {
	from := m.state.Phase()

	switch s := step.(type) {
	case domain.NeedsErc20Approval:
		m.state = domain.StateApproving{Step: s}
	case domain.NeedsPermitSignature:
		m.state = domain.StatePermitSigning{Step: s}
	case domain.ReadyToMint:
		m.state = domain.StateMinting{Step: s}
		// No further authorization needed for any involved token.
		m.ledger.MarkAllComplete()
		m.emitCompletedLocked(nil)
	default:
		err := apperror.New(apperror.CodeInternalError,
			apperror.WithContext("preparer returned an unknown step kind"))
		m.emit(domain.StepFailed{Phase: from, Err: err})
		return err
	}

	m.emit(domain.PhaseChanged{From: from, To: m.state.Phase()})
	return nil
}

// failLocked applies the error policy for a failed wallet interaction.
// Caller holds the mutex.
func (m *Machine) failLocked(err error) error {
	m.emit(domain.StepFailed{Phase: m.state.Phase(), Err: err})

	switch apperror.GetCode(err) {
	case apperror.CodeWalletRejected, apperror.CodeNetworkMismatch:
		// Keep the state: the user can retry after acting.
	case apperror.CodeTransactionReverted:
		// A reverted approval or permit invalidates the intent's
		// assumptions; mint reverts are retried in place.
		if _, minting := m.state.(domain.StateMinting); !minting {
			m.toInputLocked()
		}
	default:
		// Unknown failures keep the state for retry.
	}
	return err
}

// toInputLocked returns to the input state, dropping the intent and
// ledger: the caller must rebuild and re-commit. Caller holds the mutex.
func (m *Machine) toInputLocked() {
	from := m.state.Phase()
	m.state = domain.StateInput{}
	m.intent = nil
	m.ledger = nil
	m.emit(domain.PhaseChanged{From: from, To: m.state.Phase()})
}

func (m *Machine) emitCompletedLocked(tokens []common.Address) {
	m.emit(domain.TokensCompleted{
		Tokens:    tokens,
		Completed: m.ledger.Completed(),
		Involved:  m.ledger.Involved(),
	})
}

// emit forwards an event to the sink. Called with the mutex held: the
// sink must hand off quickly and never call back into the machine.
func (m *Machine) emit(ev domain.Event) {
	if m.sink != nil {
		m.sink(ev)
	}
}
