package domain

import (
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/lp-deposit/internal/apperror"
)

// CompletionLedger tracks which of the intent's tokens have cleared
// authorization. Keyed by token address, never symbol. One entry exists
// per token with a positive amount in the current intent; the ledger is
// rebuilt on every fresh prepare.
//
// The ledger is owned exclusively by the state machine; all mutation
// happens inside serialized transitions.
type CompletionLedger struct {
	entries map[common.Address]bool
	symbols map[common.Address]string
}

// NewCompletionLedger builds an all-false ledger for the intent's
// involved tokens.
func NewCompletionLedger(intent *DepositIntent) *CompletionLedger {
	l := &CompletionLedger{
		entries: make(map[common.Address]bool, 2),
		symbols: make(map[common.Address]string, 2),
	}
	for _, tok := range intent.InvolvedTokens() {
		l.entries[tok.Address()] = false
		l.symbols[tok.Address()] = tok.Symbol()
	}
	return l
}

// MarkComplete flips one token's entry to true. A token outside the
// intent is a loud error: a permit batch must never silently authorize
// something the intent does not hold.
func (l *CompletionLedger) MarkComplete(addr common.Address) error {
	if _, ok := l.entries[addr]; !ok {
		return apperror.Validation(apperror.CodeUnexpectedPermitToken,
			fmt.Sprintf("token %s is not part of the deposit intent", addr.Hex()))
	}
	l.entries[addr] = true
	return nil
}

// MarkBatch flips every listed token atomically: either all addresses
// belong to the intent and all flip, or none do and the batch is
// rejected whole.
func (l *CompletionLedger) MarkBatch(addrs []common.Address) error {
	for _, addr := range addrs {
		if _, ok := l.entries[addr]; !ok {
			return apperror.Validation(apperror.CodeUnexpectedPermitToken,
				fmt.Sprintf("batch references token %s outside the deposit intent", addr.Hex()))
		}
	}
	for _, addr := range addrs {
		l.entries[addr] = true
	}
	return nil
}

// MarkAllComplete flips every entry, used when the preparer reports
// the deposit is ready with no further authorization.
func (l *CompletionLedger) MarkAllComplete() {
	for addr := range l.entries {
		l.entries[addr] = true
	}
}

// IsComplete reports one token's entry.
func (l *CompletionLedger) IsComplete(addr common.Address) bool {
	return l.entries[addr]
}

// Involved returns the number of tracked tokens.
func (l *CompletionLedger) Involved() int {
	return len(l.entries)
}

// Completed returns the number of tokens that have cleared.
func (l *CompletionLedger) Completed() int {
	n := 0
	for _, done := range l.entries {
		if done {
			n++
		}
	}
	return n
}

// LedgerEntry is one row of a ledger snapshot.
type LedgerEntry struct {
	Address  common.Address
	Symbol   string
	Complete bool
}

// Snapshot returns a stable-ordered copy for display.
func (l *CompletionLedger) Snapshot() []LedgerEntry {
	out := make([]LedgerEntry, 0, len(l.entries))
	for addr, done := range l.entries {
		out = append(out, LedgerEntry{Address: addr, Symbol: l.symbols[addr], Complete: done})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Address.Hex() < out[j].Address.Hex()
	})
	return out
}
