// Package domain contains the core domain types for the deposit context.
package domain

import (
	"fmt"

	pooldomain "github.com/fd1az/lp-deposit/business/pool/domain"
	"github.com/fd1az/lp-deposit/internal/apperror"
	"github.com/fd1az/lp-deposit/internal/asset"
)

// InputSide records which of the two amounts was user-typed; the other
// side is derived by the calculator.
type InputSide int

const (
	InputSide0 InputSide = iota
	InputSide1
)

// DepositIntent is the user's desired deposit: two amounts, a tick
// range, and which amount was typed. Rebuilt on every keystroke or
// preset click; Generation increases monotonically so stale derived
// results can be recognized and dropped.
type DepositIntent struct {
	Amount0         asset.Amount
	Amount1         asset.Amount
	Range           pooldomain.TickRange
	ActiveInputSide InputSide
	Generation      uint64
}

// Validate checks the intent is executable: at least one positive
// amount and a well-formed range.
func (i *DepositIntent) Validate(tickSpacing int) error {
	if err := i.Range.Validate(tickSpacing); err != nil {
		return err
	}
	if !i.Amount0.IsPositive() && !i.Amount1.IsPositive() {
		return apperror.Validation(apperror.CodeInvalidInput, "both amounts are zero")
	}
	return nil
}

// InvolvedTokens returns the tokens with a positive amount in the
// intent, in canonical order. Zero-amount sides are excluded: they need
// no authorization.
func (i *DepositIntent) InvolvedTokens() []*asset.Asset {
	tokens := make([]*asset.Asset, 0, 2)
	if i.Amount0.IsPositive() {
		tokens = append(tokens, i.Amount0.Asset())
	}
	if i.Amount1.IsPositive() {
		tokens = append(tokens, i.Amount1.Asset())
	}
	return tokens
}

// AmountFor returns the intent's amount for the given token.
func (i *DepositIntent) AmountFor(a *asset.Asset) (asset.Amount, bool) {
	switch {
	case i.Amount0.Asset() != nil && i.Amount0.Asset().Equals(a):
		return i.Amount0, true
	case i.Amount1.Asset() != nil && i.Amount1.Asset().Equals(a):
		return i.Amount1, true
	}
	return asset.Amount{}, false
}

// String returns a human-readable representation.
func (i *DepositIntent) String() string {
	return fmt.Sprintf("deposit %s + %s into %s", i.Amount0, i.Amount1, i.Range)
}
