// Package app contains application services and port definitions for the pool context.
package app

import (
	"context"

	"github.com/fd1az/lp-deposit/business/pool/domain"
	"github.com/fd1az/lp-deposit/internal/asset"
)

// PoolStateReader reads the pool's current price coordinate from chain.
type PoolStateReader interface {
	// ReadState returns the current tick, sqrt price, and display price
	// for the pool holding the given pair.
	ReadState(ctx context.Context, ordering domain.PoolOrdering) (*domain.PoolState, error)
}

// CalcRequest describes a one-sided amount the calculator should pair.
// InputAmount carries its own asset; the calculator derives the other
// side for the given range.
type CalcRequest struct {
	Ordering    domain.PoolOrdering
	InputAmount asset.Amount
	Range       domain.TickRange
}

// LiquidityCalculator derives the paired amount and liquidity for a
// one-sided deposit over a tick range. Amounts are raw on-chain
// integers on both sides of the call.
type LiquidityCalculator interface {
	ComputePairedAmount(ctx context.Context, req CalcRequest) (*domain.LiquidityQuote, error)
}
