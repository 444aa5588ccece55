package domain

import (
	"math/big"
	"time"

	"github.com/fd1az/lp-deposit/internal/asset"
)

// PoolState is a snapshot of the pool's current price coordinate.
type PoolState struct {
	CurrentTick  int
	SqrtPriceX96 *big.Int
	// Price of canonical1 denominated in canonical0, display-adjusted.
	CurrentPrice DisplayPrice
	ObservedAt   time.Time
}

// LiquidityQuote is the calculator's answer for a one-sided deposit:
// the paired amount of the other token, the implied liquidity, and the
// price context the pair was computed against.
type LiquidityQuote struct {
	InputToken       *asset.Asset
	PairedToken      *asset.Asset
	InputAmount      asset.Amount
	PairedAmount     asset.Amount
	Liquidity        *big.Int
	CurrentTick      int
	CurrentPrice     DisplayPrice
	PriceAtTickLower DisplayPrice
	PriceAtTickUpper DisplayPrice
	ComputedAt       time.Time
}
