package asset

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Price represents a display exchange rate between two pool assets:
// the amount of quote per one unit of base. It is a boundary value used
// for rendering only - tick-level math stays in raw fixed point.
type Price struct {
	rate      decimal.Decimal
	base      *Asset // the asset being priced (e.g., WETH)
	quote     *Asset // the unit of price (e.g., USDC)
	timestamp time.Time
}

// NewPrice creates a new price from a decimal rate.
// For WETH/USDC at 2000.50: rate=2000.50, base=WETH, quote=USDC.
func NewPrice(base, quote *Asset, rate decimal.Decimal, timestamp time.Time) Price {
	if base == nil || quote == nil {
		panic("asset: nil base or quote in price")
	}
	if rate.IsNegative() {
		panic("asset: negative price rate")
	}

	return Price{
		rate:      rate,
		base:      base,
		quote:     quote,
		timestamp: timestamp,
	}
}

// NewPriceNow creates a price with the current timestamp.
func NewPriceNow(base, quote *Asset, rate decimal.Decimal) Price {
	return NewPrice(base, quote, rate, time.Now())
}

// Rate returns the price rate.
func (p Price) Rate() decimal.Decimal {
	return p.rate
}

// Base returns the base asset.
func (p Price) Base() *Asset {
	return p.base
}

// Quote returns the quote asset.
func (p Price) Quote() *Asset {
	return p.quote
}

// Timestamp returns when this price was observed.
func (p Price) Timestamp() time.Time {
	return p.timestamp
}

// Pair returns the trading pair symbol (e.g., "WETH/USDC").
func (p Price) Pair() string {
	if p.base == nil || p.quote == nil {
		return "???/???"
	}
	return fmt.Sprintf("%s/%s", p.base.Symbol(), p.quote.Symbol())
}

// IsZero returns true if the price is zero.
func (p Price) IsZero() bool {
	return p.rate.IsZero()
}

// Invert returns the inverse price (e.g., WETH/USDC -> USDC/WETH).
func (p Price) Invert() Price {
	if p.IsZero() {
		return Price{
			rate:      decimal.Zero,
			base:      p.quote,
			quote:     p.base,
			timestamp: p.timestamp,
		}
	}

	return Price{
		rate:      decimal.NewFromInt(1).DivRound(p.rate, 36),
		base:      p.quote,
		quote:     p.base,
		timestamp: p.timestamp,
	}
}

// String returns a human-readable representation.
func (p Price) String() string {
	return fmt.Sprintf("%s %s", p.rate.String(), p.Pair())
}

// Age returns how old this price is.
func (p Price) Age() time.Duration {
	return time.Since(p.timestamp)
}

// IsStale returns true if the price is older than the given duration.
func (p Price) IsStale(maxAge time.Duration) bool {
	return p.Age() > maxAge
}
