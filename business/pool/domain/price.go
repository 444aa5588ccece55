package domain

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/fd1az/lp-deposit/internal/apperror"
	"github.com/fd1az/lp-deposit/internal/asset"
)

// tickBase is the logarithmic base of the tick coordinate:
// raw price = 1.0001^tick.
const tickBase = 1.0001

var lnTickBase = math.Log(tickBase)

// DisplayPrice is a user-facing price that may saturate at the edges of
// the tick axis. Saturation is a valid display value, not an error: a
// tick far enough in one direction prices one token at infinity and the
// other at zero.
type DisplayPrice struct {
	value    decimal.Decimal
	infinite bool
}

// NewDisplayPrice wraps a finite decimal price.
func NewDisplayPrice(v decimal.Decimal) DisplayPrice {
	return DisplayPrice{value: v}
}

// InfinitePrice returns the saturated upper price.
func InfinitePrice() DisplayPrice {
	return DisplayPrice{infinite: true}
}

// IsInfinite reports whether the price saturated upward.
func (p DisplayPrice) IsInfinite() bool { return p.infinite }

// IsZero reports whether the price saturated (or rounded) to zero.
func (p DisplayPrice) IsZero() bool { return !p.infinite && p.value.IsZero() }

// Decimal returns the finite value. Panics on an infinite price; callers
// must branch on IsInfinite first.
func (p DisplayPrice) Decimal() decimal.Decimal {
	if p.infinite {
		panic("pool: Decimal() on infinite price")
	}
	return p.value
}

// Float64 returns the value as a float, +Inf when saturated.
func (p DisplayPrice) Float64() float64 {
	if p.infinite {
		return math.Inf(1)
	}
	f, _ := p.value.Float64()
	return f
}

// String renders the price for display.
func (p DisplayPrice) String() string {
	if p.infinite {
		return "∞"
	}
	return p.value.String()
}

// TickToPrice converts a tick into the display price of base denominated
// in quote: the amount of quote equal in value to one unit of base.
//
// The raw 1.0001^tick ratio is canonical1 per canonical0 in on-chain
// units; the exponent sign follows from whether quote is the pool's
// canonical0, and the decimal gap between the two tokens rescales the
// ratio into human units. Saturates to infinity or zero instead of
// raising a numeric error.
func TickToPrice(tick int, quote, base *asset.Asset, ordering PoolOrdering) DisplayPrice {
	sign := 1.0
	if ordering.IsCanonical0(quote) {
		sign = -1.0
	}

	decimalGap := float64(int(base.Decimals()) - int(quote.Decimals()))
	exponent := sign*float64(tick)*lnTickBase + decimalGap*math.Ln10

	v := math.Exp(exponent)
	switch {
	case math.IsInf(v, 1):
		return InfinitePrice()
	case v == 0:
		return NewDisplayPrice(decimal.Zero)
	}
	return NewDisplayPrice(decimal.NewFromFloat(v))
}

// PriceToTick is the algebraic inverse of TickToPrice. It returns the
// real-valued (unrounded) tick; callers align it to the pool spacing.
// Fails with INVALID_PRICE when the price is not strictly positive.
func PriceToTick(price decimal.Decimal, quote, base *asset.Asset, ordering PoolOrdering) (float64, error) {
	if !price.IsPositive() {
		return 0, apperror.Validation(apperror.CodeInvalidPrice,
			fmt.Sprintf("price %s must be positive", price))
	}

	sign := 1.0
	if ordering.IsCanonical0(quote) {
		sign = -1.0
	}

	decimalGap := float64(int(base.Decimals()) - int(quote.Decimals()))
	f, _ := price.Float64()
	if f <= 0 || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, apperror.Validation(apperror.CodeInvalidPrice,
			fmt.Sprintf("price %s not representable", price))
	}

	return sign * (math.Log(f) - decimalGap*math.Ln10) / lnTickBase, nil
}
