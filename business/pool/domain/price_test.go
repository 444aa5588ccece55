package domain

import (
	"math"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/fd1az/lp-deposit/internal/apperror"
	"github.com/fd1az/lp-deposit/internal/asset"
	"github.com/fd1az/lp-deposit/internal/univ3"
)

func testToken(t *testing.T, addr string, symbol string, decimals uint8) *asset.Asset {
	t.Helper()
	return asset.NewAsset(
		asset.NewTokenAssetID(asset.ChainIDEthereum, common.HexToAddress(addr)),
		symbol, decimals, decimals,
	)
}

func testPair(t *testing.T, dec0, dec1 uint8) (*asset.Asset, *asset.Asset, PoolOrdering) {
	t.Helper()
	// Addresses chosen so tokenA < tokenB: tokenA is canonical0.
	a := testToken(t, "0x0000000000000000000000000000000000000001", "AAA", dec0)
	b := testToken(t, "0x0000000000000000000000000000000000000002", "BBB", dec1)
	return a, b, NewPoolOrdering(a, b)
}

func TestNewPoolOrdering_ByAddress(t *testing.T) {
	usdc := testToken(t, "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", "USDC", 6)
	weth := testToken(t, "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2", "WETH", 18)

	// Construction order must not matter.
	for _, ord := range []PoolOrdering{NewPoolOrdering(usdc, weth), NewPoolOrdering(weth, usdc)} {
		if ord.Canonical0().Symbol() != "USDC" {
			t.Errorf("canonical0 = %s, want USDC", ord.Canonical0().Symbol())
		}
		if ord.Canonical1().Symbol() != "WETH" {
			t.Errorf("canonical1 = %s, want WETH", ord.Canonical1().Symbol())
		}
		if !ord.IsCanonical0(usdc) || ord.IsCanonical0(weth) {
			t.Error("IsCanonical0 misclassifies pair members")
		}
	}
}

func TestTickToPrice_KnownValue(t *testing.T) {
	// USDC (6 decimals, canonical0) / WETH (18 decimals, canonical1).
	// At tick 200311 the raw ratio 1.0001^t ≈ 5e8, so one WETH is
	// worth about 2000 USDC after the 10^12 decimal rescale.
	usdc := testToken(t, "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", "USDC", 6)
	weth := testToken(t, "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2", "WETH", 18)
	ord := NewPoolOrdering(usdc, weth)

	price := TickToPrice(200311, usdc, weth, ord)
	if price.IsInfinite() {
		t.Fatal("unexpected infinite price")
	}
	got := price.Float64()
	if got < 1980 || got > 2020 {
		t.Errorf("WETH in USDC at tick 200311 = %v, want ~2000", got)
	}

	// Opposite quote direction must be the reciprocal.
	inverse := TickToPrice(200311, weth, usdc, ord)
	product := got * inverse.Float64()
	if math.Abs(product-1) > 1e-9 {
		t.Errorf("price * inverse = %v, want 1", product)
	}
}

func TestTickPrice_RoundTrip(t *testing.T) {
	// priceToTick(tickToPrice(t)) recovers t within rounding tolerance
	// for both quote directions and a spread of decimal pairs.
	decimalPairs := [][2]uint8{{18, 18}, {6, 18}, {18, 6}, {0, 18}, {8, 2}}
	ticks := []int{-500000, -100000, -887, -1, 0, 1, 887, 100000, 500000}

	for _, dp := range decimalPairs {
		a, b, ord := testPair(t, dp[0], dp[1])
		for _, tick := range ticks {
			for _, dir := range []struct {
				name        string
				quote, base *asset.Asset
			}{
				{"quote=canonical0", a, b},
				{"quote=canonical1", b, a},
			} {
				price := TickToPrice(tick, dir.quote, dir.base, ord)
				if price.IsInfinite() || price.IsZero() {
					t.Fatalf("decimals %v tick %d %s: saturated price", dp, tick, dir.name)
				}
				got, err := PriceToTick(price.Decimal(), dir.quote, dir.base, ord)
				if err != nil {
					t.Fatalf("decimals %v tick %d %s: %v", dp, tick, dir.name, err)
				}
				if math.Abs(got-float64(tick)) > 0.01 {
					t.Errorf("decimals %v %s: round trip of tick %d returned %v", dp, dir.name, tick, got)
				}
			}
		}
	}
}

func TestTickPrice_OrderingInvariance(t *testing.T) {
	// Swapping which token the user treats as the quote must yield
	// exact reciprocal display prices, never a silent flip.
	a, b, ord := testPair(t, 6, 18)

	for _, tick := range []int{-100000, 0, 100000} {
		p := TickToPrice(tick, a, b, ord).Float64()
		q := TickToPrice(tick, b, a, ord).Float64()
		if math.Abs(p*q-1) > 1e-9 {
			t.Errorf("tick %d: p=%v q=%v, product %v != 1", tick, p, q, p*q)
		}
	}
}

func TestTickToPrice_Saturates(t *testing.T) {
	// Zero-decimal pair with an absurd tick magnitude: exponentiation
	// must saturate, not error. Global-bound ticks stay finite.
	a, b, ord := testPair(t, 0, 0)

	if p := TickToPrice(univ3.MaxTick, a, b, ord); p.IsInfinite() || p.IsZero() {
		t.Error("price at MaxTick should still be finite for 0/0 decimals")
	}

	huge := 10_000_000
	if p := TickToPrice(huge, b, a, ord); !p.IsInfinite() {
		t.Errorf("price at tick %d should saturate to infinity, got %s", huge, p)
	}
	if p := TickToPrice(-huge, b, a, ord); !p.IsZero() {
		t.Errorf("price at tick %d should saturate to zero, got %s", -huge, p)
	}
}

func TestPriceToTick_RejectsNonPositive(t *testing.T) {
	a, b, ord := testPair(t, 6, 18)

	for _, raw := range []string{"0", "-1", "-0.0001"} {
		_, err := PriceToTick(decimal.RequireFromString(raw), a, b, ord)
		if !apperror.IsCode(err, apperror.CodeInvalidPrice) {
			t.Errorf("price %s: error = %v, want INVALID_PRICE", raw, err)
		}
	}
}
