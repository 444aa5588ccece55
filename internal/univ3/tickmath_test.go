package univ3

import (
	"math/big"
	"testing"
)

func TestSqrtRatioAtTick_Bounds(t *testing.T) {
	if _, err := SqrtRatioAtTick(MinTick - 1); err == nil {
		t.Error("expected error below MinTick")
	}
	if _, err := SqrtRatioAtTick(MaxTick + 1); err == nil {
		t.Error("expected error above MaxTick")
	}

	minRatio, err := SqrtRatioAtTick(MinTick)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if minRatio.Cmp(MinSqrtRatio) != 0 {
		t.Errorf("ratio at MinTick = %s, want %s", minRatio, MinSqrtRatio)
	}

	maxRatio, err := SqrtRatioAtTick(MaxTick)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if maxRatio.Cmp(MaxSqrtRatio) != 0 {
		t.Errorf("ratio at MaxTick = %s, want %s", maxRatio, MaxSqrtRatio)
	}
}

func TestSqrtRatioAtTick_Known(t *testing.T) {
	tests := []struct {
		tick int
		want string
	}{
		{tick: 0, want: "79228162514264337593543950336"}, // 2^96
		{tick: 1, want: "79232123823359799118286999568"},
		{tick: -1, want: "79224201403219477170569942574"},
	}

	for _, tt := range tests {
		got, err := SqrtRatioAtTick(tt.tick)
		if err != nil {
			t.Fatalf("tick %d: unexpected error: %v", tt.tick, err)
		}
		if got.String() != tt.want {
			t.Errorf("tick %d: ratio = %s, want %s", tt.tick, got, tt.want)
		}
	}
}

func TestTickAtSqrtRatio(t *testing.T) {
	if _, err := TickAtSqrtRatio(new(big.Int).Sub(MinSqrtRatio, big.NewInt(1))); err == nil {
		t.Error("expected error below MinSqrtRatio")
	}
	if _, err := TickAtSqrtRatio(MaxSqrtRatio); err == nil {
		t.Error("expected error at MaxSqrtRatio (exclusive)")
	}

	tick, err := TickAtSqrtRatio(MinSqrtRatio)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tick != MinTick {
		t.Errorf("tick at MinSqrtRatio = %d, want %d", tick, MinTick)
	}

	tick, err = TickAtSqrtRatio(new(big.Int).Sub(MaxSqrtRatio, big.NewInt(1)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tick != MaxTick-1 {
		t.Errorf("tick near MaxSqrtRatio = %d, want %d", tick, MaxTick-1)
	}
}

func TestTickAtSqrtRatio_RoundTrip(t *testing.T) {
	// TickAtSqrtRatio(SqrtRatioAtTick(t)) == t for a spread of ticks.
	for _, tick := range []int{-500000, -100000, -1000, -1, 0, 1, 1000, 100000, 500000} {
		ratio, err := SqrtRatioAtTick(tick)
		if err != nil {
			t.Fatalf("tick %d: unexpected error: %v", tick, err)
		}
		got, err := TickAtSqrtRatio(ratio)
		if err != nil {
			t.Fatalf("tick %d: unexpected error: %v", tick, err)
		}
		if got != tick {
			t.Errorf("round trip for tick %d returned %d", tick, got)
		}
	}
}

func TestLiquidityAmounts_RoundTrip(t *testing.T) {
	// In-range position: amounts rounded up from liquidity must convert
	// back to at least as much liquidity, so a quote built from them
	// never understates what the mint needs. One wei of either amount is
	// worth a few units of liquidity over this range, which bounds the
	// overshoot.
	cur, _ := SqrtRatioAtTick(0)
	lo, _ := SqrtRatioAtTick(-6000)
	hi, _ := SqrtRatioAtTick(6000)

	liquidity := big.NewInt(1_000_000_000)
	amount0 := Amount0ForLiquidityRoundingUp(cur, hi, liquidity)
	amount1 := Amount1ForLiquidityRoundingUp(lo, cur, liquidity)

	if amount0.Sign() <= 0 || amount1.Sign() <= 0 {
		t.Fatalf("expected positive in-range amounts, got %s / %s", amount0, amount1)
	}

	l0 := LiquidityForAmount0(cur, hi, amount0)
	l1 := LiquidityForAmount1(lo, cur, amount1)

	maxOvershoot := big.NewInt(8)
	for name, l := range map[string]*big.Int{"amount0": l0, "amount1": l1} {
		if l.Cmp(liquidity) < 0 {
			t.Errorf("%s liquidity = %s, below requested %s", name, l, liquidity)
		}
		if new(big.Int).Sub(l, liquidity).Cmp(maxOvershoot) > 0 {
			t.Errorf("%s liquidity = %s, overshoots %s by more than %s",
				name, l, liquidity, maxOvershoot)
		}
	}
}

func TestAmountsRoundingUp_NeverBelowFloor(t *testing.T) {
	lo, _ := SqrtRatioAtTick(-6000)
	hi, _ := SqrtRatioAtTick(6000)

	for _, liquidity := range []*big.Int{big.NewInt(1), big.NewInt(12345), big.NewInt(1_000_000_000)} {
		up0 := Amount0ForLiquidityRoundingUp(lo, hi, liquidity)
		if up0.Cmp(Amount0ForLiquidity(lo, hi, liquidity)) < 0 {
			t.Errorf("liquidity %s: rounded-up amount0 %s below floored", liquidity, up0)
		}
		up1 := Amount1ForLiquidityRoundingUp(lo, hi, liquidity)
		if up1.Cmp(Amount1ForLiquidity(lo, hi, liquidity)) < 0 {
			t.Errorf("liquidity %s: rounded-up amount1 %s below floored", liquidity, up1)
		}
	}
}

func TestAmountsForLiquidity_OutOfRange(t *testing.T) {
	lo, _ := SqrtRatioAtTick(1000)
	hi, _ := SqrtRatioAtTick(2000)
	liquidity := big.NewInt(1_000_000)

	// Current price below the range: all token0.
	below, _ := SqrtRatioAtTick(0)
	amount0, amount1 := AmountsForLiquidity(below, lo, hi, liquidity)
	if amount0.Sign() <= 0 || amount1.Sign() != 0 {
		t.Errorf("below range: amounts = %s / %s, want token0 only", amount0, amount1)
	}

	// Current price above the range: all token1.
	above, _ := SqrtRatioAtTick(3000)
	amount0, amount1 = AmountsForLiquidity(above, lo, hi, liquidity)
	if amount0.Sign() != 0 || amount1.Sign() <= 0 {
		t.Errorf("above range: amounts = %s / %s, want token1 only", amount0, amount1)
	}
}
