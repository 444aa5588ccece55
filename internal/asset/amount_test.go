package asset_test

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/fd1az/lp-deposit/internal/asset"
)

func TestAmount_Basic(t *testing.T) {
	// 1 WETH = 1e18 wei
	oneWETH := asset.NewAmount(asset.WETH, big.NewInt(1e18))

	if oneWETH.IsZero() {
		t.Error("expected non-zero amount")
	}

	d := oneWETH.ToDecimal()
	if !d.Equal(decimal.NewFromInt(1)) {
		t.Errorf("expected 1, got %s", d.String())
	}

	if oneWETH.String() != "1 WETH" {
		t.Errorf("expected '1 WETH', got '%s'", oneWETH.String())
	}
}

func TestAmount_Add(t *testing.T) {
	one := asset.NewAmount(asset.WETH, big.NewInt(1e18))
	two := asset.NewAmount(asset.WETH, big.NewInt(2e18))

	sum, err := one.Add(two)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !sum.ToDecimal().Equal(decimal.NewFromInt(3)) {
		t.Errorf("expected 3, got %s", sum.ToDecimal().String())
	}
}

func TestAmount_CannotAddDifferentAssets(t *testing.T) {
	oneWETH := asset.NewAmount(asset.WETH, big.NewInt(1e18))
	oneUSDC := asset.NewAmount(asset.USDC, big.NewInt(1e6))

	if _, err := oneWETH.Add(oneUSDC); err == nil {
		t.Error("expected error when adding different assets")
	}
}

func TestAmount_Sub(t *testing.T) {
	three := asset.NewAmount(asset.WETH, big.NewInt(3e18))
	one := asset.NewAmount(asset.WETH, big.NewInt(1e18))

	diff, err := three.Sub(one)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !diff.ToDecimal().Equal(decimal.NewFromInt(2)) {
		t.Errorf("expected 2, got %s", diff.ToDecimal().String())
	}

	// Subtraction below zero is rejected
	if _, err := one.Sub(three); err == nil {
		t.Error("expected error for negative result")
	}
}

func TestParseString(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantRaw string
		wantErr bool
	}{
		{name: "whole_units", input: "1", wantRaw: "1000000"},
		{name: "fractional", input: "0.5", wantRaw: "500000"},
		{name: "max_precision", input: "0.000001", wantRaw: "1"},
		{name: "too_many_decimals", input: "0.0000001", wantErr: true},
		{name: "negative", input: "-1", wantErr: true},
		{name: "garbage", input: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := asset.ParseString(asset.USDC, tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Raw().String() != tt.wantRaw {
				t.Errorf("raw = %s, want %s", got.Raw().String(), tt.wantRaw)
			}
		})
	}
}

func TestAmount_DisplayString(t *testing.T) {
	// USDC displays with 2 decimals
	a, err := asset.ParseString(asset.USDC, "1234.5678")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := a.DisplayString(); got != "1234.57 USDC" {
		t.Errorf("DisplayString = %q, want %q", got, "1234.57 USDC")
	}
}

func TestPrice_Invert(t *testing.T) {
	p := asset.NewPriceNow(asset.WETH, asset.USDC, decimal.RequireFromString("2000"))
	inv := p.Invert()

	if inv.Base() != asset.USDC || inv.Quote() != asset.WETH {
		t.Error("Invert should swap base and quote")
	}
	if !inv.Rate().Equal(decimal.RequireFromString("0.0005")) {
		t.Errorf("inverted rate = %s, want 0.0005", inv.Rate())
	}
}
