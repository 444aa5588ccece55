package domain

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/fd1az/lp-deposit/internal/apperror"
)

func TestResolvePreset(t *testing.T) {
	tests := []struct {
		name    string
		preset  RangePreset
		center  int
		spacing int
	}{
		{"narrow at zero", PresetNarrow, 0, 60},
		{"medium at positive center", PresetMedium, 200310, 60},
		{"wide at negative center", PresetWide, -76000, 10},
		{"tight spacing", PresetNarrow, 5, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := ResolvePreset(tt.preset, tt.center, tt.spacing)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if err := r.Validate(tt.spacing); err != nil {
				t.Errorf("resolved range %s violates invariants: %v", r, err)
			}
			if !r.Contains(tt.center) {
				t.Errorf("resolved range %s does not contain center %d", r, tt.center)
			}
		})
	}
}

func TestResolvePreset_NeverWidens(t *testing.T) {
	// Alignment must pull both bounds inward: the aligned range has to
	// sit inside the unaligned candidate band.
	r, err := ResolvePreset(PresetMedium, 1234, 60)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// ln(1.08)/ln(1.0001) ≈ 769.6, ln(0.92)/ln(1.0001) ≈ -833.8.
	candidateLower := 1234 - 834
	candidateUpper := 1234 + 770
	if r.Lower < candidateLower || r.Upper > candidateUpper {
		t.Errorf("aligned range %s extends past candidate [%d, %d]", r, candidateLower, candidateUpper)
	}
}

func TestResolvePreset_RangeTooNarrow(t *testing.T) {
	// ±0.001% at spacing 200 collapses: the candidate band is a fraction
	// of one spacing unit wide.
	tiny := RangePreset{Label: "±0.001%", Percent: 0.00001}
	_, err := ResolvePreset(tiny, 0, 200)
	if !apperror.IsCode(err, apperror.CodeRangeTooNarrow) {
		t.Errorf("error = %v, want RANGE_TOO_NARROW", err)
	}
}

func TestResolvePreset_InvalidPercent(t *testing.T) {
	for _, p := range []float64{0, -0.05, 1, 1.5} {
		_, err := ResolvePreset(RangePreset{Label: "bad", Percent: p}, 0, 60)
		if !apperror.IsCode(err, apperror.CodeInvalidRange) {
			t.Errorf("percent %g: error = %v, want INVALID_RANGE", p, err)
		}
	}
}

func TestResolvePreset_FullRange(t *testing.T) {
	r, err := ResolvePreset(PresetFull, 123456, 200)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r != FullRange(200) {
		t.Errorf("full range preset = %s, want %s", r, FullRange(200))
	}
}

func TestResolvePresetAtPrice(t *testing.T) {
	// Center tick unknown: a center price of 1.0 on an equal-decimal
	// pair seeds the resolver at tick 0.
	a, b, ord := testPair(t, 18, 18)

	r, err := ResolvePresetAtPrice(PresetNarrow, decimal.RequireFromString("1"), a, b, ord, 60)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want, _ := ResolvePreset(PresetNarrow, 0, 60)
	if r != want {
		t.Errorf("range from price = %s, want %s", r, want)
	}

	_, err = ResolvePresetAtPrice(PresetNarrow, decimal.Zero, a, b, ord, 60)
	if !apperror.IsCode(err, apperror.CodeInvalidPrice) {
		t.Errorf("error = %v, want INVALID_PRICE", err)
	}
}
