package domain

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/fd1az/lp-deposit/internal/apperror"
	"github.com/fd1az/lp-deposit/internal/asset"
)

// RangePreset is a human-facing width choice for a new position.
type RangePreset struct {
	Label     string
	Percent   float64 // 0 < Percent < 1; ignored when FullRange
	FullRange bool
}

// Default presets offered by the UI.
var (
	PresetNarrow = RangePreset{Label: "±3%", Percent: 0.03}
	PresetMedium = RangePreset{Label: "±8%", Percent: 0.08}
	PresetWide   = RangePreset{Label: "±15%", Percent: 0.15}
	PresetFull   = RangePreset{Label: "Full range", FullRange: true}
)

// ResolvePreset turns a preset plus a center tick into an aligned
// TickRange.
//
// The candidate band is [center + round(ln(1−p)/ln(1.0001)),
// center + round(ln(1+p)/ln(1.0001))]. The lower bound aligns upward and
// the upper bound downward so alignment never widens the band past the
// user's intent, then both clamp into the global bounds.
func ResolvePreset(preset RangePreset, centerTick, spacing int) (TickRange, error) {
	if preset.FullRange {
		return FullRange(spacing), nil
	}
	if preset.Percent <= 0 || preset.Percent >= 1 {
		return TickRange{}, apperror.Validation(apperror.CodeInvalidRange,
			fmt.Sprintf("preset percent %g outside (0, 1)", preset.Percent))
	}

	deltaUpper := int(math.Round(math.Log(1+preset.Percent) / lnTickBase))
	deltaLower := int(math.Round(math.Log(1-preset.Percent) / lnTickBase))

	lower := AlignTickToSpacing(centerTick+deltaLower, spacing, RoundUp)
	upper := AlignTickToSpacing(centerTick+deltaUpper, spacing, RoundDown)

	if upper-lower < spacing {
		return TickRange{}, apperror.Validation(apperror.CodeRangeTooNarrow,
			fmt.Sprintf("preset %s collapses to [%d, %d] at spacing %d",
				preset.Label, lower, upper, spacing))
	}

	return TickRange{Lower: lower, Upper: upper}, nil
}

// ResolvePresetAtPrice resolves a preset when the center tick is unknown
// but a center price is: the price seeds the center through PriceToTick.
func ResolvePresetAtPrice(preset RangePreset, centerPrice decimal.Decimal, quote, base *asset.Asset, ordering PoolOrdering, spacing int) (TickRange, error) {
	if preset.FullRange {
		return FullRange(spacing), nil
	}
	center, err := PriceToTick(centerPrice, quote, base, ordering)
	if err != nil {
		return TickRange{}, err
	}
	return ResolvePreset(preset, int(math.Round(center)), spacing)
}
