package domain

import (
	"fmt"

	"github.com/fd1az/lp-deposit/internal/apperror"
	"github.com/fd1az/lp-deposit/internal/univ3"
)

// RoundMode selects the direction ticks are rounded when aligning to a
// spacing boundary.
type RoundMode int

const (
	RoundDown RoundMode = iota
	RoundUp
)

// TickRange is a half-open price band expressed as two ticks.
// Invariant: Lower < Upper, both inside the global tick bounds and
// multiples of the pool's tick spacing. Value type: replaced wholesale
// on every recalculation, never mutated in place.
type TickRange struct {
	Lower int
	Upper int
}

// NewTickRange validates and constructs a TickRange for the given spacing.
func NewTickRange(lower, upper, spacing int) (TickRange, error) {
	r := TickRange{Lower: lower, Upper: upper}
	if err := r.Validate(spacing); err != nil {
		return TickRange{}, err
	}
	return r, nil
}

// Validate checks the range invariants against the pool's tick spacing.
func (r TickRange) Validate(spacing int) error {
	if spacing <= 0 {
		return apperror.Validation(apperror.CodeInvalidRange,
			fmt.Sprintf("tick spacing %d must be positive", spacing))
	}
	if r.Lower >= r.Upper {
		return apperror.Validation(apperror.CodeInvalidRange,
			fmt.Sprintf("lower %d must be below upper %d", r.Lower, r.Upper))
	}
	if r.Lower < univ3.MinTick || r.Upper > univ3.MaxTick {
		return apperror.Validation(apperror.CodeInvalidRange,
			fmt.Sprintf("range [%d, %d] outside global bounds [%d, %d]",
				r.Lower, r.Upper, univ3.MinTick, univ3.MaxTick))
	}
	if r.Lower%spacing != 0 || r.Upper%spacing != 0 {
		return apperror.Validation(apperror.CodeInvalidRange,
			fmt.Sprintf("range [%d, %d] not aligned to spacing %d",
				r.Lower, r.Upper, spacing))
	}
	return nil
}

// Width returns the tick width of the range.
func (r TickRange) Width() int {
	return r.Upper - r.Lower
}

// IsFullRange reports whether the range spans the widest usable band for
// the given spacing.
func (r TickRange) IsFullRange(spacing int) bool {
	full := FullRange(spacing)
	return r == full
}

// Contains reports whether the tick lies inside the range.
func (r TickRange) Contains(tick int) bool {
	return tick >= r.Lower && tick < r.Upper
}

// String returns a human-readable representation.
func (r TickRange) String() string {
	return fmt.Sprintf("[%d, %d]", r.Lower, r.Upper)
}

// AlignTickToSpacing rounds the tick to a multiple of spacing in the
// requested direction, then clamps into the global tick bounds.
func AlignTickToSpacing(tick, spacing int, mode RoundMode) int {
	if spacing <= 0 {
		panic("pool: non-positive tick spacing")
	}

	q := tick / spacing
	rem := tick % spacing
	switch mode {
	case RoundUp:
		if rem > 0 {
			q++
		}
	default:
		if rem < 0 {
			q--
		}
	}
	aligned := q * spacing

	if aligned < univ3.MinTick {
		aligned = AlignTickToSpacing(univ3.MinTick, spacing, RoundUp)
	}
	if aligned > univ3.MaxTick {
		aligned = AlignTickToSpacing(univ3.MaxTick, spacing, RoundDown)
	}
	return aligned
}

// FullRange returns the widest range usable with the given spacing:
// global bounds aligned inward so both ticks stay usable.
func FullRange(spacing int) TickRange {
	return TickRange{
		Lower: AlignTickToSpacing(univ3.MinTick, spacing, RoundUp),
		Upper: AlignTickToSpacing(univ3.MaxTick, spacing, RoundDown),
	}
}
