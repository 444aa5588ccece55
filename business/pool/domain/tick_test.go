package domain

import (
	"testing"

	"github.com/fd1az/lp-deposit/internal/apperror"
	"github.com/fd1az/lp-deposit/internal/univ3"
)

func TestAlignTickToSpacing(t *testing.T) {
	tests := []struct {
		name    string
		tick    int
		spacing int
		mode    RoundMode
		want    int
	}{
		{"already aligned down", 120, 60, RoundDown, 120},
		{"already aligned up", 120, 60, RoundUp, 120},
		{"positive down", 125, 60, RoundDown, 120},
		{"positive up", 125, 60, RoundUp, 180},
		{"negative down", -125, 60, RoundDown, -180},
		{"negative up", -125, 60, RoundUp, -120},
		{"zero", 0, 60, RoundUp, 0},
		{"clamps at min", univ3.MinTick, 60, RoundDown, -887220},
		{"clamps at max", univ3.MaxTick, 60, RoundUp, 887220},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AlignTickToSpacing(tt.tick, tt.spacing, tt.mode)
			if got != tt.want {
				t.Errorf("AlignTickToSpacing(%d, %d) = %d, want %d", tt.tick, tt.spacing, got, tt.want)
			}
		})
	}
}

func TestAlignTickToSpacing_Idempotent(t *testing.T) {
	for _, tick := range []int{-887272, -125, -1, 0, 1, 125, 887272} {
		for _, spacing := range []int{1, 10, 60, 200} {
			for _, mode := range []RoundMode{RoundDown, RoundUp} {
				once := AlignTickToSpacing(tick, spacing, mode)
				twice := AlignTickToSpacing(once, spacing, mode)
				if once != twice {
					t.Errorf("align(%d, %d, %v) not idempotent: %d then %d", tick, spacing, mode, once, twice)
				}
			}
		}
	}
}

func TestTickRange_Validate(t *testing.T) {
	tests := []struct {
		name     string
		lower    int
		upper    int
		spacing  int
		wantCode apperror.Code
	}{
		{"valid", -120, 180, 60, ""},
		{"inverted", 180, -120, 60, apperror.CodeInvalidRange},
		{"equal", 60, 60, 60, apperror.CodeInvalidRange},
		{"below global min", univ3.MinTick - 60, 0, 60, apperror.CodeInvalidRange},
		{"above global max", 0, univ3.MaxTick + 60, 60, apperror.CodeInvalidRange},
		{"unaligned lower", -125, 180, 60, apperror.CodeInvalidRange},
		{"unaligned upper", -120, 185, 60, apperror.CodeInvalidRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTickRange(tt.lower, tt.upper, tt.spacing)
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !apperror.IsCode(err, tt.wantCode) {
				t.Errorf("error = %v, want code %s", err, tt.wantCode)
			}
		})
	}
}

func TestFullRange(t *testing.T) {
	r := FullRange(60)
	if r.Lower != -887220 || r.Upper != 887220 {
		t.Errorf("full range at spacing 60 = %s, want [-887220, 887220]", r)
	}
	if err := r.Validate(60); err != nil {
		t.Errorf("full range fails its own invariants: %v", err)
	}
	if !r.IsFullRange(60) {
		t.Error("IsFullRange(60) = false for FullRange(60)")
	}
}
