package ethereum

import (
	"context"
	"math/big"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/lp-deposit/business/pool/app"
	"github.com/fd1az/lp-deposit/business/pool/domain"
	"github.com/fd1az/lp-deposit/internal/apperror"
	"github.com/fd1az/lp-deposit/internal/asset"
	"github.com/fd1az/lp-deposit/internal/logger"
	"github.com/fd1az/lp-deposit/internal/univ3"
)

// Ensure Calculator implements LiquidityCalculator.
var _ app.LiquidityCalculator = (*Calculator)(nil)

// Calculator derives paired amounts locally from pool state using the
// Q96 liquidity math, with no external quote service.
type Calculator struct {
	reader app.PoolStateReader
	logger logger.LoggerInterface
	tracer trace.Tracer
}

// NewCalculator creates an on-node liquidity calculator.
func NewCalculator(reader app.PoolStateReader, log logger.LoggerInterface) *Calculator {
	return &Calculator{
		reader: reader,
		logger: log,
		tracer: otel.Tracer(tracerName),
	}
}

// ComputePairedAmount reads the pool state and derives the other side
// of a one-sided deposit over the requested range.
func (c *Calculator) ComputePairedAmount(ctx context.Context, req app.CalcRequest) (*domain.LiquidityQuote, error) {
	ctx, span := c.tracer.Start(ctx, "pool.compute_paired_amount",
		trace.WithAttributes(
			attribute.String("input_token", req.InputAmount.Asset().Symbol()),
			attribute.String("input_amount", req.InputAmount.Raw().String()),
			attribute.Int("tick_lower", req.Range.Lower),
			attribute.Int("tick_upper", req.Range.Upper),
		),
	)
	defer span.End()

	state, err := c.reader.ReadState(ctx, req.Ordering)
	if err != nil {
		span.SetStatus(codes.Error, "pool state read failed")
		return nil, err
	}

	sqrtLower, err := univ3.SqrtRatioAtTick(req.Range.Lower)
	if err != nil {
		return nil, apperror.Internal(apperror.CodeCalculationFailed, "sqrt ratio at lower tick", err)
	}
	sqrtUpper, err := univ3.SqrtRatioAtTick(req.Range.Upper)
	if err != nil {
		return nil, apperror.Internal(apperror.CodeCalculationFailed, "sqrt ratio at upper tick", err)
	}
	sqrtCurrent := state.SqrtPriceX96

	inputIs0 := req.Ordering.IsCanonical0(req.InputAmount.Asset())
	liquidity, pairedRaw, err := pairAmounts(sqrtCurrent, sqrtLower, sqrtUpper, req.InputAmount.Raw(), inputIs0)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	paired := pairedToken(req.Ordering, req.InputAmount.Asset())
	quote := &domain.LiquidityQuote{
		InputToken:       req.InputAmount.Asset(),
		PairedToken:      paired,
		InputAmount:      req.InputAmount,
		PairedAmount:     asset.NewAmount(paired, pairedRaw),
		Liquidity:        liquidity,
		CurrentTick:      state.CurrentTick,
		CurrentPrice:     state.CurrentPrice,
		PriceAtTickLower: domain.TickToPrice(req.Range.Lower, req.Ordering.Canonical0(), req.Ordering.Canonical1(), req.Ordering),
		PriceAtTickUpper: domain.TickToPrice(req.Range.Upper, req.Ordering.Canonical0(), req.Ordering.Canonical1(), req.Ordering),
		ComputedAt:       state.ObservedAt,
	}

	span.SetAttributes(
		attribute.String("paired_amount", pairedRaw.String()),
		attribute.String("liquidity", liquidity.String()),
	)
	span.SetStatus(codes.Ok, "paired amount computed")

	c.logger.Debug(ctx, "paired amount computed",
		"input", req.InputAmount.String(),
		"paired", quote.PairedAmount.String(),
		"liquidity", liquidity.String(),
		"current_tick", state.CurrentTick,
	)

	return quote, nil
}

// pairAmounts derives the liquidity implied by the one-sided input and
// the raw amount of the other token required alongside it. A range
// entirely on the wrong side of the current price cannot absorb the
// input token at all; that is an invalid quote, not a zero.
func pairAmounts(sqrtCurrent, sqrtLower, sqrtUpper, inputRaw *big.Int, inputIs0 bool) (liquidity, paired *big.Int, err error) {
	switch {
	case inputIs0 && sqrtCurrent.Cmp(sqrtUpper) >= 0:
		return nil, nil, apperror.Validation(apperror.CodeInvalidQuote,
			"range below current price holds only token1; token0 input cannot be placed")
	case !inputIs0 && sqrtCurrent.Cmp(sqrtLower) <= 0:
		return nil, nil, apperror.Validation(apperror.CodeInvalidQuote,
			"range above current price holds only token0; token1 input cannot be placed")
	}

	if inputIs0 {
		// Token0 occupies [max(current, lower), upper].
		from := sqrtCurrent
		if from.Cmp(sqrtLower) < 0 {
			from = sqrtLower
		}
		liquidity = univ3.LiquidityForAmount0(from, sqrtUpper, inputRaw)

		// Token1 backs [lower, current] only when the range is active.
		// Rounded up: quoting less than the mint needs would understate
		// the deposit.
		if sqrtCurrent.Cmp(sqrtLower) > 0 {
			paired = univ3.Amount1ForLiquidityRoundingUp(sqrtLower, sqrtCurrent, liquidity)
		} else {
			paired = new(big.Int)
		}
		return liquidity, paired, nil
	}

	to := sqrtCurrent
	if to.Cmp(sqrtUpper) > 0 {
		to = sqrtUpper
	}
	liquidity = univ3.LiquidityForAmount1(sqrtLower, to, inputRaw)

	if sqrtCurrent.Cmp(sqrtUpper) < 0 {
		paired = univ3.Amount0ForLiquidityRoundingUp(sqrtCurrent, sqrtUpper, liquidity)
	} else {
		paired = new(big.Int)
	}
	return liquidity, paired, nil
}

func pairedToken(ordering domain.PoolOrdering, input *asset.Asset) *asset.Asset {
	if ordering.IsCanonical0(input) {
		return ordering.Canonical1()
	}
	return ordering.Canonical0()
}
