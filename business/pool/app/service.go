package app

import (
	"context"

	"github.com/fd1az/lp-deposit/business/pool/domain"
	"github.com/fd1az/lp-deposit/internal/apperror"
	"github.com/fd1az/lp-deposit/internal/asset"
	"github.com/fd1az/lp-deposit/internal/logger"
)

// PoolService coordinates pool-state reads, preset resolution, and
// paired-amount calculation for one configured pool.
type PoolService struct {
	ordering    domain.PoolOrdering
	tickSpacing int

	reader PoolStateReader
	calc   LiquidityCalculator
	logger logger.LoggerInterface
}

// NewPoolService creates a PoolService for one pool.
func NewPoolService(ordering domain.PoolOrdering, tickSpacing int, reader PoolStateReader, calc LiquidityCalculator, log logger.LoggerInterface) *PoolService {
	return &PoolService{
		ordering:    ordering,
		tickSpacing: tickSpacing,
		reader:      reader,
		calc:        calc,
		logger:      log,
	}
}

// Ordering returns the pool's canonical token ordering.
func (s *PoolService) Ordering() domain.PoolOrdering { return s.ordering }

// TickSpacing returns the pool's tick spacing.
func (s *PoolService) TickSpacing() int { return s.tickSpacing }

// State reads the current pool state from chain.
func (s *PoolService) State(ctx context.Context) (*domain.PoolState, error) {
	state, err := s.reader.ReadState(ctx, s.ordering)
	if err != nil {
		return nil, err
	}
	s.logger.Debug(ctx, "pool state",
		"tick", state.CurrentTick,
		"price", state.CurrentPrice.String(),
	)
	return state, nil
}

// ResolvePreset resolves a range preset against the pool's live center
// tick and spacing.
func (s *PoolService) ResolvePreset(ctx context.Context, preset domain.RangePreset) (domain.TickRange, error) {
	if preset.FullRange {
		return domain.FullRange(s.tickSpacing), nil
	}
	state, err := s.State(ctx)
	if err != nil {
		return domain.TickRange{}, err
	}
	return domain.ResolvePreset(preset, state.CurrentTick, s.tickSpacing)
}

// QuotePairedAmount derives the other side of a one-sided deposit over
// the given range. The input amount's asset must belong to the pool.
func (s *PoolService) QuotePairedAmount(ctx context.Context, input asset.Amount, r domain.TickRange) (*domain.LiquidityQuote, error) {
	if !s.ordering.Contains(input.Asset()) {
		return nil, apperror.Validation(apperror.CodeInvalidQuote,
			"input token is not a member of the pool pair")
	}
	if err := r.Validate(s.tickSpacing); err != nil {
		return nil, err
	}

	quote, err := s.calc.ComputePairedAmount(ctx, CalcRequest{
		Ordering:    s.ordering,
		InputAmount: input,
		Range:       r,
	})
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeCalculationFailed, "paired amount calculation")
	}

	s.logger.Debug(ctx, "paired amount",
		"input", quote.InputAmount.String(),
		"paired", quote.PairedAmount.String(),
		"liquidity", quote.Liquidity.String(),
		"range", r.String(),
	)
	return quote, nil
}
