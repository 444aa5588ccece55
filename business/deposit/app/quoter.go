package app

import (
	"context"
	"sync"
	"time"

	pooldomain "github.com/fd1az/lp-deposit/business/pool/domain"
	"github.com/fd1az/lp-deposit/internal/asset"
	"github.com/fd1az/lp-deposit/internal/logger"
)

// PairedAmountQuoter is the slice of the pool context the quoter needs.
// The pool service satisfies it.
type PairedAmountQuoter interface {
	QuotePairedAmount(ctx context.Context, input asset.Amount, r pooldomain.TickRange) (*pooldomain.LiquidityQuote, error)
}

// QuoteResult delivers one debounced computation to the apply callback.
type QuoteResult struct {
	Generation uint64
	Quote      *pooldomain.LiquidityQuote
	Err        error
}

// Quoter coalesces keystroke-driven paired-amount recomputation with a
// quiet-period delay so a network request is not issued per keystroke.
// Only the most recent request's result is applied: a result that
// arrives for a superseded input is discarded by generation comparison,
// not by cancelling the network call itself.
type Quoter struct {
	mu         sync.Mutex
	generation uint64
	timer      *time.Timer

	service PairedAmountQuoter
	quiet   time.Duration
	apply   func(QuoteResult)
	logger  logger.LoggerInterface
}

// NewQuoter creates a debounced quoter. apply runs on the quoter's
// goroutine once a still-current result arrives.
func NewQuoter(service PairedAmountQuoter, quiet time.Duration, log logger.LoggerInterface, apply func(QuoteResult)) *Quoter {
	return &Quoter{
		service: service,
		quiet:   quiet,
		apply:   apply,
		logger:  log,
	}
}

// Request schedules a recomputation after the quiet period, superseding
// any pending one. Returns the new generation.
func (q *Quoter) Request(ctx context.Context, input asset.Amount, r pooldomain.TickRange) uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.generation++
	gen := q.generation

	if q.timer != nil {
		q.timer.Stop()
	}
	q.timer = time.AfterFunc(q.quiet, func() {
		q.run(ctx, gen, input, r)
	})
	return gen
}

// Cancel drops any pending computation and invalidates in-flight ones.
func (q *Quoter) Cancel() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.generation++
	if q.timer != nil {
		q.timer.Stop()
		q.timer = nil
	}
}

// Generation returns the current generation counter.
func (q *Quoter) Generation() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.generation
}

func (q *Quoter) run(ctx context.Context, gen uint64, input asset.Amount, r pooldomain.TickRange) {
	if !q.isCurrent(gen) {
		return
	}

	quote, err := q.service.QuotePairedAmount(ctx, input, r)

	if !q.isCurrent(gen) {
		// Superseded while the request was in flight; drop the result.
		q.logger.Debug(ctx, "stale quote dropped", "generation", gen)
		return
	}
	q.apply(QuoteResult{Generation: gen, Quote: quote, Err: err})
}

func (q *Quoter) isCurrent(gen uint64) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return gen == q.generation
}
