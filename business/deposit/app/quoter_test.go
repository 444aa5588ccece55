package app

import (
	"context"
	"sync"
	"testing"
	"time"

	pooldomain "github.com/fd1az/lp-deposit/business/pool/domain"
	"github.com/fd1az/lp-deposit/internal/asset"
)

// slowQuoteService answers after a fixed delay, echoing the input.
type slowQuoteService struct {
	delay time.Duration

	mu    sync.Mutex
	calls int
}

func (s *slowQuoteService) QuotePairedAmount(ctx context.Context, input asset.Amount, r pooldomain.TickRange) (*pooldomain.LiquidityQuote, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	time.Sleep(s.delay)
	return &pooldomain.LiquidityQuote{InputToken: input.Asset(), InputAmount: input}, nil
}

func (s *slowQuoteService) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestQuoter_DebouncesKeystrokes(t *testing.T) {
	svc := &slowQuoteService{}
	var results []QuoteResult
	var mu sync.Mutex

	q := NewQuoter(svc, 30*time.Millisecond, testLogger(), func(res QuoteResult) {
		mu.Lock()
		results = append(results, res)
		mu.Unlock()
	})

	r := pooldomain.TickRange{Lower: -60, Upper: 60}
	ctx := context.Background()

	// Three rapid keystrokes inside one quiet period: only the last
	// fires a request.
	for _, raw := range []string{"1", "10", "100"} {
		amt, err := asset.ParseString(tokenA, raw)
		if err != nil {
			t.Fatal(err)
		}
		q.Request(ctx, amt, r)
		time.Sleep(5 * time.Millisecond)
	}

	time.Sleep(100 * time.Millisecond)

	if n := svc.callCount(); n != 1 {
		t.Errorf("service called %d times, want 1", n)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(results) != 1 {
		t.Fatalf("applied %d results, want 1", len(results))
	}
	if got := results[0].Quote.InputAmount.ToDecimal().String(); got != "100" {
		t.Errorf("applied amount = %s, want the last keystroke (100)", got)
	}
}

func TestQuoter_DropsSupersededResult(t *testing.T) {
	// The first request's result arrives after a second request has
	// been issued; it must be discarded by generation comparison.
	svc := &slowQuoteService{delay: 50 * time.Millisecond}
	var results []QuoteResult
	var mu sync.Mutex

	q := NewQuoter(svc, time.Millisecond, testLogger(), func(res QuoteResult) {
		mu.Lock()
		results = append(results, res)
		mu.Unlock()
	})

	r := pooldomain.TickRange{Lower: -60, Upper: 60}
	ctx := context.Background()

	first, _ := asset.ParseString(tokenA, "1")
	q.Request(ctx, first, r)

	// Let the first request start its (slow) service call.
	time.Sleep(20 * time.Millisecond)

	second, _ := asset.ParseString(tokenA, "2")
	gen := q.Request(ctx, second, r)

	time.Sleep(150 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(results) != 1 {
		t.Fatalf("applied %d results, want only the current one", len(results))
	}
	if results[0].Generation != gen {
		t.Errorf("applied generation %d, want %d", results[0].Generation, gen)
	}
	if got := results[0].Quote.InputAmount.ToDecimal().String(); got != "2" {
		t.Errorf("applied amount = %s, want 2", got)
	}
}

func TestQuoter_CancelDropsPending(t *testing.T) {
	svc := &slowQuoteService{}
	var applied int
	var mu sync.Mutex

	q := NewQuoter(svc, 20*time.Millisecond, testLogger(), func(QuoteResult) {
		mu.Lock()
		applied++
		mu.Unlock()
	})

	amt, _ := asset.ParseString(tokenA, "1")
	q.Request(context.Background(), amt, pooldomain.TickRange{Lower: -60, Upper: 60})
	q.Cancel()

	time.Sleep(80 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if applied != 0 {
		t.Errorf("cancelled request applied %d results, want 0", applied)
	}
}
