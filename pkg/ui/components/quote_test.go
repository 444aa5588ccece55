package components

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	pooldomain "github.com/fd1az/lp-deposit/business/pool/domain"
)

func testPoolState() *pooldomain.PoolState {
	return &pooldomain.PoolState{
		CurrentTick:  200311,
		CurrentPrice: pooldomain.NewDisplayPrice(decimal.RequireFromString("2000")),
	}
}

func TestQuoteComponent_FullRangeLabel(t *testing.T) {
	const spacing = 60

	q := NewQuoteComponent("WETH/USDC", spacing)
	q.SetState(testPoolState())
	q.SetRange(pooldomain.FullRange(spacing), "Full")

	view := q.View()
	if !strings.Contains(view, "full range") {
		t.Errorf("view missing full range label:\n%s", view)
	}
}

func TestQuoteComponent_PresetLabel(t *testing.T) {
	const spacing = 60

	q := NewQuoteComponent("WETH/USDC", spacing)
	q.SetState(testPoolState())
	q.SetRange(pooldomain.TickRange{Lower: 199500, Upper: 201060}, "Medium")

	view := q.View()
	if !strings.Contains(view, "Medium") {
		t.Errorf("view missing preset label:\n%s", view)
	}
	if strings.Contains(view, "full range") {
		t.Errorf("partial range labelled full range:\n%s", view)
	}
}
