// Package components provides reusable TUI components.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	pooldomain "github.com/fd1az/lp-deposit/business/pool/domain"
)

// QuoteComponent renders the current pool price, the selected range,
// and the derived paired amount.
type QuoteComponent struct {
	pair    string
	spacing int

	state      *pooldomain.PoolState
	tickRange  *pooldomain.TickRange
	rangeLabel string
	quote      *pooldomain.LiquidityQuote
	pending    bool
	quoteErr   error
}

// NewQuoteComponent creates a quote component for the given pair label
// and pool tick spacing.
func NewQuoteComponent(pair string, spacing int) *QuoteComponent {
	return &QuoteComponent{pair: pair, spacing: spacing}
}

// SetState updates the latest pool state.
func (q *QuoteComponent) SetState(state *pooldomain.PoolState) {
	q.state = state
}

// SetRange updates the selected tick range and its preset label.
func (q *QuoteComponent) SetRange(r pooldomain.TickRange, label string) {
	q.tickRange = &r
	q.rangeLabel = label
}

// SetQuote records a completed paired-amount computation.
func (q *QuoteComponent) SetQuote(quote *pooldomain.LiquidityQuote, err error) {
	q.quote = quote
	q.quoteErr = err
	q.pending = false
}

// SetPending marks a computation as in flight.
func (q *QuoteComponent) SetPending() {
	q.pending = true
}

// Clear drops the quote but keeps pool state and range.
func (q *QuoteComponent) Clear() {
	q.quote = nil
	q.quoteErr = nil
	q.pending = false
}

// View renders the quote panel.
func (q *QuoteComponent) View() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	mutedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))

	var sb strings.Builder
	sb.WriteString(headerStyle.Render("POOL " + q.pair))
	sb.WriteString("\n\n")

	if q.state == nil {
		sb.WriteString(mutedStyle.Render("  Reading pool state..."))
		return sb.String()
	}

	sb.WriteString(fmt.Sprintf("  Price: %s  %s\n",
		valueStyle.Render(q.state.CurrentPrice.String()),
		mutedStyle.Render(fmt.Sprintf("(tick %d)", q.state.CurrentTick)),
	))

	if q.tickRange != nil {
		label := q.rangeLabel
		if q.tickRange.IsFullRange(q.spacing) {
			label = "full range"
		}
		sb.WriteString(fmt.Sprintf("  Range: [%d, %d]  %s\n",
			q.tickRange.Lower, q.tickRange.Upper,
			mutedStyle.Render(label),
		))
	}

	if q.quote != nil {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("  In:     %s\n", q.quote.InputAmount.DisplayString()))
		sb.WriteString(fmt.Sprintf("  Paired: %s\n", valueStyle.Render(q.quote.PairedAmount.DisplayString())))
		sb.WriteString(mutedStyle.Render(fmt.Sprintf("  Bounds: %s – %s\n",
			q.quote.PriceAtTickLower.String(), q.quote.PriceAtTickUpper.String())))
	}

	switch {
	case q.pending:
		sb.WriteString(mutedStyle.Render("\n  Computing paired amount..."))
	case q.quoteErr != nil:
		sb.WriteString(errStyle.Render("\n  " + q.quoteErr.Error()))
	}

	return sb.String()
}
