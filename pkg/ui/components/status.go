package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// pipeline is the deposit flow in display order. A given deposit may
// skip stages; skipped stages render as passed.
var pipeline = []struct {
	phase string
	label string
}{
	{"input", "Input"},
	{"approving", "Approve"},
	{"permit_signing", "Permit"},
	{"minting", "Mint"},
	{"done", "Done"},
}

// StatusComponent renders the deposit flow pipeline with the current
// phase highlighted.
type StatusComponent struct {
	phase string
}

// NewStatusComponent creates a status component starting at input.
func NewStatusComponent() *StatusComponent {
	return &StatusComponent{phase: "input"}
}

// SetPhase updates the current phase.
func (s *StatusComponent) SetPhase(phase string) {
	s.phase = phase
}

// Phase returns the current phase.
func (s *StatusComponent) Phase() string {
	return s.phase
}

// View renders the pipeline, e.g. "Input → [Approve] → Permit → Mint → Done".
func (s *StatusComponent) View() string {
	currentStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F59E0B"))
	passedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	futureStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	idx := 0
	for i, stage := range pipeline {
		if stage.phase == s.phase {
			idx = i
			break
		}
	}

	parts := make([]string, 0, len(pipeline))
	for i, stage := range pipeline {
		switch {
		case i == idx:
			parts = append(parts, currentStyle.Render("["+stage.label+"]"))
		case i < idx:
			parts = append(parts, passedStyle.Render(stage.label))
		default:
			parts = append(parts, futureStyle.Render(stage.label))
		}
	}

	return strings.Join(parts, futureStyle.Render(" → "))
}
