package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ChecklistRow is one token's authorization status.
type ChecklistRow struct {
	Symbol   string
	Complete bool
}

// ChecklistComponent renders per-token authorization progress.
type ChecklistComponent struct {
	rows []ChecklistRow
}

// NewChecklistComponent creates an empty checklist.
func NewChecklistComponent() *ChecklistComponent {
	return &ChecklistComponent{}
}

// Update replaces the checklist rows.
func (c *ChecklistComponent) Update(rows []ChecklistRow) {
	c.rows = rows
}

// Clear empties the checklist.
func (c *ChecklistComponent) Clear() {
	c.rows = nil
}

// Completed returns how many rows are complete.
func (c *ChecklistComponent) Completed() int {
	n := 0
	for _, row := range c.rows {
		if row.Complete {
			n++
		}
	}
	return n
}

// View renders the checklist.
func (c *ChecklistComponent) View() string {
	if len(c.rows) == 0 {
		return ""
	}

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	doneStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	pendingStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	var sb strings.Builder
	sb.WriteString(headerStyle.Render(fmt.Sprintf("AUTHORIZATIONS %d/%d", c.Completed(), len(c.rows))))
	sb.WriteString("\n\n")

	for _, row := range c.rows {
		if row.Complete {
			sb.WriteString(doneStyle.Render(fmt.Sprintf("  ✓ %s authorized", row.Symbol)))
		} else {
			sb.WriteString(pendingStyle.Render(fmt.Sprintf("  ○ %s pending", row.Symbol)))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
