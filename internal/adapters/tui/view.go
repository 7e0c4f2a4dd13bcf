package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// View renders the dependency list.
//
//nolint:gocritic // hugeParam ignored
func (m Model) View() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("DEPENDENCIES") + "\n")

	for _, row := range m.Rows {
		var style lipgloss.Style
		var icon string

		switch row.Status {
		case StatusWorking:
			style = workingStyle
			icon = "●"
		case StatusCached:
			style = cachedStyle
			icon = "⚡"
		case StatusSkipped:
			style = skippedStyle
			icon = "○"
		default:
			style = doneStyle
			icon = "✓"
		}

		s.WriteString(style.Render(icon+" "+row.Name) + detailStyle.Render(row.Detail) + "\n")
	}

	if m.Err != nil {
		s.WriteString("\n" + errorStyle.Render(m.Err.Error()) + "\n")
	}

	return s.String()
}
