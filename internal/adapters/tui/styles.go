package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorSlate = lipgloss.Color("#667085")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			PaddingBottom(1)

	workingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("33")). // Blue
			Bold(true)

	cachedStyle = lipgloss.NewStyle().
			Foreground(colorSlate).
			Faint(true)

	skippedStyle = lipgloss.NewStyle().
			Foreground(colorSlate)

	doneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")) // Green

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // Red

	detailStyle = lipgloss.NewStyle().
			Foreground(colorSlate).
			PaddingLeft(1)
)
