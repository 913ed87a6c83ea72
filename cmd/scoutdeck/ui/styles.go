// Package ui is the interactive terminal explorer: a filterable program
// table with a detail pane and AI recommendations.
package ui

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary = lipgloss.Color("#2196F3")
	colorAccent  = lipgloss.Color("#8BC34A")
	colorWarning = lipgloss.Color("#FFC107")
	colorError   = lipgloss.Color("#e53935")
	colorMuted   = lipgloss.Color("#6c7a89")
	colorBorder  = lipgloss.Color("#3a4a5a")
)

// Styles holds the styled components for the explorer.
type Styles struct {
	Header  lipgloss.Style
	Footer  lipgloss.Style
	Content lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
	Badge   lipgloss.Style
	Filter  lipgloss.Style
	Focused lipgloss.Style
}

// DefaultStyles builds the default style set.
func DefaultStyles() Styles {
	return Styles{
		Header: lipgloss.NewStyle().
			Background(colorPrimary).
			Foreground(lipgloss.Color("#ffffff")).
			Padding(0, 2).
			Bold(true),
		Footer: lipgloss.NewStyle().
			Foreground(colorMuted).
			Padding(0, 2),
		Content: lipgloss.NewStyle().
			Padding(0, 1),
		Muted: lipgloss.NewStyle().
			Foreground(colorMuted),
		Success: lipgloss.NewStyle().
			Foreground(colorAccent),
		Error: lipgloss.NewStyle().
			Foreground(colorError),
		Badge: lipgloss.NewStyle().
			Foreground(colorWarning).
			Bold(true),
		Filter: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1),
		Focused: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorPrimary).
			Padding(0, 1),
	}
}
