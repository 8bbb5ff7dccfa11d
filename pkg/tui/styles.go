package tui

import "github.com/charmbracelet/lipgloss"

// Styles holds all the lipgloss styles for the surfaces.
type Styles struct {
	// App-level styles
	App    lipgloss.Style
	Header lipgloss.Style
	Footer lipgloss.Style

	// Article styles
	ArticleTitle lipgloss.Style
	ArticleURL   lipgloss.Style

	// Input styles
	InputBox   lipgloss.Style
	InputLabel lipgloss.Style

	// Status styles
	Spinner lipgloss.Style
	Error   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Muted   lipgloss.Style
	Key     lipgloss.Style
}

// DefaultStyles returns the default style configuration.
func DefaultStyles() Styles {
	subtle := lipgloss.AdaptiveColor{Light: "#666666", Dark: "#888888"}
	highlight := lipgloss.AdaptiveColor{Light: "#7D56F4", Dark: "#AD8CFF"}
	special := lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	errorColor := lipgloss.AdaptiveColor{Light: "#FF5F5F", Dark: "#FF8888"}
	warning := lipgloss.AdaptiveColor{Light: "#C98A00", Dark: "#FFCC66"}

	return Styles{
		App: lipgloss.NewStyle().
			Padding(1, 2),

		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(highlight).
			MarginBottom(1),

		Footer: lipgloss.NewStyle().
			Foreground(subtle).
			MarginTop(1),

		ArticleTitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#1a1a1a", Dark: "#fafafa"}),

		ArticleURL: lipgloss.NewStyle().
			Foreground(subtle),

		InputBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(highlight).
			Padding(1, 2).
			Width(60),

		InputLabel: lipgloss.NewStyle().
			Bold(true).
			Foreground(highlight).
			MarginBottom(1),

		Spinner: lipgloss.NewStyle().
			Foreground(special),

		Error: lipgloss.NewStyle().
			Foreground(errorColor),

		Success: lipgloss.NewStyle().
			Foreground(special),

		Warning: lipgloss.NewStyle().
			Foreground(warning),

		Muted: lipgloss.NewStyle().
			Foreground(subtle),

		Key: lipgloss.NewStyle().
			Foreground(highlight),
	}
}
