// Package ui provides the visual styling for the medbot terminal client.
package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Semantic colors, shared by both themes.
var (
	Good    = lipgloss.Color("#34C759")
	Bad     = lipgloss.Color("#E53935")
	Neutral = lipgloss.Color("#FFC107")
)

// Theme holds one color scheme. The dark palette follows the desktop app's
// default config; light flips to the panel colors.
type Theme struct {
	Background lipgloss.Color
	Foreground lipgloss.Color
	Accent     lipgloss.Color
	Muted      lipgloss.Color
	Border     lipgloss.Color
	Panel      lipgloss.Color
	IsDark     bool
}

// DarkTheme returns the default dark scheme.
func DarkTheme() Theme {
	return Theme{
		Background: lipgloss.Color("#0F1F2E"),
		Foreground: lipgloss.Color("#F7F9FC"),
		Accent:     lipgloss.Color("#0A84FF"),
		Muted:      lipgloss.Color("#566274"),
		Border:     lipgloss.Color("#2A3850"),
		Panel:      lipgloss.Color("#16293C"),
		IsDark:     true,
	}
}

// LightTheme returns the light scheme.
func LightTheme() Theme {
	return Theme{
		Background: lipgloss.Color("#F7F9FC"),
		Foreground: lipgloss.Color("#1E2735"),
		Accent:     lipgloss.Color("#0A84FF"),
		Muted:      lipgloss.Color("#566274"),
		Border:     lipgloss.Color("#D5DCE6"),
		Panel:      lipgloss.Color("#FFFFFF"),
		IsDark:     false,
	}
}

// ThemeByName resolves a configured theme name, defaulting to dark.
func ThemeByName(name string) Theme {
	if name == "light" {
		return LightTheme()
	}
	return DarkTheme()
}

// Styles holds the styled components used by the chat view.
type Styles struct {
	Theme Theme

	Header lipgloss.Style
	Badge  lipgloss.Style
	Muted  lipgloss.Style

	TabActive   lipgloss.Style
	TabInactive lipgloss.Style

	UserLabel  lipgloss.Style
	BotLabel   lipgloss.Style
	SystemText lipgloss.Style

	StatusGood    lipgloss.Style
	StatusBad     lipgloss.Style
	StatusNeutral lipgloss.Style

	Pane         lipgloss.Style
	PaneTitle    lipgloss.Style
	CaseSelected lipgloss.Style
	CaseItem     lipgloss.Style
	DetailField  lipgloss.Style

	Composer lipgloss.Style
}

// NewStyles creates the style set for a theme.
func NewStyles(theme Theme) Styles {
	return Styles{
		Theme: theme,

		Header: lipgloss.NewStyle().
			Background(theme.Accent).
			Foreground(lipgloss.Color("#FFFFFF")).
			Padding(0, 2).
			Bold(true),

		Badge: lipgloss.NewStyle().
			Background(theme.Panel).
			Foreground(theme.Foreground).
			Padding(0, 1),

		Muted: lipgloss.NewStyle().
			Foreground(theme.Muted),

		TabActive: lipgloss.NewStyle().
			Background(theme.Accent).
			Foreground(lipgloss.Color("#FFFFFF")).
			Padding(0, 1).
			Bold(true),

		TabInactive: lipgloss.NewStyle().
			Background(theme.Panel).
			Foreground(theme.Muted).
			Padding(0, 1),

		UserLabel: lipgloss.NewStyle().
			Foreground(theme.Accent).
			Bold(true),

		BotLabel: lipgloss.NewStyle().
			Foreground(Good).
			Bold(true),

		SystemText: lipgloss.NewStyle().
			Foreground(Bad).
			Italic(true),

		StatusGood:    lipgloss.NewStyle().Foreground(Good).Bold(true),
		StatusBad:     lipgloss.NewStyle().Foreground(Bad).Bold(true),
		StatusNeutral: lipgloss.NewStyle().Foreground(Neutral).Bold(true),

		Pane: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border).
			Padding(0, 1),

		PaneTitle: lipgloss.NewStyle().
			Foreground(theme.Foreground).
			Bold(true),

		CaseSelected: lipgloss.NewStyle().
			Background(theme.Accent).
			Foreground(lipgloss.Color("#FFFFFF")),

		CaseItem: lipgloss.NewStyle().
			Foreground(theme.Foreground),

		DetailField: lipgloss.NewStyle().
			Foreground(theme.Accent).
			Bold(true),

		Composer: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Accent).
			Padding(0, 1),
	}
}

// RenderDivider returns a horizontal divider of the given width.
func (s Styles) RenderDivider(width int) string {
	if width < 1 {
		width = 1
	}
	return s.Muted.Render(strings.Repeat("─", width))
}
