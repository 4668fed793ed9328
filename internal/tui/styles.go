// Package tui renders the profile page in the terminal, either as an
// interactive bubbletea program or as a one-shot string.
package tui

import "github.com/charmbracelet/lipgloss"

// Palette
var (
	colorAccent  = lipgloss.Color("#8BC34A")
	colorMuted   = lipgloss.Color("#8A93A3")
	colorTag     = lipgloss.Color("#2196F3")
	colorWarning = lipgloss.Color("#FFC107")
	colorDanger  = lipgloss.Color("#E53935")
	colorBorder  = lipgloss.Color("#2A3850")
)

// Styles holds every style the page renderer uses.
type Styles struct {
	Name         lipgloss.Style
	Headline     lipgloss.Style
	Muted        lipgloss.Style
	Button       lipgloss.Style
	SectionTitle lipgloss.Style
	Card         lipgloss.Style
	SelectedCard lipgloss.Style
	CardTitle    lipgloss.Style
	Tag          lipgloss.Style
	Badge        lipgloss.Style
	Placeholder  lipgloss.Style
	Notice       lipgloss.Style
	Loading      lipgloss.Style
	Help         lipgloss.Style
}

// DefaultStyles returns the coloured style set.
func DefaultStyles() Styles {
	return Styles{
		Name:         lipgloss.NewStyle().Bold(true).Foreground(colorAccent),
		Headline:     lipgloss.NewStyle().Italic(true),
		Muted:        lipgloss.NewStyle().Foreground(colorMuted),
		Button:       lipgloss.NewStyle().Foreground(colorMuted).Padding(0, 1).Border(lipgloss.NormalBorder(), false, true),
		SectionTitle: lipgloss.NewStyle().Bold(true).Underline(true).MarginTop(1),
		Card:         lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorBorder).Padding(0, 1),
		SelectedCard: lipgloss.NewStyle().Border(lipgloss.ThickBorder()).BorderForeground(colorAccent).Padding(0, 1),
		CardTitle:    lipgloss.NewStyle().Bold(true),
		Tag:          lipgloss.NewStyle().Foreground(colorTag),
		Badge:        lipgloss.NewStyle().Foreground(colorWarning).Bold(true),
		Placeholder:  lipgloss.NewStyle().Foreground(colorMuted).Italic(true),
		Notice:       lipgloss.NewStyle().Foreground(colorDanger).Bold(true),
		Loading:      lipgloss.NewStyle().Foreground(colorAccent),
		Help:         lipgloss.NewStyle().Foreground(colorMuted),
	}
}

// PlainStyles returns styles with no colour or borders, for --no-color and
// piped output.
func PlainStyles() Styles {
	plain := lipgloss.NewStyle()
	return Styles{
		Name:         plain,
		Headline:     plain,
		Muted:        plain,
		Button:       plain,
		SectionTitle: plain.MarginTop(1),
		Card:         plain.PaddingLeft(2),
		SelectedCard: plain.PaddingLeft(2),
		CardTitle:    plain,
		Tag:          plain,
		Badge:        plain,
		Placeholder:  plain.PaddingLeft(2),
		Notice:       plain,
		Loading:      plain,
		Help:         plain,
	}
}
