package ui

import (
	"os"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/lipgloss"
)

// TermProfile holds the detected terminal color profile. Computed once at
// package init so every style helper can branch without re-detecting.
var TermProfile colorprofile.Profile

func init() {
	TermProfile = colorprofile.Detect(os.Stdout, os.Environ())
}

// ThemeFg returns the given hex color for ANSI256+ terminals and a safe
// ANSI white (color 7) for 16-color or lower terminals.
func ThemeFg(hex string) lipgloss.TerminalColor {
	if hex == "" || TermProfile < colorprofile.ANSI256 {
		return lipgloss.ANSIColor(7)
	}
	return lipgloss.Color(hex)
}

// Theme groups the colors and pre-built styles used by the views.
type Theme struct {
	Renderer *lipgloss.Renderer

	Primary   lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor
	Subtext   lipgloss.AdaptiveColor
	Border    lipgloss.AdaptiveColor
	Highlight lipgloss.AdaptiveColor
	Muted     lipgloss.AdaptiveColor

	Marked lipgloss.AdaptiveColor // flagged points
	Picked lipgloss.AdaptiveColor // points in the pending selection set
	Band   lipgloss.AdaptiveColor // band headers
	Error  lipgloss.AdaptiveColor
	Ok     lipgloss.AdaptiveColor

	Base       lipgloss.Style
	Selected   lipgloss.Style
	Header     lipgloss.Style
	BandHeader lipgloss.Style
	MarkedText lipgloss.Style
	PickedText lipgloss.Style
	MutedText  lipgloss.Style
	ValueText  lipgloss.Style
	StatusOk   lipgloss.Style
	StatusErr  lipgloss.Style
	PromptText lipgloss.Style
}

// DefaultTheme returns the Dracula-inspired adaptive theme.
func DefaultTheme(r *lipgloss.Renderer) Theme {
	t := Theme{
		Renderer: r,

		Primary:   lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"},
		Secondary: lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"},
		Subtext:   lipgloss.AdaptiveColor{Light: "#666666", Dark: "#BFBFBF"},
		Border:    lipgloss.AdaptiveColor{Light: "#AAAAAA", Dark: "#44475A"},
		Highlight: lipgloss.AdaptiveColor{Light: "#E0E0E0", Dark: "#44475A"},
		Muted:     lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"},

		Marked: lipgloss.AdaptiveColor{Light: "#B06800", Dark: "#FFB86C"},
		Picked: lipgloss.AdaptiveColor{Light: "#006080", Dark: "#8BE9FD"},
		Band:   lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"},
		Error:  lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"},
		Ok:     lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"},
	}

	t.Base = r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#000000", Dark: "#F8F8F2"})
	t.Selected = r.NewStyle().
		Background(t.Highlight).
		Border(lipgloss.ThickBorder(), false, false, false, true).
		BorderForeground(t.Primary).
		Bold(true)
	t.Header = r.NewStyle().
		Background(t.Primary).
		Foreground(lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#282A36"}).
		Bold(true).
		Padding(0, 1)
	t.BandHeader = r.NewStyle().Foreground(t.Band).Bold(true)
	t.MarkedText = r.NewStyle().Foreground(t.Marked).Bold(true)
	t.PickedText = r.NewStyle().Foreground(t.Picked)
	t.MutedText = r.NewStyle().Foreground(t.Muted)
	t.ValueText = r.NewStyle().Foreground(t.Subtext)
	t.StatusOk = r.NewStyle().Foreground(t.Ok)
	t.StatusErr = r.NewStyle().Foreground(t.Error).Bold(true)
	t.PromptText = r.NewStyle().Foreground(t.Primary).Bold(true)
	return t
}

// CategoryHeader styles a manual category header in its palette color.
func (t Theme) CategoryHeader(hex string) lipgloss.Style {
	return t.Renderer.NewStyle().Foreground(ThemeFg(hex)).Bold(true)
}

// TestTheme returns a theme suitable for use in tests.
func TestTheme() Theme {
	return DefaultTheme(lipgloss.NewRenderer(os.Stdout))
}
