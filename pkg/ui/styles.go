package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Spacing constants for consistent layout (in characters)
const (
	SpaceXS = 1
	SpaceSM = 2
	SpaceMD = 3
)

// Row glyphs.
const (
	glyphExpanded  = "▾"
	glyphCollapsed = "▸"
	glyphMarked    = "★"
	glyphPicked    = "◆"
	glyphPoint     = "·"
)

var (
	// PanelStyle frames the report and stats panes.
	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.AdaptiveColor{Light: "#D0D0D0", Dark: "#44475A"})

	// FocusedPanelStyle frames the pane that receives keys.
	FocusedPanelStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"})
)

// RenderShareBar renders a mini horizontal bar for a share between 0 and 1.
func RenderShareBar(value float64, width int, t Theme) string {
	if width <= 0 {
		return ""
	}
	value = max(0, min(1, value))
	filled := min(int(value*float64(width)+0.5), width)

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return t.Renderer.NewStyle().Foreground(t.Primary).Render(bar)
}

// RenderCount renders a dim "(n)" suffix for headers.
func RenderCount(n int, t Theme) string {
	return t.MutedText.Render(fmt.Sprintf("(%d)", n))
}

// RenderDivider renders a horizontal divider line
func RenderDivider(width int, t Theme) string {
	if width <= 0 {
		return ""
	}
	return t.Renderer.NewStyle().Foreground(t.Border).Render(strings.Repeat("─", width))
}
