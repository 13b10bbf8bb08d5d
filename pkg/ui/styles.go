package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ══════════════════════════════════════════════════════════════════════════════
// COLOR PALETTE - Dracula-inspired
// ══════════════════════════════════════════════════════════════════════════════

var (
	// Base colors
	ColorBg          = lipgloss.Color("#282A36")
	ColorBgDark      = lipgloss.Color("#1E1F29")
	ColorBgSubtle    = lipgloss.Color("#363949")
	ColorBgHighlight = lipgloss.Color("#44475A")
	ColorText        = lipgloss.Color("#F8F8F2")
	ColorSubtext     = lipgloss.Color("#BFBFBF")
	ColorMuted       = lipgloss.Color("#6272A4")

	// Accent colors
	ColorPrimary   = lipgloss.Color("#BD93F9")
	ColorSecondary = lipgloss.Color("#6272A4")
	ColorInfo      = lipgloss.Color("#8BE9FD")
	ColorSuccess   = lipgloss.Color("#50FA7B")
	ColorWarning   = lipgloss.Color("#FFB86C")
	ColorDanger    = lipgloss.Color("#FF5555")

	// Constellation colors
	ColorEdge        = lipgloss.Color("#44475A")
	ColorEdgeRelated = lipgloss.Color("#BD93F9")
	ColorGlow        = lipgloss.Color("#F1FA8C")
	ColorLabel       = lipgloss.Color("#F8F8F2")
)

// Theme carries the renderer and adaptive colors every component draws with.
type Theme struct {
	Renderer *lipgloss.Renderer

	Primary   lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor
	Subtext   lipgloss.AdaptiveColor
	Border    lipgloss.AdaptiveColor
	Highlight lipgloss.AdaptiveColor
	Danger    lipgloss.AdaptiveColor

	Base lipgloss.Style
}

// DefaultTheme builds the stock theme on r (the default renderer when nil).
func DefaultTheme(r *lipgloss.Renderer) Theme {
	if r == nil {
		r = lipgloss.DefaultRenderer()
	}
	return Theme{
		Renderer:  r,
		Primary:   lipgloss.AdaptiveColor{Light: "#7D56F4", Dark: string(ColorPrimary)},
		Secondary: lipgloss.AdaptiveColor{Light: "#555555", Dark: string(ColorSecondary)},
		Subtext:   lipgloss.AdaptiveColor{Light: "#666666", Dark: string(ColorSubtext)},
		Border:    lipgloss.AdaptiveColor{Light: "#DDDDDD", Dark: string(ColorBgHighlight)},
		Highlight: lipgloss.AdaptiveColor{Light: "#B58900", Dark: string(ColorGlow)},
		Danger:    lipgloss.AdaptiveColor{Light: "#D70000", Dark: string(ColorDanger)},
		Base:      r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#1A1A1A", Dark: string(ColorText)}),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// PANEL STYLES - For split view layouts
// ══════════════════════════════════════════════════════════════════════════════

var (
	// PanelStyle is the default style for unfocused panels
	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBgHighlight)

	// FocusedPanelStyle is the style for focused panels
	FocusedPanelStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(ColorPrimary)
)

// ══════════════════════════════════════════════════════════════════════════════
// DIVIDERS AND SEPARATORS
// ══════════════════════════════════════════════════════════════════════════════

// RenderDivider renders a horizontal divider line
func RenderDivider(width int) string {
	if width <= 0 {
		return ""
	}
	return lipgloss.NewStyle().
		Foreground(ColorBgHighlight).
		Render(strings.Repeat("─", width))
}

// RenderKeyHint renders "key action" pairs for the status line
func RenderKeyHint(t Theme, pairs ...string) string {
	keyStyle := t.Renderer.NewStyle().Foreground(t.Primary).Bold(true)
	descStyle := t.Renderer.NewStyle().Foreground(t.Subtext)
	var parts []string
	for i := 0; i+1 < len(pairs); i += 2 {
		parts = append(parts, keyStyle.Render(pairs[i])+" "+descStyle.Render(pairs[i+1]))
	}
	return strings.Join(parts, "  ")
}
