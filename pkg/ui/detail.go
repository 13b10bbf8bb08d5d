package ui

import (
	"fmt"
	"strings"

	"github.com/Dicklesworthstone/constellation_viewer/pkg/model"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// DetailModel shows the selected concept's description as rendered markdown.
type DetailModel struct {
	concept  *model.ConceptNode
	vp       viewport.Model
	width    int
	height   int
	theme    Theme
	rendered string
}

// NewDetailModel creates an empty detail pane
func NewDetailModel(theme Theme) DetailModel {
	return DetailModel{
		vp:    viewport.New(0, 0),
		theme: theme,
	}
}

// SetConcept shows n; nil clears the pane.
func (m *DetailModel) SetConcept(n *model.ConceptNode) {
	m.concept = n
	m.refresh()
	m.vp.GotoTop()
}

// Concept returns the concept on display
func (m DetailModel) Concept() *model.ConceptNode {
	return m.concept
}

// SetSize sets the outer dimensions, border included.
func (m *DetailModel) SetSize(width, height int) {
	if width == m.width && height == m.height {
		return
	}
	m.width = width
	m.height = height
	m.vp.Width = max(width-4, 1)
	m.vp.Height = max(height-2, 1)
	m.refresh()
}

// Update scrolls the pane
func (m DetailModel) Update(msg tea.Msg) (DetailModel, tea.Cmd) {
	var cmd tea.Cmd
	m.vp, cmd = m.vp.Update(msg)
	return m, cmd
}

func (m *DetailModel) refresh() {
	if m.concept == nil {
		m.rendered = ""
		m.vp.SetContent("")
		return
	}
	md := conceptMarkdown(m.concept)
	m.rendered = renderMarkdown(md, m.vp.Width)
	m.vp.SetContent(m.rendered)
}

// conceptMarkdown formats a concept for the detail pane.
func conceptMarkdown(n *model.ConceptNode) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", n.DisplayLabel())
	if n.Description != "" {
		b.WriteString(n.Description)
		b.WriteString("\n\n")
	}
	if len(n.Children) > 0 {
		b.WriteString("## Branches\n\n")
		for _, child := range n.Children {
			fmt.Fprintf(&b, "- %s\n", child.DisplayLabel())
		}
	}
	return b.String()
}

// renderMarkdown renders md with glamour, falling back to the raw text when
// the renderer cannot be built.
func renderMarkdown(md string, width int) string {
	if width < 10 {
		width = 10
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.Trim(out, "\n")
}

// View renders the pane
func (m DetailModel) View() string {
	if m.width <= 0 || m.height <= 0 {
		return ""
	}
	box := m.theme.Renderer.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.theme.Primary).
		Padding(0, 1).
		Width(m.width - 2).
		Height(m.height - 2)
	if m.concept == nil {
		hint := m.theme.Renderer.NewStyle().Foreground(m.theme.Subtext).Italic(true)
		return box.BorderForeground(m.theme.Border).Render(hint.Render("Select a star to read about it."))
	}
	return box.Render(m.vp.View())
}
