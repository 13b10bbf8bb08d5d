package ui

import (
	"strings"

	"github.com/Dicklesworthstone/constellation_viewer/pkg/search"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// SearchModel is the "/" search box with its result list.
type SearchModel struct {
	input    textinput.Model
	index    *search.Index
	results  []search.Result
	selected int
	active   bool
	width    int
	theme    Theme
}

// NewSearchModel creates a search box over index
func NewSearchModel(index *search.Index, theme Theme) SearchModel {
	ti := textinput.New()
	ti.Placeholder = "Search concepts..."
	ti.Prompt = "/ "
	ti.CharLimit = 64
	ti.Width = 40
	return SearchModel{
		input: ti,
		index: index,
		theme: theme,
	}
}

// SetIndex swaps the index (after a tree reload) and reruns the query.
func (m *SearchModel) SetIndex(index *search.Index) {
	m.index = index
	m.refresh()
}

// Focus opens the box with an empty query
func (m *SearchModel) Focus() tea.Cmd {
	m.active = true
	m.input.SetValue("")
	m.results = nil
	m.selected = 0
	return m.input.Focus()
}

// Blur closes the box
func (m *SearchModel) Blur() {
	m.active = false
	m.input.Blur()
}

// IsActive reports whether the box is open
func (m SearchModel) IsActive() bool {
	return m.active
}

// Query returns the current query text
func (m SearchModel) Query() string {
	return m.input.Value()
}

// Results returns the current hits
func (m SearchModel) Results() []search.Result {
	return m.results
}

// Current returns the highlighted hit, if any
func (m SearchModel) Current() (search.Result, bool) {
	if m.selected < 0 || m.selected >= len(m.results) {
		return search.Result{}, false
	}
	return m.results[m.selected], true
}

// SetWidth sets the panel width
func (m *SearchModel) SetWidth(width int) {
	m.width = width
	m.input.Width = max(width-4, 10)
}

// MoveUp highlights the previous hit
func (m *SearchModel) MoveUp() {
	if m.selected > 0 {
		m.selected--
	}
}

// MoveDown highlights the next hit
func (m *SearchModel) MoveDown() {
	if m.selected < len(m.results)-1 {
		m.selected++
	}
}

// Update feeds a key to the text input and reruns the query when it changed.
func (m SearchModel) Update(msg tea.Msg) (SearchModel, tea.Cmd) {
	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != before {
		m.refresh()
	}
	return m, cmd
}

func (m *SearchModel) refresh() {
	m.selected = 0
	if m.index == nil {
		m.results = nil
		return
	}
	m.results = m.index.Find(m.input.Value(), MaxSearchResults)
}

// View renders the input line and up to MaxSearchResults hits.
func (m SearchModel) View() string {
	if !m.active {
		return ""
	}
	var b strings.Builder
	b.WriteString(m.input.View())

	cursorStyle := m.theme.Renderer.NewStyle().Foreground(m.theme.Primary).Bold(true)
	labelStyle := m.theme.Renderer.NewStyle().Foreground(m.theme.Subtext)
	matchStyle := m.theme.Renderer.NewStyle().Foreground(m.theme.Highlight).Bold(true)
	noteStyle := m.theme.Renderer.NewStyle().Foreground(m.theme.Secondary).Italic(true)

	for i := 0; i < MaxSearchResults; i++ {
		b.WriteString("\n")
		if i >= len(m.results) {
			if i == 0 && strings.TrimSpace(m.input.Value()) != "" {
				b.WriteString(noteStyle.Render("  no matches"))
			}
			continue
		}
		r := m.results[i]
		prefix := "  "
		if i == m.selected {
			prefix = cursorStyle.Render("▸ ")
		}
		line := highlight(r.Label, r.MatchedIndexes, labelStyle.Render, matchStyle.Render)
		if r.Kind == search.MatchDescription {
			line += noteStyle.Render("  (description)")
		}
		b.WriteString(prefix + line)
	}
	return b.String()
}

// highlight renders s with the bytes at idx styled as matches.
func highlight(s string, idx []int, plain, match func(...string) string) string {
	if len(idx) == 0 {
		return plain(s)
	}
	hit := make(map[int]bool, len(idx))
	for _, i := range idx {
		hit[i] = true
	}
	var b strings.Builder
	var run strings.Builder
	runHit := false
	flush := func() {
		if run.Len() == 0 {
			return
		}
		if runHit {
			b.WriteString(match(run.String()))
		} else {
			b.WriteString(plain(run.String()))
		}
		run.Reset()
	}
	for i, r := range s {
		if hit[i] != runHit {
			flush()
			runHit = hit[i]
		}
		run.WriteRune(r)
	}
	flush()
	return b.String()
}
