package ui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/Dicklesworthstone/constellation_viewer/pkg/config"
	"github.com/Dicklesworthstone/constellation_viewer/pkg/engine"
	"github.com/Dicklesworthstone/constellation_viewer/pkg/export"
	"github.com/Dicklesworthstone/constellation_viewer/pkg/gesture"
	"github.com/Dicklesworthstone/constellation_viewer/pkg/layout"
	"github.com/Dicklesworthstone/constellation_viewer/pkg/loader"
	"github.com/Dicklesworthstone/constellation_viewer/pkg/model"
	"github.com/Dicklesworthstone/constellation_viewer/pkg/search"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r2"
)

// wheelNotch is the scroll delta of one terminal wheel event.
const wheelNotch = 100

// panCells is how far one arrow key pans, in cells.
const panCells = 4

// Options configure the terminal viewer.
type Options struct {
	UI     config.UIConfig
	Theme  Theme
	Logger *zap.Logger
	// Title is shown in the header
	Title string
	// ExportDir receives snapshots written with "e"
	ExportDir string
	// LabelDepth is the deepest level labelled without hover or selection
	LabelDepth int
}

// tickMsg drives one engine frame.
type tickMsg time.Time

// TreeReloadedMsg carries a freshly loaded tree, or the error loading it.
type TreeReloadedMsg struct {
	Path string
	Tree *model.ConceptNode
	Err  error
}

// ReloadTree loads path and wraps the result for the program.
func ReloadTree(path string) TreeReloadedMsg {
	tree, err := loader.LoadTreeFromFile(path)
	return TreeReloadedMsg{Path: path, Tree: tree, Err: err}
}

type exportDoneMsg struct {
	paths []string
	err   error
}

// Model is the bubbletea model of the constellation viewer.
type Model struct {
	engine *engine.Engine
	opts   Options
	logger *zap.Logger
	theme  Theme

	help   HelpOverlayModel
	search SearchModel
	detail DetailModel

	width, height int
	layout        screenLayout
	sized         bool

	frame    layout.Frame
	labels   map[string]string
	pointer  bool
	status   string
	statusOK bool

	now  func() time.Time
	copy func(string) error
}

// New wraps eng in a viewer. The engine's selection callback is taken over
// to keep the detail pane in sync.
func New(eng *engine.Engine, opts Options) *Model {
	def := config.Default().UI
	if opts.UI.FrameInterval <= 0 {
		opts.UI.FrameInterval = def.FrameInterval
	}
	if opts.UI.CellWidth <= 0 {
		opts.UI.CellWidth = def.CellWidth
	}
	if opts.UI.CellHeight <= 0 {
		opts.UI.CellHeight = def.CellHeight
	}
	if opts.Theme.Renderer == nil {
		opts.Theme = DefaultTheme(nil)
	}
	if opts.Title == "" {
		opts.Title = "Constellation"
	}
	if opts.ExportDir == "" {
		opts.ExportDir = "."
	}
	if opts.LabelDepth == 0 {
		opts.LabelDepth = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &Model{
		engine: eng,
		opts:   opts,
		logger: logger,
		theme:  opts.Theme,
		help:   NewHelpOverlayModel(opts.Theme),
		search: NewSearchModel(search.NewIndex(eng.Tree()), opts.Theme),
		detail: NewDetailModel(opts.Theme),
		now:    time.Now,
		copy:   clipboard.WriteAll,
	}
	m.labels = labelsOf(eng.Tree())
	m.frame = eng.Snapshot()
	// The pane may resize the canvas, which must happen before the engine
	// computes where to fly.
	eng.OnSelect(func(n *model.ConceptNode) {
		m.detail.SetConcept(n)
		m.relayout()
	})
	return m
}

func labelsOf(tree *model.ConceptNode) map[string]string {
	labels := make(map[string]string)
	tree.Walk(func(n *model.ConceptNode, _ int) bool {
		labels[n.ID] = n.DisplayLabel()
		return true
	})
	return labels
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(m.opts.UI.FrameInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	return m.tick()
}

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.setSize(msg.Width, msg.Height)
		return m, nil

	case tickMsg:
		m.frame = m.engine.Frame(time.Time(msg))
		return m, m.tick()

	case TreeReloadedMsg:
		m.applyReload(msg)
		return m, nil

	case exportDoneMsg:
		if msg.err != nil {
			m.logger.Warn("export failed", zap.Error(msg.err))
			m.setStatus("export failed: "+msg.err.Error(), false)
		} else {
			m.setStatus("exported "+strings.Join(msg.paths, ", "), true)
		}
		return m, nil

	case tea.MouseMsg:
		if m.help.IsVisible() {
			return m, nil
		}
		m.handleMouse(msg)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) setSize(width, height int) {
	m.width, m.height = width, height
	m.help.SetSize(width, height)
	m.relayout()
	if m.sized {
		return
	}
	// The first size is the real one: recompute the initial view for it and
	// then prefer the saved view when there is one.
	m.sized = true
	m.engine.ResetViewport()
	if m.engine.RestoreViewport() {
		m.logger.Debug("restored saved view")
	}
}

func (m *Model) relayout() {
	if m.width == 0 || m.height == 0 {
		return
	}
	m.layout = computeLayout(m.width, m.height, m.detail.Concept() != nil, m.search.IsActive())
	m.engine.Resize(float64(m.layout.canvasW)*m.opts.UI.CellWidth, float64(m.layout.canvasH)*m.opts.UI.CellHeight)
	m.detail.SetSize(m.layout.detailW, m.layout.canvasH)
	m.search.SetWidth(m.width)
}

// toVirtual maps a terminal cell to virtual pixels at the cell's center.
func (m *Model) toVirtual(x, y int) r2.Vec {
	cx := float64(x - m.layout.canvasX)
	cy := float64(y - m.layout.canvasY)
	return r2.Vec{
		X: (cx + 0.5) * m.opts.UI.CellWidth,
		Y: (cy + 0.5) * m.opts.UI.CellHeight,
	}
}

func (m *Model) handleMouse(msg tea.MouseMsg) {
	inCanvas := m.layout.inCanvas(msg.X, msg.Y)
	p := m.toVirtual(msg.X, msg.Y)
	now := m.now()

	switch {
	case msg.Button == tea.MouseButtonWheelUp || msg.Button == tea.MouseButtonWheelDown:
		if !inCanvas {
			return
		}
		delta := float64(wheelNotch)
		if msg.Button == tea.MouseButtonWheelUp {
			delta = -delta
		}
		m.engine.HandleEvent(gesture.Event{Kind: gesture.Wheel, Source: gesture.Mouse, WheelDelta: delta, Time: now})

	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		if !inCanvas {
			return
		}
		m.pointer = true
		m.engine.HandleEvent(gesture.Event{Kind: gesture.Press, Source: gesture.Mouse, Points: []r2.Vec{p}, Time: now})

	case msg.Action == tea.MouseActionMotion:
		if m.pointer {
			m.engine.HandleEvent(gesture.Event{Kind: gesture.Move, Source: gesture.Mouse, Points: []r2.Vec{p}, Time: now})
			return
		}
		id := ""
		if inCanvas {
			id, _ = m.engine.HitTest(p)
		}
		m.engine.SetHover(id)

	case msg.Action == tea.MouseActionRelease:
		if !m.pointer {
			return
		}
		m.pointer = false
		m.engine.HandleEvent(gesture.Event{Kind: gesture.Release, Source: gesture.Mouse, Time: now})
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.help.IsVisible() {
		m.help, _ = m.help.Update(msg)
		return m, nil
	}
	if m.search.IsActive() {
		return m.handleSearchKey(msg)
	}

	m.status = ""
	cam := m.engine.Camera()
	stepX := panCells * m.opts.UI.CellWidth
	stepY := panCells / 2 * m.opts.UI.CellHeight

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "?":
		m.help.Toggle()
	case "+", "=":
		cam.ZoomIn()
	case "-", "_":
		cam.ZoomOut()
	case "left", "h":
		cam.PanBy(stepX, 0)
	case "right", "l":
		cam.PanBy(-stepX, 0)
	case "up", "k":
		cam.PanBy(0, stepY)
	case "down", "j":
		cam.PanBy(0, -stepY)
	case "0":
		m.engine.ResetViewport()
		m.setStatus("view reset", true)
	case "s":
		if err := m.engine.SaveViewport(); err != nil {
			m.logger.Warn("save view failed", zap.Error(err))
			m.setStatus("save failed: "+err.Error(), false)
		} else {
			m.setStatus("view saved", true)
		}
	case "r":
		if m.engine.RestoreViewport() {
			m.setStatus("view restored", true)
		} else {
			m.setStatus("no saved view", false)
		}
	case "/":
		cmd := m.search.Focus()
		m.relayout()
		return m, cmd
	case " ":
		if m.engine.Paused() {
			m.engine.Resume()
			m.setStatus("physics running", true)
		} else {
			m.engine.Pause()
			m.setStatus("physics paused", true)
		}
	case "esc":
		m.engine.Select("")
		m.detail.SetConcept(nil)
		m.relayout()
	case "c":
		m.copySelected()
	case "e":
		return m, m.exportCmd()
	case "pgup", "pgdown", "ctrl+u", "ctrl+d":
		m.detail, _ = m.detail.Update(msg)
	}
	return m, nil
}

func (m *Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.search.Blur()
		m.relayout()
		return m, nil
	case "enter":
		r, ok := m.search.Current()
		m.search.Blur()
		if ok {
			m.engine.Select(r.ID)
			m.setStatus("focused "+r.Label, true)
		}
		m.relayout()
		return m, nil
	case "up", "ctrl+p":
		m.search.MoveUp()
		return m, nil
	case "down", "ctrl+n":
		m.search.MoveDown()
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

func (m *Model) copySelected() {
	id, ok := m.engine.Selected()
	if !ok {
		m.setStatus("nothing selected", false)
		return
	}
	label := m.labels[id]
	if err := m.copy(label); err != nil {
		m.logger.Warn("clipboard write failed", zap.Error(err))
		m.setStatus("copy failed: "+err.Error(), false)
		return
	}
	m.setStatus("copied "+label, true)
}

func (m *Model) exportCmd() tea.Cmd {
	frame := m.engine.Snapshot()
	opts := export.DefaultOptions()
	opts.Title = m.opts.Title
	opts.Labels = m.labels
	opts.LabelDepth = m.opts.LabelDepth
	opts.Selected, _ = m.engine.Selected()

	stamp := m.now().Format("20060102-150405")
	base := filepath.Join(m.opts.ExportDir, "constellation-"+stamp)
	paths := []string{base + ".svg", base + ".png"}
	m.setStatus("exporting...", true)

	return func() tea.Msg {
		err := export.SaveSnapshots(context.Background(), frame, opts, paths...)
		return exportDoneMsg{paths: paths, err: err}
	}
}

func (m *Model) applyReload(msg TreeReloadedMsg) {
	if msg.Err != nil {
		m.logger.Warn("tree reload failed", zap.String("path", msg.Path), zap.Error(msg.Err))
		m.setStatus("reload failed: "+msg.Err.Error(), false)
		return
	}
	m.engine.SetTree(msg.Tree)
	m.labels = labelsOf(msg.Tree)
	m.search.SetIndex(search.NewIndex(msg.Tree))
	m.frame = m.engine.Snapshot()

	if id, ok := m.engine.Selected(); ok {
		n, _ := m.engine.Concept(id)
		m.detail.SetConcept(n)
	} else {
		m.detail.SetConcept(nil)
	}
	m.relayout()
	m.logger.Info("tree reloaded", zap.String("path", msg.Path), zap.Int("concepts", len(m.labels)))
	m.setStatus(fmt.Sprintf("reloaded %d concepts", len(m.labels)), true)
}

func (m *Model) setStatus(s string, ok bool) {
	m.status = s
	m.statusOK = ok
}

// Status returns the current status message
func (m *Model) Status() string {
	return m.status
}

// View implements tea.Model
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading constellation..."
	}
	if m.help.IsVisible() {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.help.View())
	}

	sections := []string{m.renderHeader()}
	body := m.renderCanvas()
	if m.layout.detailW > 0 {
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, m.detail.View())
	}
	sections = append(sections, body)
	if m.search.IsActive() {
		sections = append(sections, m.search.View())
	}
	sections = append(sections, m.renderStatus())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) scene() scene {
	selected, _ := m.engine.Selected()
	hovered, _ := m.engine.Hovered()
	var related map[string]bool
	if hovered != "" {
		related = m.engine.Related(hovered)
	}
	return scene{
		transform:  m.engine.Transform(),
		cellW:      m.opts.UI.CellWidth,
		cellH:      m.opts.UI.CellHeight,
		labels:     m.labels,
		selected:   selected,
		hovered:    hovered,
		related:    related,
		labelDepth: m.opts.LabelDepth,
		glow:       m.engine.GlowRadius,
	}
}

func (m *Model) renderCanvas() string {
	c := newCanvas(m.layout.canvasW, m.layout.canvasH)
	drawFrame(c, m.frame, m.scene())
	return c.render(m.theme.Renderer)
}

func (m *Model) renderHeader() string {
	titleStyle := m.theme.Renderer.NewStyle().Foreground(m.theme.Primary).Bold(true)
	infoStyle := m.theme.Renderer.NewStyle().Foreground(m.theme.Subtext)

	info := []string{
		fmt.Sprintf("%d stars", len(m.frame.Nodes)),
		fmt.Sprintf("zoom %.2f", m.engine.Transform().Scale),
	}
	if g := m.engine.Gesture(); g != gesture.Idle {
		info = append(info, g.String())
	}
	if m.engine.Paused() {
		info = append(info, "paused")
	}
	if id, ok := m.engine.Selected(); ok {
		info = append(info, "▸ "+m.labels[id])
	}
	line := titleStyle.Render("✦ "+m.opts.Title) + "  " + infoStyle.Render(strings.Join(info, " · "))
	return m.theme.Renderer.NewStyle().MaxWidth(m.width).Render(line)
}

func (m *Model) renderStatus() string {
	if m.status != "" {
		color := m.theme.Primary
		if !m.statusOK {
			color = m.theme.Danger
		}
		return m.theme.Renderer.NewStyle().Foreground(color).MaxWidth(m.width).Render(m.status)
	}
	if m.search.IsActive() {
		return RenderKeyHint(m.theme, "enter", "focus", "↑↓", "choose", "esc", "cancel")
	}
	if m.width < BreakpointNarrow {
		return RenderKeyHint(m.theme, "?", "help", "q", "quit")
	}
	hint := RenderKeyHint(m.theme, "/", "search", "+/-", "zoom", "s/r", "save/restore", "e", "export", "?", "help", "q", "quit")
	return m.theme.Renderer.NewStyle().MaxWidth(m.width).Render(hint)
}
