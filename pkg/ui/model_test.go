package ui

import (
	"errors"
	"math"
	"math/rand"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/Dicklesworthstone/constellation_viewer/pkg/engine"
	"github.com/Dicklesworthstone/constellation_viewer/pkg/gesture"
	"github.com/Dicklesworthstone/constellation_viewer/pkg/layout"
	"github.com/Dicklesworthstone/constellation_viewer/pkg/model"
	"github.com/Dicklesworthstone/constellation_viewer/pkg/store"

	tea "github.com/charmbracelet/bubbletea"
)

// keyMsg creates a tea.KeyMsg for testing
func keyMsg(key string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
}

func testTree() *model.ConceptNode {
	return &model.ConceptNode{
		ID:    "root",
		Label: "Root",
		Children: []*model.ConceptNode{
			{ID: "A", Label: "Alpha", Children: []*model.ConceptNode{
				{ID: "A1", Label: "Alpha One", Description: "first leaf"},
			}},
			{ID: "B", Label: "Beta", Description: "the second branch"},
		},
	}
}

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func at(ms int) time.Time {
	return epoch.Add(time.Duration(ms) * time.Millisecond)
}

// newTestModel builds a 100x40 viewer over a constellation with no forces,
// so nodes stay where the flattener put them.
func newTestModel(t *testing.T) (*Model, *engine.Engine) {
	t.Helper()
	opts := engine.DefaultOptions()
	opts.Layout.Physics = layout.Physics{Damping: 1, SpringLength: 130}
	opts.Rand = rand.New(rand.NewSource(7))
	opts.Store = store.NewMemory()
	eng := engine.New(testTree(), opts)

	m := New(eng, Options{ExportDir: t.TempDir()})
	m.now = func() time.Time { return epoch }
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return m, eng
}

// rootCell is the terminal cell over the root star: the canvas is 800x608
// virtual pixels, the root sits at its center (400, 304), one header row.
const rootCellX, rootCellY = 50, 20

func TestInit_StartsTicking(t *testing.T) {
	m, _ := newTestModel(t)
	if m.Init() == nil {
		t.Fatal("Init should schedule the first frame")
	}
}

func TestWindowSize_SetsInitialView(t *testing.T) {
	_, eng := newTestModel(t)
	tr := eng.Transform()
	if tr.PanX != 400 || tr.PanY != 304 || tr.Scale != 0.7 {
		t.Errorf("initial transform = %+v, want centered at (400, 304) scale 0.7", tr)
	}
}

func TestWindowSize_NarrowTerminal(t *testing.T) {
	eng := engine.New(testTree(), engine.DefaultOptions())
	m := New(eng, Options{})
	m.Update(tea.WindowSizeMsg{Width: 60, Height: 30})
	if got := eng.Transform().Scale; got != 0.45 {
		t.Errorf("scale on a 480 px wide canvas = %v, want narrow 0.45", got)
	}
}

func TestWindowSize_RestoresSavedView(t *testing.T) {
	opts := engine.DefaultOptions()
	opts.Store = store.NewMemory()
	first := engine.New(testTree(), opts)
	first.Camera().PanBy(11, 22)
	saved := first.Transform()
	if err := first.SaveViewport(); err != nil {
		t.Fatalf("SaveViewport: %v", err)
	}

	second := engine.New(testTree(), opts)
	m := New(second, Options{})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	if second.Transform() != saved {
		t.Errorf("transform = %+v, want saved %+v", second.Transform(), saved)
	}
}

func TestTick_AdvancesFrame(t *testing.T) {
	m, _ := newTestModel(t)
	before := m.frame.Seq
	_, cmd := m.Update(tickMsg(at(0)))
	if cmd == nil {
		t.Error("tick should schedule the next frame")
	}
	if m.frame.Seq <= before {
		t.Errorf("frame seq %d did not advance from %d", m.frame.Seq, before)
	}
}

func TestKeys_Zoom(t *testing.T) {
	m, eng := newTestModel(t)
	k := eng.Transform().Scale

	m.Update(keyMsg("+"))
	if got := eng.Transform().Scale; math.Abs(got-k*1.2) > 1e-9 {
		t.Errorf("after + scale = %v, want %v", got, k*1.2)
	}
	m.Update(keyMsg("-"))
	if got := eng.Transform().Scale; math.Abs(got-k) > 1e-9 {
		t.Errorf("after - scale = %v, want %v", got, k)
	}
}

func TestKeys_Pan(t *testing.T) {
	cases := []struct {
		key    string
		dx, dy float64
	}{
		{"h", 32, 0},
		{"l", -32, 0},
		{"k", 0, 32},
		{"j", 0, -32},
	}
	for _, tc := range cases {
		t.Run(tc.key, func(t *testing.T) {
			m, eng := newTestModel(t)
			before := eng.Transform()
			m.Update(keyMsg(tc.key))
			after := eng.Transform()
			if after.PanX-before.PanX != tc.dx || after.PanY-before.PanY != tc.dy {
				t.Errorf("pan moved by (%v, %v), want (%v, %v)",
					after.PanX-before.PanX, after.PanY-before.PanY, tc.dx, tc.dy)
			}
		})
	}
}

func TestKeys_SaveResetRestore(t *testing.T) {
	m, eng := newTestModel(t)
	m.Update(keyMsg("+"))
	m.Update(keyMsg("h"))
	saved := eng.Transform()

	m.Update(keyMsg("s"))
	if m.Status() != "view saved" {
		t.Errorf("status = %q", m.Status())
	}
	m.Update(keyMsg("0"))
	if eng.Transform() == saved {
		t.Fatal("0 should reset the view")
	}
	m.Update(keyMsg("r"))
	if eng.Transform() != saved {
		t.Errorf("restored %+v, want %+v", eng.Transform(), saved)
	}
}

func TestKeys_SpaceTogglesPause(t *testing.T) {
	m, eng := newTestModel(t)
	m.Update(tea.KeyMsg{Type: tea.KeySpace})
	if !eng.Paused() {
		t.Fatal("space should pause the physics")
	}
	m.Update(tea.KeyMsg{Type: tea.KeySpace})
	if eng.Paused() {
		t.Error("second space should resume the physics")
	}
}

func TestKeys_Quit(t *testing.T) {
	m, _ := newTestModel(t)
	_, cmd := m.Update(keyMsg("q"))
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestHelpOverlay(t *testing.T) {
	m, eng := newTestModel(t)
	m.Update(keyMsg("?"))
	if !m.help.IsVisible() {
		t.Fatal("? should show help")
	}
	if !strings.Contains(m.View(), "Constellation Help") {
		t.Error("help view missing its title")
	}

	// The key that closes help does nothing else.
	k := eng.Transform().Scale
	m.Update(keyMsg("+"))
	if m.help.IsVisible() {
		t.Error("any key should close help")
	}
	if eng.Transform().Scale != k {
		t.Error("closing key leaked through to the camera")
	}
}

func TestSearch_EnterSelectsAndFocuses(t *testing.T) {
	m, eng := newTestModel(t)
	m.Update(keyMsg("/"))
	if !m.search.IsActive() {
		t.Fatal("/ should open search")
	}
	for _, r := range "Beta" {
		m.Update(keyMsg(string(r)))
	}
	if m.search.Query() != "Beta" {
		t.Fatalf("query = %q", m.search.Query())
	}
	if hit, ok := m.search.Current(); !ok || hit.ID != "B" {
		t.Fatalf("current hit = %+v, %v", hit, ok)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.search.IsActive() {
		t.Error("enter should close search")
	}
	if id, _ := eng.Selected(); id != "B" {
		t.Errorf("selected %q, want B", id)
	}
	if n := m.detail.Concept(); n == nil || n.ID != "B" {
		t.Errorf("detail shows %+v", n)
	}

	for ms := 0; ms <= 1100; ms += 16 {
		m.Update(tickMsg(at(ms)))
	}
	m.Update(tickMsg(at(1100)))
	w, h := eng.Camera().Size()
	n, _ := m.frame.Node("B")
	p := eng.Transform().ToScreen(vec(n.X, n.Y))
	if math.Abs(p.X-w/2) > 0.5 || math.Abs(p.Y-h/2) > 0.5 {
		t.Errorf("B at %v after search focus, want (%v, %v)", p, w/2, h/2)
	}
}

func TestSearch_EscCancels(t *testing.T) {
	m, eng := newTestModel(t)
	m.Update(keyMsg("/"))
	m.Update(keyMsg("A"))
	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.search.IsActive() {
		t.Error("esc should close search")
	}
	if _, ok := eng.Selected(); ok {
		t.Error("cancelled search should not select")
	}
}

func TestSearch_KeysDoNotReachCamera(t *testing.T) {
	m, eng := newTestModel(t)
	before := eng.Transform()
	m.Update(keyMsg("/"))
	m.Update(keyMsg("q"))
	m.Update(keyMsg("+"))
	if eng.Transform() != before {
		t.Error("typing in search moved the camera")
	}
	if m.search.Query() != "q+" {
		t.Errorf("query = %q, want q+", m.search.Query())
	}
}

func TestMouse_PressDragsAndSelects(t *testing.T) {
	m, eng := newTestModel(t)
	m.Update(tea.MouseMsg{X: rootCellX, Y: rootCellY, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	if eng.Gesture() != gesture.DraggingNode {
		t.Fatalf("gesture = %v, want dragging", eng.Gesture())
	}
	if id, _ := eng.Selected(); id != "root" {
		t.Errorf("selected %q, want root", id)
	}
	if n := m.detail.Concept(); n == nil || n.ID != "root" {
		t.Error("detail pane should follow the selection")
	}

	// Five cells right is 40 virtual pixels, 40/0.7 simulation units.
	m.Update(tea.MouseMsg{X: rootCellX + 5, Y: rootCellY, Action: tea.MouseActionMotion, Button: tea.MouseButtonLeft})
	pos, _ := eng.Simulator().Position("root")
	if math.Abs(pos.X-40/0.7) > 1e-9 || pos.Y != 0 {
		t.Errorf("root at %v, want (%v, 0)", pos, 40/0.7)
	}

	m.Update(tea.MouseMsg{X: rootCellX + 5, Y: rootCellY, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft})
	if eng.Gesture() != gesture.Idle {
		t.Errorf("gesture after release = %v", eng.Gesture())
	}
	if eng.Simulator().IsPinned("root") {
		t.Error("release should unpin")
	}
}

func TestMouse_BackgroundPans(t *testing.T) {
	m, eng := newTestModel(t)
	before := eng.Transform()
	m.Update(tea.MouseMsg{X: 2, Y: 3, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	m.Update(tea.MouseMsg{X: 4, Y: 4, Action: tea.MouseActionMotion, Button: tea.MouseButtonLeft})
	m.Update(tea.MouseMsg{X: 4, Y: 4, Action: tea.MouseActionRelease})

	after := eng.Transform()
	if after.PanX-before.PanX != 16 || after.PanY-before.PanY != 16 {
		t.Errorf("pan moved by (%v, %v), want (16, 16)", after.PanX-before.PanX, after.PanY-before.PanY)
	}
}

func TestMouse_PressOutsideCanvasIgnored(t *testing.T) {
	m, eng := newTestModel(t)
	m.Update(tea.MouseMsg{X: 10, Y: 0, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	if eng.Gesture() != gesture.Idle {
		t.Errorf("press on the header started %v", eng.Gesture())
	}
}

func TestMouse_Wheel(t *testing.T) {
	m, eng := newTestModel(t)
	k := eng.Transform().Scale
	m.Update(tea.MouseMsg{X: 10, Y: 10, Action: tea.MouseActionPress, Button: tea.MouseButtonWheelUp})
	if got := eng.Transform().Scale; math.Abs(got-(k+0.1)) > 1e-9 {
		t.Errorf("wheel up scale = %v, want %v", got, k+0.1)
	}
	m.Update(tea.MouseMsg{X: 10, Y: 10, Action: tea.MouseActionPress, Button: tea.MouseButtonWheelDown})
	if got := eng.Transform().Scale; math.Abs(got-k) > 1e-9 {
		t.Errorf("wheel down scale = %v, want %v", got, k)
	}
}

func TestMouse_Hover(t *testing.T) {
	m, eng := newTestModel(t)
	m.Update(tea.MouseMsg{X: rootCellX, Y: rootCellY, Action: tea.MouseActionMotion})
	if id, ok := eng.Hovered(); !ok || id != "root" {
		t.Errorf("hovered %q, %v; want root", id, ok)
	}
	m.Update(tea.MouseMsg{X: 1, Y: 2, Action: tea.MouseActionMotion})
	if _, ok := eng.Hovered(); ok {
		t.Error("hover should clear over empty sky")
	}
}

func TestCopySelected(t *testing.T) {
	m, eng := newTestModel(t)
	var copied string
	m.copy = func(s string) error {
		copied = s
		return nil
	}

	m.Update(keyMsg("c"))
	if copied != "" || m.Status() != "nothing selected" {
		t.Errorf("copy without selection: copied %q, status %q", copied, m.Status())
	}

	eng.Select("A1")
	m.Update(keyMsg("c"))
	if copied != "Alpha One" {
		t.Errorf("copied %q, want Alpha One", copied)
	}

	m.copy = func(string) error { return errors.New("no clipboard") }
	m.Update(keyMsg("c"))
	if !strings.Contains(m.Status(), "no clipboard") {
		t.Errorf("status = %q", m.Status())
	}
}

func TestEscClearsSelection(t *testing.T) {
	m, eng := newTestModel(t)
	eng.Select("B")
	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if _, ok := eng.Selected(); ok {
		t.Error("esc should clear the selection")
	}
	if m.detail.Concept() != nil {
		t.Error("esc should clear the detail pane")
	}
}

func TestExport(t *testing.T) {
	m, _ := newTestModel(t)
	_, cmd := m.Update(keyMsg("e"))
	if cmd == nil {
		t.Fatal("e should return an export command")
	}
	msg := cmd()
	done, ok := msg.(exportDoneMsg)
	if !ok {
		t.Fatalf("export command returned %T", msg)
	}
	if done.err != nil {
		t.Fatalf("export: %v", done.err)
	}
	if len(done.paths) != 2 {
		t.Fatalf("paths = %v", done.paths)
	}
	for _, p := range done.paths {
		if fi, err := os.Stat(p); err != nil || fi.Size() == 0 {
			t.Errorf("%s not written: %v", p, err)
		}
	}

	m.Update(done)
	if !strings.HasPrefix(m.Status(), "exported ") {
		t.Errorf("status = %q", m.Status())
	}
}

func TestTreeReloaded(t *testing.T) {
	m, eng := newTestModel(t)
	eng.Select("B")

	tree := &model.ConceptNode{ID: "root", Label: "Root", Children: []*model.ConceptNode{
		{ID: "B", Label: "Beta Prime"},
		{ID: "C", Label: "Gamma"},
	}}
	m.Update(TreeReloadedMsg{Path: "tree.yaml", Tree: tree})

	if len(m.frame.Nodes) != 3 {
		t.Errorf("frame has %d nodes after reload, want 3", len(m.frame.Nodes))
	}
	if n := m.detail.Concept(); n == nil || n.Label != "Beta Prime" {
		t.Errorf("detail shows %+v, want the reloaded B", n)
	}
	if m.labels["C"] != "Gamma" {
		t.Errorf("labels = %v", m.labels)
	}
	m.Update(keyMsg("/"))
	m.Update(keyMsg("G"))
	if hit, ok := m.search.Current(); !ok || hit.ID != "C" {
		t.Errorf("search over reloaded tree = %+v, %v", hit, ok)
	}
}

func TestTreeReloaded_Error(t *testing.T) {
	m, _ := newTestModel(t)
	before := len(m.frame.Nodes)
	m.Update(TreeReloadedMsg{Path: "tree.yaml", Err: errors.New("bad yaml")})
	if len(m.frame.Nodes) != before {
		t.Error("failed reload should keep the current tree")
	}
	if !strings.Contains(m.Status(), "reload failed") {
		t.Errorf("status = %q", m.Status())
	}
}

func TestView_DrawsConstellation(t *testing.T) {
	m, _ := newTestModel(t)
	m.Update(tickMsg(at(0)))
	view := m.View()
	for _, want := range []string{"Constellation", "4 stars", "Root", "Alpha"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
	// Depth-two labels appear only on hover or selection.
	if strings.Contains(view, "Alpha One") {
		t.Error("leaf label should be hidden by default")
	}
}

func TestView_DetailPaneOnSelection(t *testing.T) {
	m, eng := newTestModel(t)
	eng.Select("A1")
	m.relayout()
	if m.layout.detailW == 0 {
		t.Fatal("a 100 column window should show the detail pane")
	}
	if !strings.Contains(m.View(), "leaf") {
		t.Error("detail pane should render the description")
	}
}
