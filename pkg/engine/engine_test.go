package engine

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/Dicklesworthstone/constellation_viewer/pkg/gesture"
	"github.com/Dicklesworthstone/constellation_viewer/pkg/layout"
	"github.com/Dicklesworthstone/constellation_viewer/pkg/model"
	"github.com/Dicklesworthstone/constellation_viewer/pkg/store"

	"gonum.org/v1/gonum/spatial/r2"
)

func scenarioTree() *model.ConceptNode {
	return &model.ConceptNode{
		ID:    "root",
		Label: "Root",
		Children: []*model.ConceptNode{
			{ID: "A", Label: "Alpha", Children: []*model.ConceptNode{
				{ID: "A1", Label: "Alpha One", Description: "first leaf"},
			}},
			{ID: "B", Label: "Beta"},
		},
	}
}

// stillOptions returns options whose physics exert no force, so nodes stay
// exactly where the flattener put them.
func stillOptions() Options {
	opts := DefaultOptions()
	opts.Layout.Physics = layout.Physics{Damping: 1, SpringLength: 130}
	opts.Rand = rand.New(rand.NewSource(7))
	opts.Width, opts.Height = 1280, 800
	opts.Store = store.NewMemory()
	return opts
}

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func at(ms int) time.Time {
	return epoch.Add(time.Duration(ms) * time.Millisecond)
}

// runFrames drives the engine from ms to until inclusive, 16 ms apart.
func runFrames(e *Engine, from, until int) layout.Frame {
	for ms := from; ms <= until; ms += 16 {
		e.Frame(at(ms))
	}
	return e.Frame(at(until))
}

func screenOf(e *Engine, f layout.Frame, id string) r2.Vec {
	n, _ := f.Node(id)
	return e.Transform().ToScreen(r2.Vec{X: n.X, Y: n.Y})
}

func TestNew_BuildsArena(t *testing.T) {
	e := New(scenarioTree(), stillOptions())
	f := e.Snapshot()
	if len(f.Nodes) != 4 || len(f.Edges) != 3 {
		t.Fatalf("frame has %d nodes, %d edges; want 4, 3", len(f.Nodes), len(f.Edges))
	}
	tr := e.Transform()
	if tr.PanX != 640 || tr.PanY != 400 || tr.Scale != 0.7 {
		t.Errorf("initial transform = %+v", tr)
	}
}

func TestSelect_FliesNodeToCenter(t *testing.T) {
	e := New(scenarioTree(), stillOptions())
	var got *model.ConceptNode
	e.OnSelect(func(n *model.ConceptNode) { got = n })

	e.Frame(at(0))
	if !e.Select("A1") {
		t.Fatal("Select(A1) failed")
	}
	if got == nil || got.ID != "A1" || got.Description != "first leaf" {
		t.Fatalf("OnSelect got %+v", got)
	}

	f := runFrames(e, 16, 1100)
	p := screenOf(e, f, "A1")
	if math.Abs(p.X-640) > 0.5 || math.Abs(p.Y-400) > 0.5 {
		t.Errorf("A1 at %v after focus, want (640, 400)", p)
	}
	if e.Transform().Scale != 1.5 {
		t.Errorf("scale = %v, want 1.5", e.Transform().Scale)
	}
}

func TestFocusNode_WithLivePhysics(t *testing.T) {
	opts := stillOptions()
	opts.Layout.Physics = layout.DefaultPhysics()
	e := New(scenarioTree(), opts)

	runFrames(e, 0, 600*16)
	if !e.FocusNode("B") {
		t.Fatal("FocusNode(B) failed")
	}
	f := runFrames(e, 600*16+16, 600*16+1200)
	p := screenOf(e, f, "B")
	if math.Abs(p.X-640) > 1 || math.Abs(p.Y-400) > 1 {
		t.Errorf("B at %v after focus on a settled layout, want (640, 400)", p)
	}
}

func TestFocusNode_Unknown(t *testing.T) {
	e := New(scenarioTree(), stillOptions())
	before := e.Transform()
	if e.FocusNode("nope") {
		t.Error("FocusNode of unknown id should report false")
	}
	if e.Select("nope") {
		t.Error("Select of unknown id should report false")
	}
	runFrames(e, 0, 500)
	if e.Transform() != before {
		t.Errorf("transform changed to %+v", e.Transform())
	}
}

func TestHitTest_GlowLargerThanBody(t *testing.T) {
	e := New(scenarioTree(), stillOptions())
	e.Frame(at(0))

	// Root sits at the origin with radius 35; at scale 0.7 the body ends 24.5
	// px from center and the glow at 44.1 px.
	inGlow := r2.Vec{X: 640 + 40, Y: 400}
	if id, ok := e.HitTest(inGlow); !ok || id != "root" {
		t.Errorf("HitTest(in glow) = %q, %v; want root", id, ok)
	}
	beyond := r2.Vec{X: 640 + 50, Y: 400}
	if id, ok := e.HitTest(beyond); ok && id == "root" {
		t.Error("point beyond the glow should not hit root")
	}

	e.Select("root")
	if id, ok := e.HitTest(beyond); !ok || id != "root" {
		t.Errorf("selected glow should reach 73.5 px, got %q, %v", id, ok)
	}
}

func TestHitTest_Background(t *testing.T) {
	e := New(scenarioTree(), stillOptions())
	e.Frame(at(0))
	if id, ok := e.HitTest(r2.Vec{X: 5, Y: 5}); ok {
		t.Errorf("corner hit %q", id)
	}
}

func TestHandleEvent_DragsNode(t *testing.T) {
	e := New(scenarioTree(), stillOptions())
	e.Frame(at(0))

	center := r2.Vec{X: 640, Y: 400}
	e.HandleEvent(gesture.Event{Kind: gesture.Press, Points: []r2.Vec{center}, Time: at(10)})
	if e.Gesture() != gesture.DraggingNode {
		t.Fatalf("gesture = %v, want dragging", e.Gesture())
	}
	if id, _ := e.Selected(); id != "root" {
		t.Errorf("press on root should select it, selected %q", id)
	}

	e.HandleEvent(gesture.Event{Kind: gesture.Move, Points: []r2.Vec{{X: 640 + 70, Y: 400}}})
	if !e.Simulator().IsPinned("root") {
		t.Error("root should be pinned while dragged")
	}
	pos, _ := e.Simulator().Position("root")
	if math.Abs(pos.X-100) > 1e-9 || pos.Y != 0 {
		t.Errorf("root at %v, want (100, 0): 70 px at scale 0.7", pos)
	}

	e.HandleEvent(gesture.Event{Kind: gesture.Release})
	if e.Simulator().IsPinned("root") {
		t.Error("release should unpin root")
	}
}

func TestHandleEvent_PanBackground(t *testing.T) {
	e := New(scenarioTree(), stillOptions())
	e.Frame(at(0))
	before := e.Transform()

	e.HandleEvent(gesture.Event{Kind: gesture.Press, Points: []r2.Vec{{X: 10, Y: 10}}})
	e.HandleEvent(gesture.Event{Kind: gesture.Move, Points: []r2.Vec{{X: 40, Y: -10}}})
	e.HandleEvent(gesture.Event{Kind: gesture.Release})

	after := e.Transform()
	if after.PanX != before.PanX+30 || after.PanY != before.PanY-20 {
		t.Errorf("pan %+v -> %+v", before, after)
	}
	if _, ok := e.Selected(); ok {
		t.Error("background drag should not select")
	}
}

func TestSetTree_Rebuilds(t *testing.T) {
	e := New(scenarioTree(), stillOptions())
	e.Select("A1")
	e.SetHover("B")
	e.Camera().PanBy(12, 34)
	kept := e.Transform()

	e.SetTree(&model.ConceptNode{ID: "root", Children: []*model.ConceptNode{{ID: "B"}}})

	f := e.Frame(at(0))
	if len(f.Nodes) != 2 || len(f.Edges) != 1 {
		t.Errorf("rebuilt frame has %d nodes, %d edges", len(f.Nodes), len(f.Edges))
	}
	if _, ok := e.Selected(); ok {
		t.Error("selection of a removed id should be dropped")
	}
	if id, ok := e.Hovered(); !ok || id != "B" {
		t.Errorf("hover on a surviving id should stay, got %q", id)
	}
	if e.Transform() != kept {
		t.Errorf("transform = %+v, want kept %+v", e.Transform(), kept)
	}
}

func TestSetTree_Empty(t *testing.T) {
	e := New(nil, stillOptions())
	f := e.Frame(at(0))
	if len(f.Nodes) != 0 || len(f.Edges) != 0 {
		t.Errorf("empty tree frame = %+v", f)
	}
	if _, ok := e.HitTest(r2.Vec{X: 640, Y: 400}); ok {
		t.Error("nothing to hit in an empty constellation")
	}
}

func TestRelated(t *testing.T) {
	e := New(scenarioTree(), stillOptions())
	got := e.Related("A")
	for _, id := range []string{"A", "root", "A1"} {
		if !got[id] {
			t.Errorf("Related(A) missing %s: %v", id, got)
		}
	}
	if got["B"] {
		t.Error("sibling is not related")
	}
	if e.Related("ghost") != nil {
		t.Error("unknown id should have no related set")
	}
}

func TestPause_FreezesPhysics(t *testing.T) {
	opts := stillOptions()
	opts.Layout.Physics = layout.DefaultPhysics()
	e := New(scenarioTree(), opts)
	e.Frame(at(0))

	e.Pause()
	before, _ := e.Snapshot().Node("B")
	runFrames(e, 16, 800)
	after, _ := e.Snapshot().Node("B")
	if before != after {
		t.Errorf("node moved while paused: %+v -> %+v", before, after)
	}

	e.Resume()
	runFrames(e, 816, 900)
	moved, _ := e.Snapshot().Node("B")
	if moved == after {
		t.Error("node should move again after Resume")
	}
}

func TestViewportPersistence(t *testing.T) {
	opts := stillOptions()
	e := New(scenarioTree(), opts)
	if e.HasSavedViewport() {
		t.Error("fresh store should have no saved view")
	}
	e.Camera().PanBy(-50, 25)
	e.Camera().ZoomBy(2)
	saved := e.Transform()
	if err := e.SaveViewport(); err != nil {
		t.Fatalf("SaveViewport: %v", err)
	}

	e.ResetViewport()
	if e.Transform() == saved {
		t.Fatal("reset should move the camera")
	}
	if !e.RestoreViewport() {
		t.Fatal("RestoreViewport found nothing")
	}
	if e.Transform() != saved {
		t.Errorf("restored %+v, want %+v", e.Transform(), saved)
	}

	// A second engine over the same store starts from the saved view.
	other := New(scenarioTree(), opts)
	if !other.RestoreViewport() || other.Transform() != saved {
		t.Errorf("second engine restored %+v", other.Transform())
	}
}

func TestViewportPersistence_NoStore(t *testing.T) {
	opts := stillOptions()
	opts.Store = nil
	e := New(scenarioTree(), opts)
	if err := e.SaveViewport(); err != nil {
		t.Errorf("SaveViewport without store = %v", err)
	}
	if e.RestoreViewport() || e.HasSavedViewport() {
		t.Error("no store means nothing to restore")
	}
}

func TestClose_StopsTasks(t *testing.T) {
	opts := stillOptions()
	opts.Layout.Physics = layout.DefaultPhysics()
	e := New(scenarioTree(), opts)
	e.Frame(at(0))
	e.Close()
	last := e.Snapshot()
	f := runFrames(e, 16, 500)
	if f.Seq != last.Seq {
		t.Errorf("frames advanced after Close: %d -> %d", last.Seq, f.Seq)
	}
	e.HandleEvent(gesture.Event{Kind: gesture.Press, Points: []r2.Vec{{X: 640, Y: 400}}})
	if e.Gesture() != gesture.Idle {
		t.Error("closed engine should ignore input")
	}
}
