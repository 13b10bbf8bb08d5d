// Package engine wires the layout, camera and gesture packages into the
// object a renderer drives: feed it input events and a clock, read back
// frames and a camera transform.
package engine

import (
	"math/rand"
	"time"

	"github.com/Dicklesworthstone/constellation_viewer/pkg/gesture"
	"github.com/Dicklesworthstone/constellation_viewer/pkg/layout"
	"github.com/Dicklesworthstone/constellation_viewer/pkg/model"
	"github.com/Dicklesworthstone/constellation_viewer/pkg/scheduler"
	"github.com/Dicklesworthstone/constellation_viewer/pkg/viewport"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r2"
)

// SimulationTask is the scheduler name of the physics loop.
const SimulationTask = "layout.simulate"

// Glow radius factors used for hit testing and rendering.
const (
	GlowFactor         = 1.8
	GlowFactorHovered  = 2.5
	GlowFactorSelected = 3.0
)

// Options configure an Engine. Zero values fall back to defaults.
type Options struct {
	Layout  layout.Config
	Camera  viewport.Settings
	Gesture gesture.Settings
	// Store backs SaveViewport and RestoreViewport; nil disables them
	Store  viewport.Store
	Logger *zap.Logger
	// Rand drives the flattener's jitter; nil seeds from Layout.Seed
	Rand          *rand.Rand
	Width, Height float64
}

// DefaultOptions returns options with every default filled in.
func DefaultOptions() Options {
	return Options{
		Layout:  layout.DefaultConfig(),
		Camera:  viewport.DefaultSettings(),
		Gesture: gesture.DefaultSettings(),
	}
}

// Engine owns one constellation: the arena built from the current tree, the
// camera looking at it, and the gesture controller feeding both.
type Engine struct {
	opts   Options
	logger *zap.Logger

	sched    *scheduler.Scheduler
	simTask  *scheduler.Handle
	camera   *viewport.Camera
	gestures *gesture.Controller
	flat     *layout.Flattener

	tree    *model.ConceptNode
	byID    map[string]*model.ConceptNode
	sim     *layout.Simulator
	started bool

	selected string
	hovered  string
	onSelect func(*model.ConceptNode)

	paused bool
	closed bool
}

// New builds the arena for tree and sets the camera to its initial view.
// A nil tree is an empty constellation.
func New(tree *model.ConceptNode, opts Options) *Engine {
	opts = withDefaults(opts)
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	e := &Engine{
		opts:   opts,
		logger: logger,
		sched:  scheduler.New(),
		flat:   layout.NewFlattener(opts.Layout, opts.Rand),
	}

	// The simulation task is registered first so that, within a frame,
	// positions are stepped before any camera animation reads them.
	e.simTask = e.sched.Start(SimulationTask, scheduler.TaskFunc(e.simulate))

	e.camera = viewport.NewCamera(e.sched, opts.Camera, logger.Named("camera"))
	e.camera.Resize(opts.Width, opts.Height)
	e.camera.Reset()

	e.gestures = gesture.New(e.camera, nil, e.selectFromGesture, opts.Gesture)
	e.SetTree(tree)
	return e
}

func withDefaults(opts Options) Options {
	def := DefaultOptions()
	if len(opts.Layout.Palette) == 0 {
		opts.Layout = def.Layout
	}
	if opts.Camera.ZoomStep == 0 {
		opts.Camera = def.Camera
	}
	if opts.Gesture.DoubleTapZoom == 0 {
		opts.Gesture = def.Gesture
	}
	return opts
}

// SetTree discards the arena and rebuilds it from tree. The camera transform
// is kept; the selection is kept if its id survives.
func (e *Engine) SetTree(tree *model.ConceptNode) {
	e.gestures.Reset()

	nodes, edges := e.flat.Flatten(tree)
	e.sim = layout.NewSimulator(nodes, edges, e.opts.Layout.Physics)
	e.gestures.SetNodes(e.sim)

	e.tree = tree
	e.byID = make(map[string]*model.ConceptNode, len(nodes))
	if tree != nil {
		tree.Walk(func(n *model.ConceptNode, _ int) bool {
			e.byID[n.ID] = n
			return true
		})
	}

	if _, ok := e.byID[e.selected]; !ok {
		e.selected = ""
	}
	if _, ok := e.byID[e.hovered]; !ok {
		e.hovered = ""
	}

	e.logger.Info("arena built",
		zap.Int("nodes", len(nodes)),
		zap.Int("edges", len(edges)),
		zap.Bool("rebuild", e.started))
	e.started = true
}

// Tree returns the current concept tree
func (e *Engine) Tree() *model.ConceptNode {
	return e.tree
}

// Concept returns the concept with the given id
func (e *Engine) Concept(id string) (*model.ConceptNode, bool) {
	n, ok := e.byID[id]
	return n, ok
}

func (e *Engine) simulate(time.Time) bool {
	if e.closed {
		return false
	}
	if e.paused {
		e.sim.Publish()
	} else {
		e.sim.Tick()
	}
	return true
}

// Frame advances every scheduled task by one frame and returns the frame to
// draw.
func (e *Engine) Frame(now time.Time) layout.Frame {
	e.sched.Frame(now)
	return e.sim.Frame()
}

// Snapshot returns the last published frame without advancing anything
func (e *Engine) Snapshot() layout.Frame {
	return e.sim.Frame()
}

// Simulator exposes the live arena
func (e *Engine) Simulator() *layout.Simulator {
	return e.sim
}

// Camera exposes the viewport camera
func (e *Engine) Camera() *viewport.Camera {
	return e.camera
}

// Transform returns the current camera transform
func (e *Engine) Transform() viewport.Transform {
	return e.camera.Transform()
}

// Gesture returns the current gesture state
func (e *Engine) Gesture() gesture.State {
	return e.gestures.State()
}

// HandleEvent feeds one input event to the gesture controller. Press events
// with no NodeID are hit-tested first, so callers may pass raw pointer input.
func (e *Engine) HandleEvent(ev gesture.Event) {
	if e.closed {
		return
	}
	if ev.Kind == gesture.Press && ev.NodeID == "" && len(ev.Points) == 1 {
		if id, ok := e.HitTest(ev.Points[0]); ok {
			ev.NodeID = id
		}
	}
	e.gestures.Handle(ev)
}

// HitTest returns the node whose glow contains the screen point. When glows
// overlap the one drawn last (deepest in arena order) wins.
func (e *Engine) HitTest(screen r2.Vec) (string, bool) {
	t := e.camera.Transform()
	p := t.ToSim(screen)
	frame := e.sim.Frame()
	for i := len(frame.Nodes) - 1; i >= 0; i-- {
		n := frame.Nodes[i]
		r := n.Radius * e.glowFactor(n.ID)
		dx, dy := p.X-n.X, p.Y-n.Y
		if dx*dx+dy*dy <= r*r {
			return n.ID, true
		}
	}
	return "", false
}

// GlowRadius is the radius of the highlight ring drawn around a node, which
// is also its hit target.
func (e *Engine) GlowRadius(n layout.NodeView) float64 {
	return n.Radius * e.glowFactor(n.ID)
}

func (e *Engine) glowFactor(id string) float64 {
	switch id {
	case e.selected:
		return GlowFactorSelected
	case e.hovered:
		return GlowFactorHovered
	default:
		return GlowFactor
	}
}

// FocusNode flies the camera to the node's current position. It reports
// false, and does nothing, if the id is unknown.
func (e *Engine) FocusNode(id string) bool {
	pos, ok := e.sim.Position(id)
	if !ok {
		e.logger.Debug("focus on unknown node", zap.String("id", id))
		return false
	}
	e.camera.FlyTo(pos)
	return true
}

// Select marks a node as selected, notifies OnSelect and focuses it. An empty
// id clears the selection.
func (e *Engine) Select(id string) bool {
	if id == "" {
		e.selected = ""
		return true
	}
	concept, ok := e.byID[id]
	if !ok {
		return false
	}
	e.selected = id
	if e.onSelect != nil {
		e.onSelect(concept)
	}
	return e.FocusNode(id)
}

func (e *Engine) selectFromGesture(id string) {
	e.Select(id)
}

// OnSelect registers the selection callback
func (e *Engine) OnSelect(fn func(*model.ConceptNode)) {
	e.onSelect = fn
}

// Selected returns the selected id, if any
func (e *Engine) Selected() (string, bool) {
	return e.selected, e.selected != ""
}

// SetHover sets the hovered node; an empty or unknown id clears it.
func (e *Engine) SetHover(id string) {
	if _, ok := e.byID[id]; !ok {
		id = ""
	}
	e.hovered = id
}

// Hovered returns the hovered id, if any
func (e *Engine) Hovered() (string, bool) {
	return e.hovered, e.hovered != ""
}

// Related returns id together with its parent and children, the set that is
// highlighted while id is hovered.
func (e *Engine) Related(id string) map[string]bool {
	n, ok := e.sim.Node(id)
	if !ok {
		return nil
	}
	out := map[string]bool{id: true}
	if n.ParentID != "" {
		out[n.ParentID] = true
	}
	for _, child := range e.sim.Children(id) {
		out[child] = true
	}
	return out
}

// SaveViewport persists the camera transform.
func (e *Engine) SaveViewport() error {
	if e.opts.Store == nil {
		return nil
	}
	return e.camera.Save(e.opts.Store)
}

// RestoreViewport applies the persisted transform, reporting whether one was
// applied.
func (e *Engine) RestoreViewport() bool {
	if e.opts.Store == nil {
		return false
	}
	return e.camera.Restore(e.opts.Store)
}

// HasSavedViewport reports whether a saved transform exists
func (e *Engine) HasSavedViewport() bool {
	return e.opts.Store != nil && e.camera.HasSaved(e.opts.Store)
}

// ResetViewport returns the camera to its initial view
func (e *Engine) ResetViewport() {
	e.camera.Reset()
}

// Pause freezes the physics. Drags still apply.
func (e *Engine) Pause() {
	e.paused = true
}

// Resume restarts the physics
func (e *Engine) Resume() {
	e.paused = false
}

// Paused reports whether the physics is frozen
func (e *Engine) Paused() bool {
	return e.paused
}

// Resize records a new viewport size. The transform is left alone.
func (e *Engine) Resize(width, height float64) {
	e.camera.Resize(width, height)
}

// Close stops every task. The engine keeps serving its last frame.
func (e *Engine) Close() {
	if e.closed {
		return
	}
	e.closed = true
	e.gestures.Reset()
	e.sched.StopAll()
	e.logger.Debug("engine closed", zap.Uint64("frames", e.sched.Frames()))
}
