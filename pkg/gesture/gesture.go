// Package gesture interprets pointer and touch streams as camera moves and
// node drags.
//
// The Controller is a small state machine:
//
//	Idle --press on node--------> DraggingNode
//	Idle --press on background--> PanningBackground
//	Idle --two touches----------> PinchZooming
//	any  --release, none left---> Idle
//
// Only one interpretation is active at a time. A second finger landing
// during a node drag releases the node and becomes a pinch.
package gesture

import (
	"math"
	"time"

	"gonum.org/v1/gonum/spatial/r2"
)

// State of the controller
type State int

const (
	Idle State = iota
	PanningBackground
	DraggingNode
	PinchZooming
)

// String returns a display name for the state
func (s State) String() string {
	switch s {
	case PanningBackground:
		return "panning"
	case DraggingNode:
		return "dragging"
	case PinchZooming:
		return "pinching"
	default:
		return "idle"
	}
}

// Kind of input event
type Kind int

const (
	Press Kind = iota
	Move
	Release
	Wheel
)

// Source distinguishes mouse input from touch input
type Source int

const (
	Mouse Source = iota
	Touch
)

// Event is one raw input event in screen coordinates.
type Event struct {
	Kind   Kind
	Source Source
	// Points are the pointers currently down. For Release, the ones still down.
	Points []r2.Vec
	// NodeID is the node under the press, empty for the background
	NodeID     string
	WheelDelta float64
	Time       time.Time
}

// Camera is the part of the viewport the controller drives.
type Camera interface {
	Scale() float64
	PanBy(dx, dy float64)
	ZoomBy(factor float64)
	Wheel(deltaY float64)
	Cancel()
}

// Nodes is the part of the simulator the controller drives.
type Nodes interface {
	Pin(id string) bool
	Unpin(id string)
	DragBy(id string, delta r2.Vec) bool
}

// Settings tune gesture recognition.
type Settings struct {
	DoubleTapWindow time.Duration `yaml:"double_tap_window"`
	DoubleTapZoom   float64       `yaml:"double_tap_zoom"`
	PinchDamping    float64       `yaml:"pinch_damping"`
}

// DefaultSettings returns the stock gesture settings.
func DefaultSettings() Settings {
	return Settings{
		DoubleTapWindow: 300 * time.Millisecond,
		DoubleTapZoom:   1.5,
		PinchDamping:    0.8,
	}
}

// Controller turns events into camera and node operations.
type Controller struct {
	settings Settings
	camera   Camera
	nodes    Nodes
	onSelect func(id string)

	state     State
	activeID  string
	last      r2.Vec
	pinchDist float64

	lastTap     time.Time
	tapArmed    bool
	extraFinger bool
}

// New creates a controller. onSelect runs on every press that lands on a node.
func New(camera Camera, nodes Nodes, onSelect func(id string), settings Settings) *Controller {
	return &Controller{
		settings: settings,
		camera:   camera,
		nodes:    nodes,
		onSelect: onSelect,
	}
}

// State returns the current state
func (c *Controller) State() State {
	return c.state
}

// ActiveNode returns the node being dragged, if any
func (c *Controller) ActiveNode() (string, bool) {
	if c.state != DraggingNode {
		return "", false
	}
	return c.activeID, true
}

// SetNodes swaps the node collaborator, dropping any drag in progress.
// Used when the arena is rebuilt.
func (c *Controller) SetNodes(nodes Nodes) {
	if c.state == DraggingNode {
		c.state = Idle
		c.activeID = ""
	}
	c.nodes = nodes
}

// Reset abandons the current gesture, releasing any pinned node.
func (c *Controller) Reset() {
	c.endDrag()
	c.state = Idle
	c.pinchDist = 0
}

// Handle processes one event.
func (c *Controller) Handle(ev Event) {
	switch ev.Kind {
	case Press:
		c.press(ev)
	case Move:
		c.move(ev)
	case Release:
		c.release(ev)
	case Wheel:
		c.camera.Wheel(ev.WheelDelta)
	}
}

func (c *Controller) press(ev Event) {
	if len(ev.Points) == 0 {
		return
	}
	c.camera.Cancel()

	if len(ev.Points) >= 2 {
		c.startPinch(ev.Points)
		return
	}

	if ev.Source == Touch && ev.NodeID == "" && c.isDoubleTap(ev.Time) {
		c.tapArmed = false
		c.camera.ZoomBy(c.settings.DoubleTapZoom)
		return
	}
	if ev.Source == Touch && ev.NodeID == "" {
		c.lastTap = ev.Time
		c.tapArmed = true
		c.extraFinger = false
	}

	// A fresh single press ends whatever the previous stream left behind.
	c.endDrag()

	c.last = ev.Points[0]
	if ev.NodeID != "" && c.nodes.Pin(ev.NodeID) {
		c.state = DraggingNode
		c.activeID = ev.NodeID
		if c.onSelect != nil {
			c.onSelect(ev.NodeID)
		}
		return
	}
	c.state = PanningBackground
}

func (c *Controller) isDoubleTap(now time.Time) bool {
	if !c.tapArmed || c.extraFinger || c.state == PinchZooming {
		return false
	}
	elapsed := now.Sub(c.lastTap)
	return elapsed >= 0 && elapsed < c.settings.DoubleTapWindow
}

func (c *Controller) startPinch(points []r2.Vec) {
	c.endDrag()
	c.extraFinger = true
	c.state = PinchZooming
	c.pinchDist = distance(points[0], points[1])
}

func (c *Controller) move(ev Event) {
	if len(ev.Points) == 0 {
		return
	}
	p := ev.Points[0]

	switch c.state {
	case DraggingNode:
		k := c.camera.Scale()
		if k == 0 {
			k = 1
		}
		delta := r2.Scale(1/k, r2.Sub(p, c.last))
		if !c.nodes.DragBy(c.activeID, delta) {
			// The node vanished under us (arena rebuilt); stop dragging.
			c.state = Idle
			c.activeID = ""
		}
		c.last = p

	case PanningBackground:
		d := r2.Sub(p, c.last)
		c.camera.PanBy(d.X, d.Y)
		c.last = p

	case PinchZooming:
		if len(ev.Points) < 2 {
			return
		}
		dist := distance(ev.Points[0], ev.Points[1])
		if c.pinchDist > 0 && dist > 0 {
			ratio := dist / c.pinchDist
			c.camera.ZoomBy(1 + (ratio-1)*c.settings.PinchDamping)
		}
		c.pinchDist = dist
	}
}

func (c *Controller) release(ev Event) {
	if len(ev.Points) > 0 {
		// Fingers remain: a pinch stays a pinch until all are lifted, and a
		// drag or pan keeps going with the remaining pointer.
		if c.state != PinchZooming {
			c.last = ev.Points[0]
		}
		return
	}
	c.endDrag()
	c.state = Idle
	c.pinchDist = 0
}

func (c *Controller) endDrag() {
	if c.state == DraggingNode && c.activeID != "" && c.nodes != nil {
		c.nodes.Unpin(c.activeID)
	}
	c.activeID = ""
	if c.state == DraggingNode {
		c.state = Idle
	}
}

func distance(a, b r2.Vec) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}
