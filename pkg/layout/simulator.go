package layout

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Simulator owns the node arena and advances it one physics step at a time.
// It is not safe for concurrent use; the engine drives it from one goroutine.
type Simulator struct {
	physics Physics
	nodes   []Node
	edges   []Edge
	index   map[string]int

	steps uint64
	frame Frame
}

// NewSimulator takes ownership of nodes and resolves edges to arena indices.
// Edges whose endpoints are not in the arena are dropped.
func NewSimulator(nodes []Node, edges []Edge, physics Physics) *Simulator {
	s := &Simulator{
		physics: physics,
		nodes:   nodes,
		index:   make(map[string]int, len(nodes)),
	}
	for i := range nodes {
		s.index[nodes[i].ID] = i
	}

	s.edges = make([]Edge, 0, len(edges))
	for _, e := range edges {
		src, ok := s.index[e.SourceID]
		if !ok {
			continue
		}
		dst, ok := s.index[e.TargetID]
		if !ok {
			continue
		}
		e.Source, e.Target = src, dst
		s.edges = append(s.edges, e)
	}

	s.frame = s.snapshot()
	return s
}

// Physics returns the constants in use
func (s *Simulator) Physics() Physics {
	return s.physics
}

// Len returns the number of nodes
func (s *Simulator) Len() int {
	return len(s.nodes)
}

// Steps returns how many steps have run
func (s *Simulator) Steps() uint64 {
	return s.steps
}

// Step applies gravity, repulsion and springs to every unpinned node, then
// integrates velocity into position and damps it. Pinned nodes still push
// and pull on the others.
func (s *Simulator) Step() {
	p := s.physics
	nodes := s.nodes

	for i := range nodes {
		if nodes[i].Pinned {
			continue
		}
		nodes[i].Vel = r2.Add(nodes[i].Vel, r2.Scale(-p.CenterGravity, nodes[i].Pos))
	}

	for i := 0; i < len(nodes); i++ {
		for j := i + 1; j < len(nodes); j++ {
			a, b := &nodes[i], &nodes[j]
			d := r2.Sub(a.Pos, b.Pos)
			distSq := r2.Norm2(d)
			var dir r2.Vec
			if distSq == 0 {
				// Coincident points have no direction; push a along +X and b along -X.
				distSq = 1
				dir = r2.Vec{X: 1}
			} else {
				dir = r2.Scale(1/math.Sqrt(distSq), d)
			}
			f := r2.Scale(p.Repulsion/distSq, dir)

			if !a.Pinned {
				a.Vel = r2.Add(a.Vel, f)
			}
			if !b.Pinned {
				b.Vel = r2.Sub(b.Vel, f)
			}
		}
	}

	for _, e := range s.edges {
		src, dst := &nodes[e.Source], &nodes[e.Target]
		d := r2.Sub(dst.Pos, src.Pos)
		dist := r2.Norm(d)
		if dist == 0 {
			dist = 1
		}
		force := (dist - p.SpringLength) * p.SpringStiffness
		f := r2.Scale(force/dist, d)

		if !src.Pinned {
			src.Vel = r2.Add(src.Vel, f)
		}
		if !dst.Pinned {
			dst.Vel = r2.Sub(dst.Vel, f)
		}
	}

	for i := range nodes {
		if nodes[i].Pinned {
			continue
		}
		nodes[i].Pos = r2.Add(nodes[i].Pos, nodes[i].Vel)
		nodes[i].Vel = r2.Scale(p.Damping, nodes[i].Vel)
	}

	s.steps++
}

// Tick runs one step and publishes the result, so consumers of Frame never
// see a mix of positions from two steps.
func (s *Simulator) Tick() Frame {
	s.Step()
	return s.Publish()
}

// Publish snapshots the current arena as the frame consumers read.
// Direct writes (drags) become visible on the next Publish.
func (s *Simulator) Publish() Frame {
	s.frame = s.snapshot()
	return s.frame
}

// Frame returns the last published frame
func (s *Simulator) Frame() Frame {
	return s.frame
}

// Pin hands ownership of a node to the caller until Unpin. Its velocity is
// cleared so it does not drift once released.
func (s *Simulator) Pin(id string) bool {
	i, ok := s.index[id]
	if !ok {
		return false
	}
	s.nodes[i].Pinned = true
	s.nodes[i].Vel = r2.Vec{}
	return true
}

// Unpin returns a node to the simulator.
func (s *Simulator) Unpin(id string) {
	if i, ok := s.index[id]; ok {
		s.nodes[i].Pinned = false
	}
}

// IsPinned reports whether id is currently pinned
func (s *Simulator) IsPinned(id string) bool {
	i, ok := s.index[id]
	return ok && s.nodes[i].Pinned
}

// DragBy moves a pinned node by delta (simulation units) and zeroes its
// velocity. Unpinned nodes belong to the simulator and are left alone.
func (s *Simulator) DragBy(id string, delta r2.Vec) bool {
	i, ok := s.index[id]
	if !ok || !s.nodes[i].Pinned {
		return false
	}
	s.nodes[i].Pos = r2.Add(s.nodes[i].Pos, delta)
	s.nodes[i].Vel = r2.Vec{}
	return true
}

// SetPosition places a node and clears its velocity.
func (s *Simulator) SetPosition(id string, pos r2.Vec) bool {
	i, ok := s.index[id]
	if !ok {
		return false
	}
	s.nodes[i].Pos = pos
	s.nodes[i].Vel = r2.Vec{}
	return true
}

// Position returns the live position of a node
func (s *Simulator) Position(id string) (r2.Vec, bool) {
	i, ok := s.index[id]
	if !ok {
		return r2.Vec{}, false
	}
	return s.nodes[i].Pos, true
}

// Node returns a copy of the node with the given id
func (s *Simulator) Node(id string) (Node, bool) {
	i, ok := s.index[id]
	if !ok {
		return Node{}, false
	}
	return s.nodes[i], true
}

// Nodes returns a copy of the arena
func (s *Simulator) Nodes() []Node {
	out := make([]Node, len(s.nodes))
	copy(out, s.nodes)
	return out
}

// Edges returns the resolved edges
func (s *Simulator) Edges() []Edge {
	out := make([]Edge, len(s.edges))
	copy(out, s.edges)
	return out
}

// Children returns the ids of the direct children of id
func (s *Simulator) Children(id string) []string {
	var out []string
	for _, e := range s.edges {
		if e.SourceID == id {
			out = append(out, e.TargetID)
		}
	}
	return out
}

// KineticEnergy is the sum of squared velocities over all nodes.
func (s *Simulator) KineticEnergy() float64 {
	total := 0.0
	for i := range s.nodes {
		total += r2.Norm2(s.nodes[i].Vel)
	}
	return total
}
