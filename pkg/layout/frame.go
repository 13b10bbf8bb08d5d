package layout

import "math"

// NodeView is what a renderer needs to draw one node.
type NodeView struct {
	ID     string  `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"radius"`
	Color  string  `json:"color"`
	Depth  int     `json:"depth"`
}

// EdgeView is an edge with both endpoints resolved to positions.
type EdgeView struct {
	SourceID string  `json:"source"`
	TargetID string  `json:"target"`
	X1       float64 `json:"x1"`
	Y1       float64 `json:"y1"`
	X2       float64 `json:"x2"`
	Y2       float64 `json:"y2"`
}

// Frame is an immutable snapshot of the arena, published once per step.
type Frame struct {
	Seq   uint64     `json:"seq"`
	Nodes []NodeView `json:"nodes"`
	Edges []EdgeView `json:"edges"`
}

// Bounds is an axis-aligned box in simulation space.
type Bounds struct {
	MinX, MinY, MaxX, MaxY float64
}

// Width of the box
func (b Bounds) Width() float64 { return b.MaxX - b.MinX }

// Height of the box
func (b Bounds) Height() float64 { return b.MaxY - b.MinY }

func (s *Simulator) snapshot() Frame {
	f := Frame{
		Seq:   s.steps,
		Nodes: make([]NodeView, len(s.nodes)),
		Edges: make([]EdgeView, len(s.edges)),
	}
	for i, n := range s.nodes {
		f.Nodes[i] = NodeView{
			ID:     n.ID,
			X:      n.Pos.X,
			Y:      n.Pos.Y,
			Radius: n.Radius,
			Color:  n.Color,
			Depth:  n.Depth,
		}
	}
	for i, e := range s.edges {
		src, dst := s.nodes[e.Source].Pos, s.nodes[e.Target].Pos
		f.Edges[i] = EdgeView{
			SourceID: e.SourceID,
			TargetID: e.TargetID,
			X1:       src.X,
			Y1:       src.Y,
			X2:       dst.X,
			Y2:       dst.Y,
		}
	}
	return f
}

// Node finds a node view by id
func (f Frame) Node(id string) (NodeView, bool) {
	for _, n := range f.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return NodeView{}, false
}

// Bounds returns the box enclosing every node body, padded by pad.
// An empty frame yields a zero-size box at the origin grown by pad.
func (f Frame) Bounds(pad float64) Bounds {
	if len(f.Nodes) == 0 {
		return Bounds{MinX: -pad, MinY: -pad, MaxX: pad, MaxY: pad}
	}
	b := Bounds{
		MinX: math.Inf(1), MinY: math.Inf(1),
		MaxX: math.Inf(-1), MaxY: math.Inf(-1),
	}
	for _, n := range f.Nodes {
		b.MinX = math.Min(b.MinX, n.X-n.Radius)
		b.MinY = math.Min(b.MinY, n.Y-n.Radius)
		b.MaxX = math.Max(b.MaxX, n.X+n.Radius)
		b.MaxY = math.Max(b.MaxY, n.Y+n.Radius)
	}
	b.MinX -= pad
	b.MinY -= pad
	b.MaxX += pad
	b.MaxY += pad
	return b
}
