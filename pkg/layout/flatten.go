package layout

import (
	"math"
	"math/rand"
	"time"

	"github.com/Dicklesworthstone/constellation_viewer/pkg/model"

	"gonum.org/v1/gonum/spatial/r2"
)

// Node is one LayoutNode in the simulation arena. Nodes are addressed by
// their index in the arena; Parent is -1 for the root.
type Node struct {
	ID          string
	ParentID    string
	Parent      int
	Depth       int
	Color       string
	Radius      float64
	Label       string
	Description string

	Pos r2.Vec
	Vel r2.Vec

	// Pinned nodes are owned by a manual drag and skipped by the simulator
	Pinned bool
}

// IsRoot reports whether the node has no parent
func (n Node) IsRoot() bool {
	return n.Parent < 0
}

// Edge is a parent-child spring. Source and Target are arena indices,
// filled in when a Simulator resolves the edge list.
type Edge struct {
	SourceID string
	TargetID string
	Source   int
	Target   int
}

// Flattener converts a concept tree into an arena of nodes and edges.
type Flattener struct {
	cfg Config
	rng *rand.Rand
}

// NewFlattener creates a flattener. A nil rng is seeded from cfg.Seed, or
// from the clock when the seed is zero.
func NewFlattener(cfg Config, rng *rand.Rand) *Flattener {
	if rng == nil {
		seed := cfg.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		rng = rand.New(rand.NewSource(seed))
	}
	return &Flattener{cfg: cfg, rng: rng}
}

// angleRange is the sector [start, end) owned by a subtree.
type angleRange struct {
	start, end float64
}

func (a angleRange) mid() float64 {
	return a.start + (a.end-a.start)/2
}

// Flatten walks the tree depth-first and returns one Node per concept and one
// Edge per non-root concept. Parents always precede their children in the
// returned slice. A nil root yields empty results.
func (f *Flattener) Flatten(root *model.ConceptNode) ([]Node, []Edge) {
	if root == nil {
		return nil, nil
	}

	nodes := make([]Node, 0, root.Count())
	edges := make([]Edge, 0, cap(nodes))

	var visit func(c *model.ConceptNode, depth, parent, colorIndex int, sector angleRange)
	visit = func(c *model.ConceptNode, depth, parent, colorIndex int, sector angleRange) {
		node := Node{
			ID:          c.ID,
			Parent:      parent,
			Depth:       depth,
			Radius:      f.cfg.RadiusForDepth(depth),
			Label:       c.DisplayLabel(),
			Description: c.Description,
		}

		switch {
		case depth == 0:
			node.Color = f.cfg.DefaultColor
		case depth == 1:
			node.Color = f.cfg.BranchColor(colorIndex)
		default:
			node.Color = nodes[parent].Color
		}

		if parent >= 0 {
			node.ParentID = nodes[parent].ID
			angle := sector.mid()
			spread := float64(depth) * f.cfg.LevelSpread
			node.Pos = r2.Vec{
				X: math.Cos(angle)*spread + f.jitter(),
				Y: math.Sin(angle)*spread + f.jitter(),
			}
			edges = append(edges, Edge{SourceID: node.ParentID, TargetID: node.ID, Source: parent, Target: len(nodes)})
		}

		self := len(nodes)
		nodes = append(nodes, node)

		children := make([]*model.ConceptNode, 0, len(c.Children))
		for _, child := range c.Children {
			if child != nil {
				children = append(children, child)
			}
		}
		if len(children) == 0 {
			return
		}

		step := (sector.end - sector.start) / float64(len(children))
		for i, child := range children {
			childColor := colorIndex
			if depth == 0 {
				childColor = i
			}
			visit(child, depth+1, self, childColor, angleRange{
				start: sector.start + float64(i)*step,
				end:   sector.start + float64(i+1)*step,
			})
		}
	}

	visit(root, 0, -1, 0, angleRange{start: 0, end: 2 * math.Pi})
	return nodes, edges
}

// jitter returns a uniform offset in [-Jitter, +Jitter].
func (f *Flattener) jitter() float64 {
	return (f.rng.Float64() - 0.5) * 2 * f.cfg.Jitter
}
