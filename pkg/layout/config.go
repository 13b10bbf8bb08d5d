// Package layout turns a concept tree into a force-directed constellation.
//
// The Flattener builds an arena of Nodes and parent-child Edges from the
// tree, and the Simulator relaxes that arena one Step per frame under center
// gravity, pairwise repulsion, edge springs and velocity damping.
package layout

// Physics holds the constants of the per-frame force step.
type Physics struct {
	// Repulsion is the numerator of the inverse-square push between every pair
	Repulsion float64 `yaml:"repulsion"`
	// SpringLength is the rest length of parent-child edges
	SpringLength float64 `yaml:"spring_length"`
	// SpringStiffness scales the deviation from SpringLength into a force
	SpringStiffness float64 `yaml:"spring_stiffness"`
	// CenterGravity pulls every node linearly toward the origin
	CenterGravity float64 `yaml:"center_gravity"`
	// Damping multiplies velocity after each integration (< 1 bleeds energy)
	Damping float64 `yaml:"damping"`
}

// DefaultPhysics returns the constants the constellation was tuned with.
func DefaultPhysics() Physics {
	return Physics{
		Repulsion:       8000,
		SpringLength:    130,
		SpringStiffness: 0.06,
		CenterGravity:   0.005,
		Damping:         0.85,
	}
}

// DefaultPalette colors the depth-1 branches (teal, purple, rose, amber, sky, emerald).
var DefaultPalette = []string{
	"#2dd4bf",
	"#c084fc",
	"#fb7185",
	"#fbbf24",
	"#38bdf8",
	"#34d399",
}

// DefaultColor is used for the root and anything without a branch.
const DefaultColor = "#94a3b8"

// Config controls how a tree is flattened and simulated.
type Config struct {
	Physics      Physics  `yaml:"physics"`
	Palette      []string `yaml:"palette"`
	DefaultColor string   `yaml:"default_color"`

	// LevelSpread is the initial distance between depth rings
	LevelSpread float64 `yaml:"level_spread"`
	// Jitter bounds the per-axis random offset of initial positions
	Jitter float64 `yaml:"jitter"`
	// Radii by depth tier: root, depth 1, depth 2, depth 3 and deeper
	Radii [4]float64 `yaml:"radii"`
	// Seed for the jitter source; 0 picks a time-based seed
	Seed int64 `yaml:"seed"`
}

// DefaultConfig returns the stock layout configuration.
func DefaultConfig() Config {
	palette := make([]string, len(DefaultPalette))
	copy(palette, DefaultPalette)
	return Config{
		Physics:      DefaultPhysics(),
		Palette:      palette,
		DefaultColor: DefaultColor,
		LevelSpread:  160,
		Jitter:       30,
		Radii:        [4]float64{35, 22, 12, 6},
	}
}

// RadiusForDepth maps a hierarchy depth to its radius tier.
func (c Config) RadiusForDepth(depth int) float64 {
	switch {
	case depth <= 0:
		return c.Radii[0]
	case depth >= len(c.Radii)-1:
		return c.Radii[len(c.Radii)-1]
	default:
		return c.Radii[depth]
	}
}

// BranchColor returns the palette slot for the i-th depth-1 sibling.
func (c Config) BranchColor(siblingIndex int) string {
	if len(c.Palette) == 0 {
		return c.DefaultColor
	}
	return c.Palette[siblingIndex%len(c.Palette)]
}
