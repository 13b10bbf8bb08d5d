package ui

import (
	"math"
	"strings"

	"github.com/Dicklesworthstone/constellation_viewer/pkg/layout"
	"github.com/Dicklesworthstone/constellation_viewer/pkg/viewport"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"gonum.org/v1/gonum/spatial/r2"
)

// continuation marks the right half of a double-width rune.
const continuation rune = -1

type cell struct {
	r     rune
	color lipgloss.TerminalColor
	bold  bool
}

// canvas is a grid of terminal cells that frames are rasterized into.
type canvas struct {
	w, h  int
	cells []cell
}

func newCanvas(w, h int) *canvas {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	c := &canvas{w: w, h: h, cells: make([]cell, w*h)}
	for i := range c.cells {
		c.cells[i].r = ' '
	}
	return c
}

func (c *canvas) at(x, y int) (cell, bool) {
	if x < 0 || x >= c.w || y < 0 || y >= c.h {
		return cell{}, false
	}
	return c.cells[y*c.w+x], true
}

func (c *canvas) set(x, y int, r rune, color lipgloss.TerminalColor, bold bool) {
	if x < 0 || x >= c.w || y < 0 || y >= c.h {
		return
	}
	i := y*c.w + x
	// Overwriting half of a wide rune blanks the other half.
	if c.cells[i].r == continuation && x > 0 {
		c.cells[i-1] = cell{r: ' '}
	}
	if x+1 < c.w && c.cells[i+1].r == continuation {
		c.cells[i+1] = cell{r: ' '}
	}
	c.cells[i] = cell{r: r, color: color, bold: bold}
}

func (c *canvas) empty(x, y int) bool {
	cl, ok := c.at(x, y)
	return ok && cl.r == ' '
}

// line draws a Bresenham line of r onto empty cells only, so edges never
// cover nodes or labels drawn earlier.
func (c *canvas) line(x1, y1, x2, y2 int, r rune, color lipgloss.TerminalColor) {
	dx := intAbs(x2 - x1)
	dy := intAbs(y2 - y1)
	sx, sy := 1, 1
	if x1 > x2 {
		sx = -1
	}
	if y1 > y2 {
		sy = -1
	}
	// Huge off-screen spans are not worth walking cell by cell.
	if dx > 4*(c.w+c.h) || dy > 4*(c.w+c.h) {
		return
	}
	err := dx - dy
	for {
		if c.empty(x1, y1) {
			c.set(x1, y1, r, color, false)
		}
		if x1 == x2 && y1 == y2 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

// text writes s starting at (x, y), honoring double-width runes. It returns
// the number of cells written.
func (c *canvas) text(x, y int, s string, color lipgloss.TerminalColor, bold bool) int {
	col := x
	for _, r := range s {
		w := runewidth.RuneWidth(r)
		if w == 0 {
			continue
		}
		if col+w > c.w {
			break
		}
		c.set(col, y, r, color, bold)
		if w == 2 {
			c.set(col+1, y, continuation, nil, false)
		}
		col += w
	}
	return col - x
}

// render turns the grid into styled lines, one style per run of equal cells.
func (c *canvas) render(r *lipgloss.Renderer) string {
	var b strings.Builder
	for y := 0; y < c.h; y++ {
		if y > 0 {
			b.WriteByte('\n')
		}
		row := c.cells[y*c.w : (y+1)*c.w]
		var run strings.Builder
		var runColor lipgloss.TerminalColor
		var runBold bool
		flush := func() {
			if run.Len() == 0 {
				return
			}
			if runColor == nil && !runBold {
				b.WriteString(run.String())
			} else {
				st := r.NewStyle().Bold(runBold)
				if runColor != nil {
					st = st.Foreground(runColor)
				}
				b.WriteString(st.Render(run.String()))
			}
			run.Reset()
		}
		for _, cl := range row {
			if cl.r == continuation {
				continue
			}
			if cl.color != runColor || cl.bold != runBold {
				flush()
				runColor, runBold = cl.color, cl.bold
			}
			run.WriteRune(cl.r)
		}
		flush()
	}
	return b.String()
}

// String returns the grid as plain text, without styling.
func (c *canvas) String() string {
	var b strings.Builder
	for y := 0; y < c.h; y++ {
		if y > 0 {
			b.WriteByte('\n')
		}
		for _, cl := range c.cells[y*c.w : (y+1)*c.w] {
			if cl.r != continuation {
				b.WriteRune(cl.r)
			}
		}
	}
	return b.String()
}

// scene is everything drawFrame needs besides the frame itself.
type scene struct {
	transform  viewport.Transform
	cellW      float64
	cellH      float64
	labels     map[string]string
	selected   string
	hovered    string
	related    map[string]bool
	labelDepth int
	glow       func(layout.NodeView) float64
}

// toCell maps a virtual-pixel screen point to the cell containing it.
func (s scene) toCell(p r2.Vec) (int, int) {
	return int(math.Floor(p.X / s.cellW)), int(math.Floor(p.Y / s.cellH))
}

// nodeGlyph picks a glyph by depth, largest for the root.
func nodeGlyph(depth int) rune {
	switch depth {
	case 0:
		return '◉'
	case 1:
		return '●'
	case 2:
		return '•'
	default:
		return '∙'
	}
}

// drawFrame rasterizes frame onto c: nodes and labels first, then edges into
// the gaps.
func drawFrame(c *canvas, frame layout.Frame, s scene) {
	type placed struct {
		n      layout.NodeView
		cx, cy int
		rx, ry int
	}
	nodes := make([]placed, 0, len(frame.Nodes))
	for _, n := range frame.Nodes {
		p := s.transform.ToScreen(r2.Vec{X: n.X, Y: n.Y})
		cx, cy := s.toCell(p)
		rpx := n.Radius * s.transform.Scale
		nodes = append(nodes, placed{
			n:  n,
			cx: cx, cy: cy,
			rx: int(rpx / s.cellW),
			ry: int(rpx / s.cellH),
		})
	}

	// Glow rings for the selected and hovered nodes go down first so the
	// bodies sit on top of them.
	for _, pl := range nodes {
		if pl.n.ID != s.selected && pl.n.ID != s.hovered {
			continue
		}
		if s.glow == nil {
			continue
		}
		g := s.glow(pl.n) * s.transform.Scale
		ring(c, pl.cx, pl.cy, g/s.cellW, g/s.cellH, ColorGlow)
	}

	for _, pl := range nodes {
		color := lipgloss.Color(pl.n.Color)
		if pl.rx >= 1 && pl.ry >= 1 {
			disc(c, pl.cx, pl.cy, pl.rx, pl.ry, color)
		} else {
			c.set(pl.cx, pl.cy, nodeGlyph(pl.n.Depth), color, pl.n.ID == s.selected)
		}
	}

	for _, pl := range nodes {
		id := pl.n.ID
		show := pl.n.Depth <= s.labelDepth || id == s.selected || id == s.hovered || s.related[id]
		label := s.labels[id]
		if !show || label == "" {
			continue
		}
		color := lipgloss.TerminalColor(ColorSubtext)
		bold := false
		switch {
		case id == s.selected:
			color, bold = ColorPrimary, true
		case id == s.hovered || s.related[id]:
			color = ColorLabel
		}
		label = runewidth.Truncate(label, 32, "…")
		c.text(pl.cx+pl.rx+2, pl.cy, label, color, bold)
	}

	for _, e := range frame.Edges {
		a := s.transform.ToScreen(r2.Vec{X: e.X1, Y: e.Y1})
		b := s.transform.ToScreen(r2.Vec{X: e.X2, Y: e.Y2})
		x1, y1 := s.toCell(a)
		x2, y2 := s.toCell(b)
		color := ColorEdge
		if s.related[e.SourceID] && s.related[e.TargetID] {
			color = ColorEdgeRelated
		}
		c.line(x1, y1, x2, y2, '·', color)
	}
}

// disc fills an ellipse of radii rx, ry cells centered on (cx, cy).
func disc(c *canvas, cx, cy, rx, ry int, color lipgloss.TerminalColor) {
	for dy := -ry; dy <= ry; dy++ {
		for dx := -rx; dx <= rx; dx++ {
			u := float64(dx) / float64(rx)
			v := float64(dy) / float64(ry)
			if u*u+v*v <= 1 {
				c.set(cx+dx, cy+dy, '█', color, false)
			}
		}
	}
}

// ring outlines an ellipse with radii rx, ry cells, skipping rings that are
// too small to show.
func ring(c *canvas, cx, cy int, rx, ry float64, color lipgloss.TerminalColor) {
	if rx < 1 && ry < 1 {
		return
	}
	steps := int(2*math.Pi*math.Max(rx, ry)) + 8
	for i := 0; i < steps; i++ {
		a := 2 * math.Pi * float64(i) / float64(steps)
		x := cx + int(math.Round(rx*math.Cos(a)))
		y := cy + int(math.Round(ry*math.Sin(a)))
		if c.empty(x, y) {
			c.set(x, y, '░', color, false)
		}
	}
}

func intAbs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
