package ui

// Layout breakpoints for responsive design.
const (
	// BreakpointNarrow is the width below which the status line drops key hints.
	BreakpointNarrow = 80

	// BreakpointMedium is the width above which the detail pane sits beside
	// the canvas.
	BreakpointMedium = 100

	// BreakpointWide is the width at which the detail pane reaches MaxDetailWidth.
	BreakpointWide = 140
)

// Box and panel dimension constraints.
const (
	// MinBoxWidth is the minimum width for bordered content boxes.
	MinBoxWidth = 20

	// MaxDetailWidth caps the detail pane.
	MaxDetailWidth = 48

	// MinContentHeight is the minimum height of the canvas.
	MinContentHeight = 5

	// MaxSearchResults is how many hits the search panel lists.
	MaxSearchResults = 5
)

// screenLayout is where each region of the window sits, in cells.
type screenLayout struct {
	canvasX, canvasY int
	canvasW, canvasH int
	detailW          int
	searchH          int
}

// computeLayout splits a width x height window into header, canvas, optional
// detail pane, optional search panel and status line.
func computeLayout(width, height int, detail, searching bool) screenLayout {
	l := screenLayout{canvasY: 1}
	if searching {
		l.searchH = 1 + MaxSearchResults
	}
	if detail && width >= BreakpointMedium {
		l.detailW = width / 3
		if width >= BreakpointWide || l.detailW > MaxDetailWidth {
			l.detailW = MaxDetailWidth
		}
		if l.detailW < MinBoxWidth {
			l.detailW = MinBoxWidth
		}
	}
	l.canvasW = width - l.detailW
	if l.canvasW < 1 {
		l.canvasW = 1
	}
	// header + status line
	l.canvasH = height - 2 - l.searchH
	if l.canvasH < MinContentHeight {
		l.canvasH = MinContentHeight
	}
	return l
}

// inCanvas reports whether the cell (x, y) lies on the canvas.
func (l screenLayout) inCanvas(x, y int) bool {
	return x >= l.canvasX && x < l.canvasX+l.canvasW &&
		y >= l.canvasY && y < l.canvasY+l.canvasH
}
