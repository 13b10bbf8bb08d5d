package export

import (
	"fmt"
	"io"

	"github.com/Dicklesworthstone/constellation_viewer/pkg/layout"

	svg "github.com/ajstarks/svgo"
)

// RenderSVG draws frame as an SVG document.
func RenderSVG(frame layout.Frame, w io.Writer, opts Options) error {
	opts = opts.normalized()
	f := newFit(frame, opts)

	canvas := svg.New(w)
	canvas.Start(opts.Width, opts.Height)

	canvas.Def()
	canvas.Filter("glow")
	canvas.FeGaussianBlur(svg.Filterspec{In: "SourceGraphic", Result: "blur"}, 6, 6)
	canvas.FeMerge([]string{"blur", "SourceGraphic"})
	canvas.Fend()
	canvas.DefEnd()

	canvas.Rect(0, 0, opts.Width, opts.Height, "fill:"+cssRGBA(bgDark))
	drawHeaderSVG(canvas, frame, opts)

	canvas.Gid("edges")
	for _, e := range frame.Edges {
		x1, y1 := f.point(e.X1, e.Y1)
		x2, y2 := f.point(e.X2, e.Y2)
		canvas.Line(int(x1), int(y1), int(x2), int(y2),
			fmt.Sprintf("stroke:%s;stroke-width:1.5;stroke-opacity:0.6", cssRGBA(edgeColor)))
	}
	canvas.Gend()

	canvas.Gid("nodes")
	for _, n := range frame.Nodes {
		x, y := f.point(n.X, n.Y)
		r := n.Radius * f.scale
		fill := cssRGBA(parseHex(n.Color))

		glow := r * glowFactor(n.ID, opts)
		canvas.Circle(int(x), int(y), int(glow),
			fmt.Sprintf("fill:%s;fill-opacity:0.15;filter:url(#glow)", fill))
		canvas.Circle(int(x), int(y), maxInt(int(r), 1),
			fmt.Sprintf("fill:%s;stroke:%s;stroke-width:1", fill, cssRGBA(textPrimary)))

		if label := labelFor(n, opts); label != "" {
			canvas.Text(int(x), int(y+r+14), label,
				fmt.Sprintf("fill:%s;font-size:12px;font-family:system-ui,sans-serif;text-anchor:middle", cssRGBA(textPrimary)))
		}
	}
	canvas.Gend()

	canvas.End()
	return nil
}

func drawHeaderSVG(canvas *svg.SVG, frame layout.Frame, opts Options) {
	canvas.Text(24, 36, opts.Title,
		fmt.Sprintf("fill:%s;font-size:20px;font-family:system-ui,sans-serif;font-weight:700", cssRGBA(textPrimary)))
	canvas.Text(24, 56, fmt.Sprintf("%d concepts · %d links · step %d", len(frame.Nodes), len(frame.Edges), frame.Seq),
		fmt.Sprintf("fill:%s;font-size:12px;font-family:system-ui,sans-serif", cssRGBA(textSecondary)))
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
