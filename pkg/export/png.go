package export

import (
	"fmt"
	"image/color"

	"github.com/Dicklesworthstone/constellation_viewer/pkg/layout"

	"git.sr.ht/~sbinet/gg"
	"golang.org/x/image/font/basicfont"
)

// RenderPNG draws frame and saves it as a PNG at path.
func RenderPNG(frame layout.Frame, path string, opts Options) error {
	dc := drawPNG(frame, opts)
	if err := dc.SavePNG(path); err != nil {
		return fmt.Errorf("save png: %w", err)
	}
	return nil
}

func drawPNG(frame layout.Frame, opts Options) *gg.Context {
	opts = opts.normalized()
	f := newFit(frame, opts)

	dc := gg.NewContext(opts.Width, opts.Height)
	dc.SetFontFace(basicfont.Face7x13)
	dc.SetColor(bgDark)
	dc.Clear()

	dc.SetColor(textPrimary)
	dc.DrawStringAnchored(opts.Title, 24, 30, 0, 0.5)
	dc.SetColor(textSecondary)
	dc.DrawStringAnchored(fmt.Sprintf("%d concepts - %d links - step %d", len(frame.Nodes), len(frame.Edges), frame.Seq), 24, 50, 0, 0.5)

	dc.SetLineWidth(1.5)
	dc.SetColor(color.RGBA{edgeColor.R, edgeColor.G, edgeColor.B, 0x99})
	for _, e := range frame.Edges {
		x1, y1 := f.point(e.X1, e.Y1)
		x2, y2 := f.point(e.X2, e.Y2)
		dc.DrawLine(x1, y1, x2, y2)
		dc.Stroke()
	}

	for _, n := range frame.Nodes {
		x, y := f.point(n.X, n.Y)
		r := n.Radius * f.scale
		c := parseHex(n.Color)

		// Glow: concentric translucent rings out to the hit radius.
		glow := r * glowFactor(n.ID, opts)
		for i := 3; i >= 1; i-- {
			rr := r + (glow-r)*float64(i)/3
			dc.SetColor(color.RGBA{c.R, c.G, c.B, uint8(18 * (4 - i))})
			dc.DrawCircle(x, y, rr)
			dc.Fill()
		}

		dc.SetColor(c)
		dc.DrawCircle(x, y, r)
		dc.Fill()

		if label := labelFor(n, opts); label != "" {
			dc.SetColor(textPrimary)
			dc.DrawStringAnchored(label, x, y+r+10, 0.5, 0.5)
		}
	}
	return dc
}
