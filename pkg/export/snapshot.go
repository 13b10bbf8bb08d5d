// Package export renders constellation frames to SVG, PNG and JSON files.
package export

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/Dicklesworthstone/constellation_viewer/pkg/engine"
	"github.com/Dicklesworthstone/constellation_viewer/pkg/layout"

	"golang.org/x/sync/errgroup"
)

// ErrUnsupportedFormat is returned for output paths with an unknown extension
var ErrUnsupportedFormat = errors.New("unsupported export format")

// Format of an exported snapshot
type Format string

const (
	FormatSVG  Format = "svg"
	FormatPNG  Format = "png"
	FormatJSON Format = "json"
)

// Options control how a frame is drawn.
type Options struct {
	Width, Height int
	// Padding around the node bounds, in simulation units
	Padding float64
	Title   string
	// Labels maps node ids to display labels; nodes without one show no text
	Labels   map[string]string
	Selected string
	// LabelDepth is the deepest level that gets a label (selected always does)
	LabelDepth int
}

// DefaultOptions returns the stock export options.
func DefaultOptions() Options {
	return Options{
		Width:      1200,
		Height:     900,
		Padding:    40,
		Title:      "Constellation",
		LabelDepth: 1,
	}
}

func (o Options) normalized() Options {
	if o.Width < 800 {
		o.Width = 800
	}
	if o.Height < 600 {
		o.Height = 600
	}
	if o.Padding < 0 {
		o.Padding = 0
	}
	return o
}

// Palette of the dark background theme
var (
	bgDark        = color.RGBA{0x02, 0x06, 0x17, 0xff} // slate-950
	edgeColor     = color.RGBA{0x47, 0x55, 0x69, 0xff} // slate-600
	textPrimary   = color.RGBA{0xf1, 0xf5, 0xf9, 0xff}
	textSecondary = color.RGBA{0x94, 0xa3, 0xb8, 0xff}
)

// FormatForPath maps a file extension to a Format.
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "svg":
		return FormatSVG, nil
	case "png":
		return FormatPNG, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// SaveSnapshot writes frame to path in the format its extension names.
func SaveSnapshot(frame layout.Frame, path string, opts Options) error {
	format, err := FormatForPath(path)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create export directory: %w", err)
		}
	}

	switch format {
	case FormatPNG:
		return RenderPNG(frame, path, opts)
	case FormatSVG:
		return writeFile(path, func(f *os.File) error { return RenderSVG(frame, f, opts) })
	default:
		return writeFile(path, func(f *os.File) error { return WriteJSON(frame, f, opts) })
	}
}

// SaveSnapshots renders frame to every path concurrently. All formats are
// checked before anything is written.
func SaveSnapshots(ctx context.Context, frame layout.Frame, opts Options, paths ...string) error {
	for _, p := range paths {
		if _, err := FormatForPath(p); err != nil {
			return err
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, p := range paths {
		p := p
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := SaveSnapshot(frame, p, opts); err != nil {
				return fmt.Errorf("export %s: %w", p, err)
			}
			return nil
		})
	}
	return g.Wait()
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// fit maps simulation coordinates into a width x height image below a
// header band, preserving aspect ratio.
type fit struct {
	scale, offX, offY float64
}

const headerHeight = 70.0

func newFit(frame layout.Frame, opts Options) fit {
	b := frame.Bounds(opts.Padding + maxGlow(frame))
	w, h := float64(opts.Width), float64(opts.Height)-headerHeight
	bw, bh := math.Max(b.Width(), 1), math.Max(b.Height(), 1)
	k := math.Min(w/bw, h/bh)
	return fit{
		scale: k,
		offX:  (w-bw*k)/2 - b.MinX*k,
		offY:  headerHeight + (h-bh*k)/2 - b.MinY*k,
	}
}

func (f fit) point(x, y float64) (float64, float64) {
	return x*f.scale + f.offX, y*f.scale + f.offY
}

func maxGlow(frame layout.Frame) float64 {
	g := 0.0
	for _, n := range frame.Nodes {
		g = math.Max(g, n.Radius*(engine.GlowFactorSelected-1))
	}
	return g
}

func glowFactor(id string, opts Options) float64 {
	if id != "" && id == opts.Selected {
		return engine.GlowFactorSelected
	}
	return engine.GlowFactor
}

func labelFor(n layout.NodeView, opts Options) string {
	if n.ID != opts.Selected && n.Depth > opts.LabelDepth {
		return ""
	}
	return opts.Labels[n.ID]
}

// parseHex decodes #rrggbb, falling back to the default node color.
func parseHex(s string) color.RGBA {
	var r, g, b uint8
	if _, err := fmt.Sscanf(strings.TrimPrefix(s, "#"), "%02x%02x%02x", &r, &g, &b); err != nil {
		return parseHex(layout.DefaultColor)
	}
	return color.RGBA{r, g, b, 0xff}
}

func cssRGBA(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
