// Package contact renders the contact graph of a canvas: one node per
// bubble, pinned at its position, and an edge between every pair of bubbles
// whose collision circles touch.
//
// Contact is measured on BaseSize, the geometry the collision resolver
// separates, so a converged canvas shows touching neighbours as edges and
// no overlaps. Nodes are drawn at their rendered size.
//
// # Dependencies
//
// Rendering uses [github.com/goccy/go-graphviz] in process with the neato
// engine, which honours pinned ("!") positions.
package contact

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/coinbubbles/pkg/canvas"
	"github.com/matzehuels/coinbubbles/pkg/render/sink"
)

// DefaultTolerance is the gap, in pixels, still counted as touching.
const DefaultTolerance = 1.0

// pointsPerInch converts pixel-sized widths to Graphviz inches.
const pointsPerInch = 72.0

// Options configures [ToDOT].
type Options struct {
	// Tolerance is the largest gap between two circles that still counts
	// as contact. Zero means DefaultTolerance.
	Tolerance float64
	// Labels shows symbols inside nodes.
	Labels bool
}

// Edge connects two touching bubbles. Gap is negative for overlaps.
type Edge struct {
	From string
	To   string
	Gap  float64
}

// Contacts returns every touching pair, in frame order.
func Contacts(f canvas.Frame, tolerance float64) []Edge {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	var edges []Edge
	for i := range f.Bubbles {
		for j := i + 1; j < len(f.Bubbles); j++ {
			a, b := f.Bubbles[i], f.Bubbles[j]
			gap := distance(a, b) - (a.BaseSize+b.BaseSize)/2
			if gap <= tolerance {
				edges = append(edges, Edge{From: a.ID, To: b.ID, Gap: gap})
			}
		}
	}
	return edges
}

// ToDOT builds an undirected neato graph for f.
func ToDOT(f canvas.Frame, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  splines=false;\n")
	buf.WriteString("  node [shape=circle, fixedsize=true, style=filled, fontcolor=white, fontname=\"Helvetica\"];\n")
	buf.WriteString("  edge [color=\"#555555\", penwidth=1.5];\n")
	buf.WriteString("\n")

	h := f.Height
	if h <= 0 {
		for _, b := range f.Bubbles {
			h = max(h, b.Y+b.RenderSize)
		}
	}

	for _, b := range f.Bubbles {
		r := b.RenderSize / 2
		// Graphviz puts the origin bottom-left.
		x, y := b.X+r, h-(b.Y+r)
		label := ""
		if opts.Labels {
			label = sink.Label(b)
		}
		attrs := []string{
			fmt.Sprintf("pos=\"%.2f,%.2f!\"", x, y),
			fmt.Sprintf("width=%.4f", b.RenderSize/pointsPerInch),
			fmt.Sprintf("fillcolor=%q", sink.Color(b.ID)),
			fmt.Sprintf("label=%q", label),
			fmt.Sprintf("fontsize=%.1f", sink.FontSize(b.RenderSize, len(label))),
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", b.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range Contacts(f, opts.Tolerance) {
		style := ""
		if e.Gap < -DefaultTolerance {
			style = " [color=red]"
		}
		fmt.Fprintf(&buf, "  %q -- %q%s;\n", e.From, e.To, style)
	}

	buf.WriteString("}\n")
	return buf.String()
}

// RenderSVG renders a DOT graph to SVG.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	return render(ctx, dot, graphviz.SVG)
}

// RenderPNG renders a DOT graph to PNG.
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	return render(ctx, dot, graphviz.PNG)
}

func render(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render %s: %w", format, err)
	}
	return buf.Bytes(), nil
}

func distance(a, b canvas.Renderable) float64 {
	ax, ay := a.X+a.BaseSize/2, a.Y+a.BaseSize/2
	bx, by := b.X+b.BaseSize/2, b.Y+b.BaseSize/2
	dx, dy := bx-ax, by-ay
	return math.Hypot(dx, dy)
}
