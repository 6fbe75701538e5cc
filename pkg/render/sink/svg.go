package sink

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/matzehuels/coinbubbles/pkg/canvas"
)

// imageRatio is the logo size relative to the rendered bubble.
const imageRatio = 0.5

const bubbleCSS = `
    .bubble { stroke: #ffffff; stroke-width: 1.5; transition: stroke-width 0.2s ease; }
    .bubble:hover { stroke-width: 4; }
    .bubble-text { font-family: Helvetica, Arial, sans-serif; fill: #ffffff; font-weight: bold; pointer-events: none; }`

var palette = []string{
	"#4e79a7", "#f28e2b", "#e15759", "#76b7b2", "#59a14f",
	"#edc948", "#b07aa1", "#ff9da7", "#9c755f", "#bab0ac",
}

// SVGOption configures [RenderSVG].
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	images     bool
	labels     bool
	tooltips   bool
	background string
}

// WithImages draws each bubble's image reference, when it has one.
func WithImages() SVGOption { return func(r *svgRenderer) { r.images = true } }

// WithoutLabels suppresses the symbol text.
func WithoutLabels() SVGOption { return func(r *svgRenderer) { r.labels = false } }

// WithTooltips adds a <title> with name, price and market cap.
func WithTooltips() SVGOption { return func(r *svgRenderer) { r.tooltips = true } }

// WithBackground fills the canvas with color.
func WithBackground(color string) SVGOption {
	return func(r *svgRenderer) { r.background = color }
}

// RenderSVG draws f. A frame without a viewport is sized to fit its bubbles.
func RenderSVG(f canvas.Frame, opts ...SVGOption) []byte {
	r := svgRenderer{labels: true}
	for _, opt := range opts {
		opt(&r)
	}

	w, h := frameSize(f)
	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		w, h, w, h)
	fmt.Fprintf(&buf, "  <style>%s\n  </style>\n", bubbleCSS)
	if r.background != "" {
		fmt.Fprintf(&buf, `  <rect width="100%%" height="100%%" fill="%s"/>`+"\n", escape(r.background))
	}

	for _, b := range f.Bubbles {
		r.renderBubble(&buf, b)
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func (r svgRenderer) renderBubble(buf *bytes.Buffer, b canvas.Renderable) {
	radius := b.RenderSize / 2
	cx, cy := b.X+radius, b.Y+radius

	fmt.Fprintf(buf, `  <g id="bubble-%s">`+"\n", escape(b.ID))
	fmt.Fprintf(buf, `    <circle class="bubble" cx="%.2f" cy="%.2f" r="%.2f" fill="%s">`, cx, cy, radius, Color(b.ID))
	if r.tooltips {
		fmt.Fprintf(buf, "<title>%s</title>", escape(tooltip(b)))
	}
	buf.WriteString("</circle>\n")

	label := Label(b)
	fontSize := FontSize(b.RenderSize, len(label))
	textY := cy + fontSize*0.35

	if r.images && b.Meta.ImageRef != "" {
		size := b.RenderSize * imageRatio
		fmt.Fprintf(buf, `    <image href="%s" x="%.2f" y="%.2f" width="%.2f" height="%.2f"/>`+"\n",
			escape(b.Meta.ImageRef), cx-size/2, cy-size/2-fontSize*0.4, size, size)
		textY = cy + size/2 + fontSize*0.6
	}
	if r.labels && label != "" {
		fmt.Fprintf(buf, `    <text class="bubble-text" x="%.2f" y="%.2f" font-size="%.1f" text-anchor="middle">%s</text>`+"\n",
			cx, textY, fontSize, escape(label))
	}
	buf.WriteString("  </g>\n")
}

// Label is the text shown inside a bubble: the symbol, else the id.
func Label(b canvas.Renderable) string {
	if b.Meta.Symbol != "" {
		return strings.ToUpper(b.Meta.Symbol)
	}
	return b.ID
}

// FontSize fits n characters across roughly 70% of the bubble diameter.
func FontSize(diameter float64, n int) float64 {
	n = max(1, n)
	return max(6, min(32, diameter*0.7/(float64(n)*0.6)))
}

// Color returns a stable palette color for id.
func Color(id string) string {
	h := fnv.New32a()
	h.Write([]byte(id))
	return palette[h.Sum32()%uint32(len(palette))]
}

func tooltip(b canvas.Renderable) string {
	name := b.Meta.Name
	if name == "" {
		name = b.ID
	}
	parts := []string{name}
	if b.Meta.Price > 0 {
		parts = append(parts, fmt.Sprintf("price $%s", humanize(b.Meta.Price)))
	}
	if b.Meta.MarketCap > 0 {
		parts = append(parts, fmt.Sprintf("market cap $%s", humanize(b.Meta.MarketCap)))
	}
	return strings.Join(parts, " | ")
}

func humanize(v float64) string {
	switch {
	case v >= 1e12:
		return fmt.Sprintf("%.2fT", v/1e12)
	case v >= 1e9:
		return fmt.Sprintf("%.2fB", v/1e9)
	case v >= 1e6:
		return fmt.Sprintf("%.2fM", v/1e6)
	case v >= 1:
		return fmt.Sprintf("%.2f", v)
	default:
		return fmt.Sprintf("%.4g", v)
	}
}

func frameSize(f canvas.Frame) (float64, float64) {
	if f.Width > 0 && f.Height > 0 {
		return f.Width, f.Height
	}
	w, h := 1.0, 1.0
	for _, b := range f.Bubbles {
		w = max(w, b.X+b.RenderSize)
		h = max(h, b.Y+b.RenderSize)
	}
	return w, h
}

func escape(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
