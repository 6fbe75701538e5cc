// Package render turns canvas frames into images and documents.
//
// # Sinks
//
// The [sink] subpackage writes a [canvas.Frame] as SVG (circles with
// labels and optional coin images) or as a JSON interchange document:
//
//	svg := sink.RenderSVG(frame, sink.WithImages())
//	doc, err := sink.RenderJSON(frame)
//
// # Contact Graphs
//
// The [contact] subpackage builds a Graphviz graph with one pinned node per
// bubble and an edge between every pair of touching bubbles, which makes
// the resolver's packing visible:
//
//	dot := contact.ToDOT(frame, contact.Options{})
//	png, err := contact.RenderPNG(ctx, dot)
//
// [Format] names the outputs the CLI and server can produce.
//
// [sink]: github.com/matzehuels/coinbubbles/pkg/render/sink
// [contact]: github.com/matzehuels/coinbubbles/pkg/render/contact
// [canvas.Frame]: github.com/matzehuels/coinbubbles/pkg/canvas.Frame
package render
