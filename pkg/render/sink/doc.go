// Package sink writes canvas frames to output formats.
//
// [RenderSVG] draws each bubble as a circle of its rendered size, with the
// coin symbol centred inside and, when [WithImages] is set, the coin logo
// at half the bubble's size above the label. [RenderJSON] produces a
// self-describing document for other tools.
//
// Both renderers read a [canvas.Frame] only and are safe to call
// concurrently.
//
// [canvas.Frame]: github.com/matzehuels/coinbubbles/pkg/canvas.Frame
package sink
