// Package canvas orchestrates the bubble layout engines.
//
// A [Canvas] owns the canonical bubble collection and sequences the engines
// of package layout for every external event:
//
//   - [Canvas.AddOrGrow]: an item was selected (or grown remotely).
//   - [Canvas.MoveBubble]: a drag ended at a new position.
//   - [Canvas.RecomputeScale]: the viewport was resized.
//   - [Canvas.ApplySize]: a size notification replaced an item's size.
//
// Every operation computes a new collection and replaces the held snapshot
// wholesale; the previous snapshot is never modified. Accessors return
// copies, so callers may keep or alter them freely.
//
// # Concurrency
//
// A Canvas is not safe for concurrent use. Drive it from a single goroutine
// (package server runs it inside an event loop).
//
// # Example
//
//	c := canvas.New(canvas.Options{Width: 1000, Height: 800})
//	c.AddOrGrow("bitcoin", bubble.Metadata{Symbol: "BTC"}, 0)
//	c.AddOrGrow("bitcoin", bubble.Metadata{}, canvas.DefaultGrowIncrement)
//	for _, r := range c.Renderables() {
//	    fmt.Println(r.ID, r.RenderSize)
//	}
package canvas
