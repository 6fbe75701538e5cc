// Package layout implements the pure geometry behind a bubble canvas.
//
// Three independent engines live here:
//
//   - [ComputeScale] derives the render scale factor from the canvas area and
//     the population's base sizes.
//   - [Resolver] separates overlapping circles by iterative pairwise
//     relaxation, optionally holding one locked (dragged) bubble still.
//   - [Clamp] keeps a bubble's bounding box inside the viewport.
//
// None of these functions keep state or modify their inputs. The
// orchestration (which engine runs when, and in what order) belongs to
// package canvas.
//
// # Collision geometry
//
// Collisions are computed at BaseSize, the unscaled diameter, even though a
// canvas renders bubbles at BaseSize times the scale factor. When the factor
// drops below 1 the rendered circles therefore keep a visible gap between
// them.
//
// # Limitations
//
// Two bubbles whose centers coincide exactly have no defined push direction
// and are left where they are. The resolver runs at most
// [MaxIterations] passes of O(n²) pair checks; it is intended for tens of
// bubbles, not thousands.
package layout
