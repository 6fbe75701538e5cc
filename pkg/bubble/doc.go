// Package bubble defines the value type placed on a coinbubbles canvas.
//
// A [Bubble] is a circle identified by an opaque ID. Its canonical position
// is the top-left corner of its bounding box and its [Bubble.BaseSize] is the
// nominal diameter, used both as the collision diameter and as the measure
// of how "important" the tracked item is. The displayed diameter is derived
// at read time by the canvas (BaseSize times the current scale factor) and
// is never stored here.
//
// # Invariants
//
//   - IDs are unique within a collection.
//   - BaseSize is always positive. Use [ClampSize] at every boundary where a
//     size enters the system (construction, growth, external replacement).
//
// Collections are plain slices. Functions in this package never modify their
// input; [Clone] returns storage that does not alias the original.
package bubble
