package layout

import "github.com/matzehuels/coinbubbles/pkg/bubble"

// Clamp constrains the top-left corner (x, y) of a box of the given size so
// the box stays inside a width×height viewport. When the box is larger than
// the viewport it is pinned to the origin.
func Clamp(x, y, size, width, height float64) (float64, float64) {
	return clampAxis(x, width-size), clampAxis(y, height-size)
}

// ClampBubble returns b with its position clamped by [Clamp] at its BaseSize.
func ClampBubble(b bubble.Bubble, width, height float64) bubble.Bubble {
	b.X, b.Y = Clamp(b.X, b.Y, b.BaseSize, width, height)
	return b
}

func clampAxis(v, hi float64) float64 {
	return max(0, min(v, hi))
}
