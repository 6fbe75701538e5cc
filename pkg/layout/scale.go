package layout

import (
	"math"

	"github.com/matzehuels/coinbubbles/pkg/bubble"
)

// DefaultFillRatio is the fraction of the canvas area that the bubbles'
// disks should cover at most.
const DefaultFillRatio = 0.5

// ComputeScale returns the factor by which every bubble's BaseSize is
// multiplied for display, so that the sum of the disk areas covers at most
// fillRatio of the canvas:
//
//	k = min(1, sqrt(4·fillRatio·width·height / (π·Σ BaseSize²)))
//
// The factor never exceeds 1: small populations render at their nominal
// size and are never magnified. An empty population, a zero size sum or a
// canvas with no area yields 1. A non-positive fillRatio selects
// [DefaultFillRatio].
func ComputeScale(width, height float64, bubbles []bubble.Bubble, fillRatio float64) float64 {
	if !(fillRatio > 0) {
		fillRatio = DefaultFillRatio
	}
	area := width * height
	if len(bubbles) == 0 || !(area > 0) {
		return 1
	}

	var sumSq float64
	for _, b := range bubbles {
		sumSq += b.BaseSize * b.BaseSize
	}
	if sumSq == 0 {
		return 1
	}

	k := math.Sqrt(4 * fillRatio * area / (math.Pi * sumSq))
	return math.Min(k, 1)
}
