package layout

import (
	"math"

	"github.com/matzehuels/coinbubbles/pkg/bubble"
)

// MaxIterations is the default pass budget of a [Resolver].
const MaxIterations = 20

// Resolution is the outcome of one [Resolver.Resolve] call.
type Resolution struct {
	// Bubbles holds the corrected positions, in input order.
	Bubbles []bubble.Bubble

	// Passes is the number of relaxation passes that ran.
	Passes int

	// Converged is true when the last pass made no correction. When false,
	// the pass budget ran out and overlaps may remain.
	Converged bool
}

// Resolver separates overlapping bubbles by iterative pairwise relaxation.
// The zero value uses [MaxIterations].
type Resolver struct {
	MaxIterations int
}

// Resolve returns a copy of bubbles in which overlapping pairs have been
// pushed apart along the line between their centers.
//
// Each pass visits every unordered pair (i, j), i < j, in collection order
// and reads the positions as already corrected earlier in the same pass, so
// earlier pairs are settled first and later pairs may move them again. The
// overlap of a pair is split evenly between both bubbles unless exactly one
// of them is the locked bubble, in which case the other absorbs all of it.
// Pairs with coincident centers are skipped.
//
// locked names the bubble that must not move; "" means none. The locked
// bubble's position in the result always equals its input position.
//
// Resolve stops after the first pass without corrections or after the pass
// budget, whichever comes first. It never fails and never writes to the
// input slice.
func (r Resolver) Resolve(bubbles []bubble.Bubble, locked string) Resolution {
	return r.ResolvePinned(bubbles, locked, nil)
}

// ResolvePinned is [Resolver.Resolve] with a set of pinned bubbles, usually
// those resting against a viewport wall. In a pair where exactly one bubble
// is pinned, the other absorbs the whole overlap. The locked bubble takes
// precedence: a pinned bubble still yields to it.
func (r Resolver) ResolvePinned(bubbles []bubble.Bubble, locked string, pinned map[string]bool) Resolution {
	limit := r.MaxIterations
	if limit <= 0 {
		limit = MaxIterations
	}

	res := Resolution{Bubbles: bubble.Clone(bubbles)}
	for res.Passes < limit {
		res.Passes++
		if !relax(res.Bubbles, locked, pinned) {
			res.Converged = true
			break
		}
	}
	return res
}

// Resolve runs a zero-value [Resolver].
func Resolve(bubbles []bubble.Bubble, locked string) Resolution {
	return Resolver{}.Resolve(bubbles, locked)
}

// relax runs one pass over all pairs and reports whether anything moved.
func relax(bs []bubble.Bubble, locked string, pinned map[string]bool) bool {
	moved := false
	for i := 0; i < len(bs); i++ {
		for j := i + 1; j < len(bs); j++ {
			if separate(&bs[i], &bs[j], locked, pinned) {
				moved = true
			}
		}
	}
	return moved
}

func separate(a, b *bubble.Bubble, locked string, pinned map[string]bool) bool {
	ax, ay := a.Center()
	bx, by := b.Center()
	dx, dy := bx-ax, by-ay
	dist := math.Hypot(dx, dy)
	reach := a.Radius() + b.Radius()
	if dist == 0 || dist >= reach {
		return false
	}

	overlap := reach - dist
	angle := math.Atan2(dy, dx)
	ux, uy := math.Cos(angle), math.Sin(angle)

	lockedA := locked != "" && a.ID == locked
	lockedB := locked != "" && b.ID == locked

	// Shares of the overlap moved by a and b.
	shareA, shareB := 0.5, 0.5
	switch {
	case lockedA && !lockedB:
		shareA, shareB = 0, 1
	case lockedB && !lockedA:
		shareA, shareB = 1, 0
	case !lockedA && pinned[a.ID] && !pinned[b.ID]:
		shareA, shareB = 0, 1
	case !lockedA && pinned[b.ID] && !pinned[a.ID]:
		shareA, shareB = 1, 0
	}

	a.X -= ux * (overlap * shareA)
	a.Y -= uy * (overlap * shareA)
	b.X += ux * (overlap * shareB)
	b.Y += uy * (overlap * shareB)
	return true
}
