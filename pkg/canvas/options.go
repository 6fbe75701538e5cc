package canvas

import (
	"io"
	"math/rand/v2"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/coinbubbles/pkg/bubble"
	"github.com/matzehuels/coinbubbles/pkg/layout"
)

// DefaultGrowIncrement is the size added when an item is selected again.
const DefaultGrowIncrement = 10.0

// DefaultSeed seeds the placement generator when no Rand is given.
const DefaultSeed = uint64(42)

// Rand is the random source used to place new bubbles. *rand.Rand from
// math/rand/v2 satisfies it.
type Rand interface {
	Float64() float64
}

// Options configures a [Canvas]. Zero fields take their defaults.
type Options struct {
	// Width and Height are the initial viewport dimensions in pixels.
	// A zero viewport disables clamping and random placement until
	// [Canvas.RecomputeScale] provides one.
	Width  float64
	Height float64

	// FillRatio is the target fraction of the canvas covered by bubbles.
	FillRatio float64

	// DefaultSize is the diameter of a newly created bubble.
	DefaultSize float64

	// MinSize is the smallest diameter any bubble may take.
	MinSize float64

	// MaxIterations bounds the collision resolver.
	MaxIterations int

	// Seed seeds the default placement generator. Ignored when Rand is set.
	Seed uint64

	// Rand overrides the placement generator.
	Rand Rand

	// Logger receives debug output. Defaults to a discarding logger.
	Logger *log.Logger
}

func (o Options) withDefaults() Options {
	if !(o.FillRatio > 0) {
		o.FillRatio = layout.DefaultFillRatio
	}
	if !(o.MinSize > 0) {
		o.MinSize = bubble.MinSize
	}
	if !(o.DefaultSize > 0) {
		o.DefaultSize = bubble.DefaultSize
	}
	o.DefaultSize = bubble.ClampSize(o.DefaultSize, o.MinSize)
	if o.MaxIterations <= 0 {
		o.MaxIterations = layout.MaxIterations
	}
	if o.Seed == 0 {
		o.Seed = DefaultSeed
	}
	if o.Rand == nil {
		o.Rand = rand.New(rand.NewPCG(o.Seed, o.Seed^0xdeadbeef))
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.Width, o.Height = sanitizeDim(o.Width), sanitizeDim(o.Height)
	return o
}
