package canvas

import (
	"math"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/coinbubbles/pkg/bubble"
	"github.com/matzehuels/coinbubbles/pkg/layout"
)

// Renderable is a bubble as it should be drawn: RenderSize is BaseSize
// multiplied by the canvas scale factor at the time of the read.
type Renderable struct {
	ID         string          `json:"id"`
	X          float64         `json:"x"`
	Y          float64         `json:"y"`
	BaseSize   float64         `json:"baseSize"`
	RenderSize float64         `json:"renderSize"`
	Meta       bubble.Metadata `json:"meta"`
}

// Frame is everything a renderer needs to draw one canvas state.
type Frame struct {
	Width     float64      `json:"width"`
	Height    float64      `json:"height"`
	Scale     float64      `json:"scale"`
	FillRatio float64      `json:"fillRatio"`
	Bubbles   []Renderable `json:"bubbles"`
}

// Stats describes the most recent resolver run.
type Stats struct {
	Passes    int
	Converged bool
}

// Canvas owns a bubble collection and keeps it free of overlaps.
type Canvas struct {
	bubbles []bubble.Bubble
	width   float64
	height  float64
	scale   float64
	last    Stats
	opts    Options
	logger  *log.Logger
}

// New creates an empty canvas.
func New(opts Options) *Canvas {
	opts = opts.withDefaults()
	return &Canvas{
		width:  opts.Width,
		height: opts.Height,
		scale:  1,
		last:   Stats{Converged: true},
		opts:   opts,
		logger: opts.Logger,
	}
}

// AddOrGrow registers a selection of id.
//
// If the bubble exists, its BaseSize grows by increment (zero is allowed and
// negative or NaN increments are treated as zero) and non-empty meta replaces
// its metadata. Otherwise a bubble of the default size is placed at a random
// position inside the viewport and appended. Either way the collection is
// then resolved with no locked bubble so the changed bubble is pushed clear
// of its neighbours. An empty id leaves the canvas unchanged.
func (c *Canvas) AddOrGrow(id string, meta bubble.Metadata, increment float64) []bubble.Bubble {
	if id == "" {
		c.logger.Warn("ignoring selection without id")
		return c.Bubbles()
	}

	next := bubble.Clone(c.bubbles)
	if i := bubble.Index(next, id); i >= 0 {
		if !(increment > 0) || math.IsInf(increment, 0) {
			increment = 0
		}
		next[i].BaseSize = bubble.ClampSize(next[i].BaseSize+increment, c.opts.MinSize)
		if !meta.IsZero() {
			next[i].Meta = meta
		}
		c.logger.Debug("grow", "id", id, "size", next[i].BaseSize)
	} else {
		b := c.place(id, meta)
		next = append(next, b)
		c.logger.Debug("add", "id", id, "x", b.X, "y", b.Y)
	}

	c.commit(next, "")
	return c.Bubbles()
}

// MoveBubble commits a drag ending at (x, y). The position is clamped to the
// viewport at the bubble's unscaled BaseSize, then the collection is
// resolved with this bubble locked so every other bubble yields to it.
// Unknown ids and non-finite coordinates leave the canvas unchanged.
func (c *Canvas) MoveBubble(id string, x, y float64) []bubble.Bubble {
	i := bubble.Index(c.bubbles, id)
	if i < 0 || !finite(x) || !finite(y) {
		c.logger.Debug("ignoring move", "id", id, "known", i >= 0)
		return c.Bubbles()
	}

	next := bubble.Clone(c.bubbles)
	next[i].X, next[i].Y = x, y
	if c.hasViewport() {
		next[i] = layout.ClampBubble(next[i], c.width, c.height)
	}
	c.logger.Debug("move", "id", id, "x", next[i].X, "y", next[i].Y)

	c.commit(next, id)
	return c.Bubbles()
}

// ApplySize replaces the BaseSize of id, as reported by an external size
// notification, and resolves with no locked bubble. The size is clamped to
// the minimum. Unknown ids are ignored.
func (c *Canvas) ApplySize(id string, size float64) []bubble.Bubble {
	i := bubble.Index(c.bubbles, id)
	if i < 0 {
		c.logger.Debug("ignoring size for unknown bubble", "id", id)
		return c.Bubbles()
	}

	next := bubble.Clone(c.bubbles)
	next[i].BaseSize = bubble.ClampSize(size, c.opts.MinSize)
	c.logger.Debug("replace size", "id", id, "size", next[i].BaseSize)

	c.commit(next, "")
	return c.Bubbles()
}

// RecomputeScale records a new viewport and returns the resulting scale
// factor. Positions are not changed; they are clamped to the new viewport
// only when next committed.
func (c *Canvas) RecomputeScale(width, height float64) float64 {
	c.width, c.height = sanitizeDim(width), sanitizeDim(height)
	c.scale = layout.ComputeScale(c.width, c.height, c.bubbles, c.opts.FillRatio)
	c.logger.Debug("viewport", "width", c.width, "height", c.height, "scale", c.scale)
	return c.scale
}

// Restore replaces the collection with bubbles, for instance from a saved
// state. Duplicate ids keep their first occurrence, sizes are clamped and
// the result is resolved with no locked bubble.
func (c *Canvas) Restore(bubbles []bubble.Bubble) []bubble.Bubble {
	seen := make(map[string]bool, len(bubbles))
	next := make([]bubble.Bubble, 0, len(bubbles))
	for _, b := range bubbles {
		if b.ID == "" || seen[b.ID] {
			continue
		}
		seen[b.ID] = true
		b.BaseSize = bubble.ClampSize(b.BaseSize, c.opts.MinSize)
		next = append(next, b)
	}
	c.commit(next, "")
	return c.Bubbles()
}

// Bubbles returns a copy of the current collection.
func (c *Canvas) Bubbles() []bubble.Bubble {
	out := bubble.Clone(c.bubbles)
	if out == nil {
		out = []bubble.Bubble{}
	}
	return out
}

// Bubble returns the bubble with the given id.
func (c *Canvas) Bubble(id string) (bubble.Bubble, bool) {
	if i := bubble.Index(c.bubbles, id); i >= 0 {
		return c.bubbles[i], true
	}
	return bubble.Bubble{}, false
}

// Len returns the number of bubbles.
func (c *Canvas) Len() int { return len(c.bubbles) }

// Scale returns the current render scale factor.
func (c *Canvas) Scale() float64 { return c.scale }

// Viewport returns the current viewport dimensions.
func (c *Canvas) Viewport() (width, height float64) { return c.width, c.height }

// FillRatio returns the configured fill ratio.
func (c *Canvas) FillRatio() float64 { return c.opts.FillRatio }

// LastStats reports how the most recent resolve went.
func (c *Canvas) LastStats() Stats { return c.last }

// Renderables returns the bubbles with their render sizes computed from the
// latest scale factor.
func (c *Canvas) Renderables() []Renderable {
	out := make([]Renderable, len(c.bubbles))
	for i, b := range c.bubbles {
		out[i] = Renderable{
			ID:         b.ID,
			X:          b.X,
			Y:          b.Y,
			BaseSize:   b.BaseSize,
			RenderSize: b.BaseSize * c.scale,
			Meta:       b.Meta,
		}
	}
	return out
}

// Frame returns the renderable state of the canvas.
func (c *Canvas) Frame() Frame {
	return Frame{
		Width:     c.width,
		Height:    c.height,
		Scale:     c.scale,
		FillRatio: c.opts.FillRatio,
		Bubbles:   c.Renderables(),
	}
}

// place builds a new bubble at a random position inside the viewport.
func (c *Canvas) place(id string, meta bubble.Metadata) bubble.Bubble {
	size := c.opts.DefaultSize
	x := c.opts.Rand.Float64() * max(0, c.width-size)
	y := c.opts.Rand.Float64() * max(0, c.height-size)
	return bubble.New(id, meta, size, x, y, c.opts.MinSize)
}

// commit resolves next, clamps every unlocked bubble into the viewport and
// installs the result as the new snapshot.
//
// Clamping can push a bubble back into a neighbour, so resolve and clamp
// alternate until a resolve makes no correction and the clamp moves nothing.
// Bubbles moved by the clamp stay pinned for the following rounds so their
// neighbours absorb the remaining overlap. All rounds share the resolver's
// pass budget.
func (c *Canvas) commit(next []bubble.Bubble, locked string) {
	budget := c.opts.MaxIterations
	out := next
	stats := Stats{}
	var pinned map[string]bool

	for stats.Passes < budget {
		res := layout.Resolver{MaxIterations: budget - stats.Passes}.ResolvePinned(out, locked, pinned)
		out = res.Bubbles
		stats.Passes += res.Passes

		walled := c.clampInto(out, locked)
		if res.Converged && len(walled) == 0 {
			stats.Converged = true
			break
		}
		if pinned == nil {
			pinned = make(map[string]bool, len(walled))
		}
		for _, id := range walled {
			pinned[id] = true
		}
	}

	c.bubbles = out
	c.last = stats
	c.scale = layout.ComputeScale(c.width, c.height, c.bubbles, c.opts.FillRatio)

	if !stats.Converged {
		c.logger.Debug("resolver budget exhausted", "passes", stats.Passes, "bubbles", len(out))
	}
}

// clampInto clamps every bubble except locked into the viewport in place and
// returns the ids of the bubbles it moved.
func (c *Canvas) clampInto(bs []bubble.Bubble, locked string) []string {
	if !c.hasViewport() {
		return nil
	}
	var moved []string
	for i := range bs {
		if bs[i].ID == locked {
			continue
		}
		clamped := layout.ClampBubble(bs[i], c.width, c.height)
		if clamped.X != bs[i].X || clamped.Y != bs[i].Y {
			bs[i] = clamped
			moved = append(moved, bs[i].ID)
		}
	}
	return moved
}

func (c *Canvas) hasViewport() bool {
	return c.width > 0 && c.height > 0
}

func sanitizeDim(v float64) float64 {
	if !finite(v) || v < 0 {
		return 0
	}
	return v
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
