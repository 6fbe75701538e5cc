package bubble

import "math"

// DefaultSize is the diameter given to a bubble the first time its item is
// selected.
const DefaultSize = 50.0

// MinSize is the smallest diameter a bubble may have.
const MinSize = 1.0

// Metadata holds display attributes. The layout engine never reads them.
type Metadata struct {
	Name      string  `json:"name,omitempty" yaml:"name,omitempty" bson:"name,omitempty"`
	Symbol    string  `json:"symbol,omitempty" yaml:"symbol,omitempty" bson:"symbol,omitempty"`
	ImageRef  string  `json:"image,omitempty" yaml:"image,omitempty" bson:"image,omitempty"`
	Price     float64 `json:"price,omitempty" yaml:"price,omitempty" bson:"price,omitempty"`
	MarketCap float64 `json:"marketCap,omitempty" yaml:"marketCap,omitempty" bson:"market_cap,omitempty"`
}

// IsZero reports whether no attribute is set.
func (m Metadata) IsZero() bool { return m == Metadata{} }

// Bubble is a circle on the canvas. X and Y locate the top-left corner of
// the bounding box in canvas space.
type Bubble struct {
	ID       string   `json:"id" bson:"id"`
	BaseSize float64  `json:"baseSize" bson:"base_size"`
	X        float64  `json:"x" bson:"x"`
	Y        float64  `json:"y" bson:"y"`
	Meta     Metadata `json:"meta" bson:"meta"`
}

// New returns a bubble with its size clamped to at least minSize.
func New(id string, meta Metadata, size, x, y, minSize float64) Bubble {
	return Bubble{ID: id, BaseSize: ClampSize(size, minSize), X: x, Y: y, Meta: meta}
}

// Radius returns half the base size.
func (b Bubble) Radius() float64 { return b.BaseSize / 2 }

// Center returns the center of the bubble's bounding box.
func (b Bubble) Center() (cx, cy float64) {
	r := b.Radius()
	return b.X + r, b.Y + r
}

// Distance returns the Euclidean distance between the centers of a and b.
func Distance(a, b Bubble) float64 {
	ax, ay := a.Center()
	bx, by := b.Center()
	return math.Hypot(bx-ax, by-ay)
}

// Overlaps reports whether a and b overlap by more than eps.
func Overlaps(a, b Bubble, eps float64) bool {
	return Distance(a, b) < a.Radius()+b.Radius()-eps
}

// ClampSize returns size, or min when size is NaN, infinite or below min.
// A non-positive min is replaced by [MinSize].
func ClampSize(size, min float64) float64 {
	if min <= 0 || math.IsNaN(min) {
		min = MinSize
	}
	if math.IsNaN(size) || math.IsInf(size, 0) || size < min {
		return min
	}
	return size
}

// Clone returns a copy of bubbles backed by new storage.
func Clone(bubbles []Bubble) []Bubble {
	if bubbles == nil {
		return nil
	}
	out := make([]Bubble, len(bubbles))
	copy(out, bubbles)
	return out
}

// Index returns the position of the bubble with the given id, or -1.
func Index(bubbles []Bubble, id string) int {
	for i := range bubbles {
		if bubbles[i].ID == id {
			return i
		}
	}
	return -1
}
