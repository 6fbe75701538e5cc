package canvas

import (
	"math"
	"testing"

	"github.com/matzehuels/coinbubbles/pkg/bubble"
	"github.com/matzehuels/coinbubbles/pkg/layout"
)

// seqRand replays a fixed sequence of values.
type seqRand struct {
	vals []float64
	i    int
}

func (r *seqRand) Float64() float64 {
	v := r.vals[r.i%len(r.vals)]
	r.i++
	return v
}

func newCanvas(vals ...float64) *Canvas {
	opts := Options{Width: 1000, Height: 800}
	if len(vals) > 0 {
		opts.Rand = &seqRand{vals: vals}
	}
	return New(opts)
}

func TestAddOrGrowNewBubble(t *testing.T) {
	c := newCanvas(0.5, 0.5)
	got := c.AddOrGrow("btc", bubble.Metadata{Symbol: "BTC"}, DefaultGrowIncrement)

	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	b := got[0]
	if b.BaseSize != bubble.DefaultSize {
		t.Errorf("BaseSize = %v, want %v", b.BaseSize, bubble.DefaultSize)
	}
	if b.X != 475 || b.Y != 375 {
		t.Errorf("position = (%v, %v), want (475, 375)", b.X, b.Y)
	}
	if b.Meta.Symbol != "BTC" {
		t.Errorf("Symbol = %q, want BTC", b.Meta.Symbol)
	}
}

func TestAddOrGrowExactIncrement(t *testing.T) {
	tests := []struct {
		name      string
		increment float64
		want      float64
	}{
		{"default", DefaultGrowIncrement, 60},
		{"zero", 0, 50},
		{"fractional", 2.5, 52.5},
		{"negative treated as zero", -30, 50},
		{"nan treated as zero", math.NaN(), 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCanvas(0.5, 0.5)
			c.AddOrGrow("eth", bubble.Metadata{}, 0)
			c.AddOrGrow("eth", bubble.Metadata{}, tt.increment)
			b, ok := c.Bubble("eth")
			if !ok {
				t.Fatal("bubble missing")
			}
			if b.BaseSize != tt.want {
				t.Errorf("BaseSize = %v, want %v", b.BaseSize, tt.want)
			}
			if c.Len() != 1 {
				t.Errorf("Len = %d, want 1", c.Len())
			}
		})
	}
}

func TestAddOrGrowKeepsMetadataWhenEmpty(t *testing.T) {
	c := newCanvas(0.5, 0.5)
	c.AddOrGrow("sol", bubble.Metadata{Name: "Solana"}, 0)
	c.AddOrGrow("sol", bubble.Metadata{}, 10)
	if b, _ := c.Bubble("sol"); b.Meta.Name != "Solana" {
		t.Errorf("Name = %q, want Solana", b.Meta.Name)
	}
	c.AddOrGrow("sol", bubble.Metadata{Name: "Solana v2"}, 0)
	if b, _ := c.Bubble("sol"); b.Meta.Name != "Solana v2" {
		t.Errorf("Name = %q, want Solana v2", b.Meta.Name)
	}
}

func TestAddOrGrowEmptyID(t *testing.T) {
	c := newCanvas()
	if got := c.AddOrGrow("", bubble.Metadata{}, 0); len(got) != 0 {
		t.Errorf("len = %d, want 0", len(got))
	}
}

func TestAddOrGrowSeparatesNewcomer(t *testing.T) {
	// Second bubble lands 19px to the right of the first.
	c := newCanvas(0.5, 0.5, 0.52, 0.5)
	c.AddOrGrow("a", bubble.Metadata{}, 0)
	got := c.AddOrGrow("b", bubble.Metadata{}, 0)

	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if bubble.Overlaps(got[0], got[1], 1e-6) {
		t.Errorf("bubbles overlap: %+v %+v", got[0], got[1])
	}
	if !c.LastStats().Converged {
		t.Error("resolver did not converge")
	}
	assertInside(t, c, got)
}

func TestAddOrGrowNewcomerNearCorner(t *testing.T) {
	tests := []struct {
		name string
		at   bubble.Bubble
		rand []float64
	}{
		// Newcomer lands at (9.5, 7.5), between the wall and a's center.
		{"top left", bubble.Bubble{ID: "a", BaseSize: 100, X: 0, Y: 0}, []float64{0.01, 0.01}},
		{"bottom right", bubble.Bubble{ID: "a", BaseSize: 100, X: 900, Y: 700}, []float64{0.99, 0.99}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCanvas(tt.rand...)
			c.Restore([]bubble.Bubble{tt.at})
			got := c.AddOrGrow("b", bubble.Metadata{}, 0)

			if len(got) != 2 {
				t.Fatalf("len = %d, want 2", len(got))
			}
			if bubble.Overlaps(got[0], got[1], 1e-6) {
				t.Errorf("newcomer overlaps: a=(%v, %v) b=(%v, %v) dist=%v",
					got[0].X, got[0].Y, got[1].X, got[1].Y, bubble.Distance(got[0], got[1]))
			}
			if !c.LastStats().Converged {
				t.Errorf("Converged = false after %d passes", c.LastStats().Passes)
			}
			assertInside(t, c, got)
		})
	}
}

func TestCommitReportsBestEffort(t *testing.T) {
	// Two 600px bubbles cannot both fit side by side in a 1000x800 viewport
	// without overlapping.
	c := newCanvas(0.5, 0.5)
	c.Restore([]bubble.Bubble{
		{ID: "a", BaseSize: 600, X: 0, Y: 0},
		{ID: "b", BaseSize: 600, X: 400, Y: 200},
	})

	got := c.Bubbles()
	if !bubble.Overlaps(got[0], got[1], 1e-6) {
		t.Fatal("expected the bubbles to still overlap")
	}
	if c.LastStats().Converged {
		t.Error("Converged = true with overlap left")
	}
	if c.LastStats().Passes != layout.MaxIterations {
		t.Errorf("Passes = %d, want %d", c.LastStats().Passes, layout.MaxIterations)
	}
	assertInside(t, c, got)
}

func TestGrowPushesNeighbours(t *testing.T) {
	c := newCanvas(0.5, 0.5, 0.56, 0.5)
	c.AddOrGrow("a", bubble.Metadata{}, 0)
	c.AddOrGrow("b", bubble.Metadata{}, 0)
	got := c.AddOrGrow("a", bubble.Metadata{}, 40)

	if bubble.Overlaps(got[0], got[1], 1e-6) {
		t.Errorf("bubbles overlap after growth: %+v %+v", got[0], got[1])
	}
	if got[0].BaseSize != 90 {
		t.Errorf("BaseSize = %v, want 90", got[0].BaseSize)
	}
}

func TestMoveBubbleClampsToViewport(t *testing.T) {
	tests := []struct {
		name         string
		x, y         float64
		wantX, wantY float64
	}{
		{"inside", 100, 200, 100, 200},
		{"past right and top", 2000, -50, 950, 0},
		{"past bottom and left", -10, 900, 0, 750},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCanvas(0.1, 0.1)
			c.AddOrGrow("a", bubble.Metadata{}, 0)
			c.MoveBubble("a", tt.x, tt.y)
			b, _ := c.Bubble("a")
			if b.X != tt.wantX || b.Y != tt.wantY {
				t.Errorf("position = (%v, %v), want (%v, %v)", b.X, b.Y, tt.wantX, tt.wantY)
			}
		})
	}
}

func TestMoveBubbleLocksDragged(t *testing.T) {
	c := newCanvas(0.1, 0.5, 0.6, 0.5)
	c.AddOrGrow("a", bubble.Metadata{}, 0)
	c.AddOrGrow("b", bubble.Metadata{}, 0)
	b, _ := c.Bubble("b")

	got := c.MoveBubble("a", b.X+10, b.Y)
	a, _ := c.Bubble("a")
	if a.X != b.X+10 || a.Y != b.Y {
		t.Errorf("dragged bubble moved to (%v, %v), want (%v, %v)", a.X, a.Y, b.X+10, b.Y)
	}
	if bubble.Overlaps(got[0], got[1], 1e-6) {
		t.Errorf("bubbles overlap after drag: %+v %+v", got[0], got[1])
	}
}

func TestMoveBubbleNoOp(t *testing.T) {
	c := newCanvas(0.5, 0.5)
	c.AddOrGrow("a", bubble.Metadata{}, 0)
	before := c.Bubbles()

	c.MoveBubble("missing", 10, 10)
	c.MoveBubble("a", math.NaN(), 10)
	c.MoveBubble("a", 10, math.Inf(1))

	after := c.Bubbles()
	if len(after) != 1 || after[0] != before[0] {
		t.Errorf("canvas changed: %+v -> %+v", before, after)
	}
}

func TestApplySize(t *testing.T) {
	c := newCanvas(0.5, 0.5)
	c.AddOrGrow("a", bubble.Metadata{}, 0)

	c.ApplySize("a", 120)
	if b, _ := c.Bubble("a"); b.BaseSize != 120 {
		t.Errorf("BaseSize = %v, want 120", b.BaseSize)
	}
	c.ApplySize("a", -5)
	if b, _ := c.Bubble("a"); b.BaseSize != bubble.MinSize {
		t.Errorf("BaseSize = %v, want %v", b.BaseSize, bubble.MinSize)
	}
	c.ApplySize("missing", 80)
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
}

func TestRecomputeScale(t *testing.T) {
	c := newCanvas(0, 0)
	c.AddOrGrow("a", bubble.Metadata{}, 350)
	before := c.Bubbles()

	scale := c.RecomputeScale(100, 100)
	want := math.Sqrt(4 * 0.5 * 10000 / (math.Pi * 400 * 400))
	if math.Abs(scale-want) > 1e-9 {
		t.Errorf("scale = %v, want %v", scale, want)
	}
	if c.Scale() != scale {
		t.Errorf("Scale() = %v, want %v", c.Scale(), scale)
	}
	if after := c.Bubbles(); after[0] != before[0] {
		t.Errorf("RecomputeScale moved bubble: %+v -> %+v", before[0], after[0])
	}

	r := c.Renderables()
	if math.Abs(r[0].RenderSize-400*want) > 1e-9 {
		t.Errorf("RenderSize = %v, want %v", r[0].RenderSize, 400*want)
	}
	if r[0].BaseSize != 400 {
		t.Errorf("BaseSize = %v, want 400", r[0].BaseSize)
	}

	if got := c.RecomputeScale(0, 0); got != 1 {
		t.Errorf("scale with empty viewport = %v, want 1", got)
	}
}

func TestScaleFollowsPopulation(t *testing.T) {
	c := New(Options{Width: 200, Height: 200, Rand: &seqRand{vals: []float64{0.5}}})
	c.AddOrGrow("a", bubble.Metadata{}, 0)
	if c.Scale() != 1 {
		t.Fatalf("scale = %v, want 1", c.Scale())
	}
	c.AddOrGrow("a", bubble.Metadata{}, 300)
	if c.Scale() >= 1 {
		t.Errorf("scale = %v, want < 1 after growth", c.Scale())
	}
}

func TestRestore(t *testing.T) {
	c := newCanvas()
	got := c.Restore([]bubble.Bubble{
		{ID: "a", BaseSize: 60, X: 10, Y: 10},
		{ID: "", BaseSize: 60},
		{ID: "a", BaseSize: 90, X: 500, Y: 500},
		{ID: "b", BaseSize: 0, X: 700, Y: 300},
	})
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].BaseSize != 60 {
		t.Errorf("a BaseSize = %v, want 60", got[0].BaseSize)
	}
	if got[1].BaseSize != bubble.MinSize {
		t.Errorf("b BaseSize = %v, want %v", got[1].BaseSize, bubble.MinSize)
	}
}

func TestSnapshotsAreCopies(t *testing.T) {
	c := newCanvas(0.5, 0.5)
	got := c.AddOrGrow("a", bubble.Metadata{}, 0)
	got[0].X = -999
	if b, _ := c.Bubble("a"); b.X == -999 {
		t.Error("mutating a returned snapshot changed the canvas")
	}
	if c.Bubbles() == nil {
		t.Error("Bubbles() = nil, want empty slice")
	}
}

func TestSeedIsReproducible(t *testing.T) {
	a := New(Options{Width: 1000, Height: 800, Seed: 7})
	b := New(Options{Width: 1000, Height: 800, Seed: 7})
	for _, id := range []string{"x", "y", "z"} {
		a.AddOrGrow(id, bubble.Metadata{}, 0)
		b.AddOrGrow(id, bubble.Metadata{}, 0)
	}
	ga, gb := a.Bubbles(), b.Bubbles()
	for i := range ga {
		if ga[i] != gb[i] {
			t.Errorf("bubble %d = %+v, want %+v", i, ga[i], gb[i])
		}
	}
}

func TestFrame(t *testing.T) {
	c := newCanvas(0.5, 0.5)
	c.AddOrGrow("a", bubble.Metadata{}, 0)
	f := c.Frame()
	if f.Width != 1000 || f.Height != 800 {
		t.Errorf("viewport = %vx%v, want 1000x800", f.Width, f.Height)
	}
	if f.FillRatio != 0.5 || f.Scale != 1 {
		t.Errorf("fill, scale = %v, %v, want 0.5, 1", f.FillRatio, f.Scale)
	}
	if len(f.Bubbles) != 1 || f.Bubbles[0].RenderSize != 50 {
		t.Errorf("bubbles = %+v", f.Bubbles)
	}
}

func assertInside(t *testing.T, c *Canvas, bs []bubble.Bubble) {
	t.Helper()
	w, h := c.Viewport()
	for _, b := range bs {
		if b.X < 0 || b.Y < 0 || b.X > w-b.BaseSize || b.Y > h-b.BaseSize {
			t.Errorf("bubble %s at (%v, %v) outside %vx%v", b.ID, b.X, b.Y, w, h)
		}
	}
}
