package layout

import (
	"testing"

	"github.com/matzehuels/coinbubbles/pkg/bubble"
)

func TestClamp(t *testing.T) {
	tests := []struct {
		name         string
		x, y, size   float64
		w, h         float64
		wantX, wantY float64
	}{
		{"inside", 100, 100, 50, 1000, 800, 100, 100},
		{"negative", -20, -5, 50, 1000, 800, 0, 0},
		{"past right and bottom", 990, 790, 50, 1000, 800, 950, 750},
		{"exactly at edge", 950, 750, 50, 1000, 800, 950, 750},
		{"larger than viewport", 30, 30, 2000, 1000, 800, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := Clamp(tt.x, tt.y, tt.size, tt.w, tt.h)
			if x != tt.wantX || y != tt.wantY {
				t.Errorf("Clamp() = (%v, %v), want (%v, %v)", x, y, tt.wantX, tt.wantY)
			}
		})
	}
}

func TestClampBubble(t *testing.T) {
	b := bubble.Bubble{ID: "a", BaseSize: 100, X: 950, Y: -3}
	got := ClampBubble(b, 1000, 800)
	if got.X != 900 || got.Y != 0 {
		t.Errorf("ClampBubble() position = (%v, %v), want (900, 0)", got.X, got.Y)
	}
	if b.X != 950 {
		t.Error("ClampBubble() modified its argument")
	}
}
