package contact

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/coinbubbles/pkg/bubble"
	"github.com/matzehuels/coinbubbles/pkg/canvas"
)

// resolvedFrame is the 1000x800 pair after a symmetric split: two 100px
// bubbles exactly touching, plus a distant third.
func resolvedFrame() canvas.Frame {
	return canvas.Frame{
		Width: 1000, Height: 800, Scale: 1,
		Bubbles: []canvas.Renderable{
			{ID: "A", X: 355, Y: 400, BaseSize: 100, RenderSize: 100, Meta: bubble.Metadata{Symbol: "a"}},
			{ID: "B", X: 455, Y: 400, BaseSize: 100, RenderSize: 100},
			{ID: "C", X: 0, Y: 0, BaseSize: 50, RenderSize: 50},
		},
	}
}

func TestContacts(t *testing.T) {
	edges := Contacts(resolvedFrame(), 0)
	if len(edges) != 1 {
		t.Fatalf("edges = %+v, want one", edges)
	}
	if edges[0].From != "A" || edges[0].To != "B" || edges[0].Gap != 0 {
		t.Errorf("edge = %+v", edges[0])
	}
}

func TestContactsOverlapAndTolerance(t *testing.T) {
	f := resolvedFrame()
	f.Bubbles[1].X = 445 // 10px overlap
	edges := Contacts(f, 0)
	if len(edges) != 1 || edges[0].Gap != -10 {
		t.Fatalf("edges = %+v", edges)
	}

	f.Bubbles[1].X = 460 // 5px gap
	if got := Contacts(f, 0); len(got) != 0 {
		t.Errorf("5px gap counted as contact: %+v", got)
	}
	if got := Contacts(f, 6); len(got) != 1 {
		t.Errorf("5px gap within tolerance 6 not counted: %+v", got)
	}
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(resolvedFrame(), Options{Labels: true})

	for _, want := range []string{
		"graph G {",
		"layout=neato;",
		`"A" [pos="405.00,350.00!", width=1.3889`,
		`label="A"`,
		`"A" -- "B";`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
	if strings.Contains(dot, `"C" --`) || strings.Contains(dot, `-- "C"`) {
		t.Error("distant bubble should have no edges")
	}
}

func TestToDOTMarksOverlaps(t *testing.T) {
	f := resolvedFrame()
	f.Bubbles[1].X = 445
	if dot := ToDOT(f, Options{}); !strings.Contains(dot, `"A" -- "B" [color=red];`) {
		t.Errorf("overlap not highlighted:\n%s", dot)
	}
}

func TestRenderSVG(t *testing.T) {
	svg, err := RenderSVG(context.Background(), ToDOT(resolvedFrame(), Options{Labels: true}))
	if err != nil {
		t.Fatalf("RenderSVG() error: %v", err)
	}
	if !bytes.Contains(svg, []byte("<svg")) {
		t.Error("output is not SVG")
	}
}

func TestRenderPNG(t *testing.T) {
	png, err := RenderPNG(context.Background(), ToDOT(resolvedFrame(), Options{}))
	if err != nil {
		t.Fatalf("RenderPNG() error: %v", err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Error("output is not PNG")
	}
}

func TestRenderInvalidDOT(t *testing.T) {
	if _, err := RenderSVG(context.Background(), "graph {"); err == nil {
		t.Error("RenderSVG() should fail on invalid DOT")
	}
}
