package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/coinbubbles/pkg/bubble"
	"github.com/matzehuels/coinbubbles/pkg/canvas"
	"github.com/matzehuels/coinbubbles/pkg/io"
	"github.com/matzehuels/coinbubbles/pkg/render"
)

const testScript = `width: 1000
height: 800
events:
  - {op: select, id: bitcoin, meta: {name: Bitcoin, symbol: BTC}}
  - {op: select, id: solana, meta: {name: Solana, symbol: SOL}}
  - {op: select, id: bitcoin}
  - {op: move, id: solana, x: 100, y: 100}
`

type renderedFrame struct {
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	Bubbles []struct {
		ID       string  `json:"id"`
		Label    string  `json:"label"`
		X        float64 `json:"x"`
		Y        float64 `json:"y"`
		BaseSize float64 `json:"base_size"`
	} `json:"bubbles"`
}

func writeScript(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "demo.yaml")
	if err := os.WriteFile(path, []byte(testScript), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestResolveFormat(t *testing.T) {
	tests := []struct {
		name    string
		opts    outputOpts
		want    render.Format
		wantErr bool
	}{
		{"default", outputOpts{}, render.FormatSVG, false},
		{"explicit", outputOpts{format: "json"}, render.FormatJSON, false},
		{"from path", outputOpts{output: "graph.dot"}, render.FormatDOT, false},
		{"explicit wins", outputOpts{output: "out.svg", format: "png"}, render.FormatPNG, false},
		{"unknown", outputOpts{format: "pdf"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.opts.resolveFormat()
			if (err != nil) != tt.wantErr {
				t.Fatalf("resolveFormat() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("resolveFormat() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReplayCommandJSON(t *testing.T) {
	c := newTestCLI(t)
	out, err := execute(t, c, "replay", writeScript(t), "-f", "json", "--quiet")
	if err != nil {
		t.Fatalf("replay: %v", err)
	}

	var f renderedFrame
	if err := json.Unmarshal([]byte(out), &f); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if f.Width != 1000 || f.Height != 800 {
		t.Errorf("viewport = %vx%v, want 1000x800", f.Width, f.Height)
	}
	if len(f.Bubbles) != 2 {
		t.Fatalf("got %d bubbles, want 2", len(f.Bubbles))
	}
	sizes := map[string]float64{}
	for _, b := range f.Bubbles {
		sizes[b.ID] = b.BaseSize
	}
	if sizes["bitcoin"] != 60 {
		t.Errorf("bitcoin size = %v, want 60", sizes["bitcoin"])
	}
	if sizes["solana"] != 50 {
		t.Errorf("solana size = %v, want 50", sizes["solana"])
	}
	if f.Bubbles[0].Label != "BTC" {
		t.Errorf("label = %q, want BTC", f.Bubbles[0].Label)
	}
}

func TestReplayCommandSave(t *testing.T) {
	c := newTestCLI(t)
	state := filepath.Join(t.TempDir(), "state.json")
	out, err := execute(t, c, "replay", writeScript(t), "--save", state)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if out != "" {
		t.Errorf("expected no rendering on stdout, got %q", out)
	}

	st, err := io.ImportState(state)
	if err != nil {
		t.Fatalf("import saved state: %v", err)
	}
	if len(st.Bubbles) != 2 || st.Width != 1000 {
		t.Errorf("saved state = %+v", st)
	}
}

func TestReplayCommandBadScript(t *testing.T) {
	c := newTestCLI(t)
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("events:\n  - {op: explode, id: x}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := execute(t, c, "replay", path); err == nil {
		t.Error("expected error for unknown op")
	}
}

func TestRenderCommand(t *testing.T) {
	cv := canvas.New(canvas.Options{Width: 400, Height: 300})
	cv.AddOrGrow("bitcoin", bubble.Metadata{Symbol: "BTC"}, 0)
	cv.AddOrGrow("ethereum", bubble.Metadata{Symbol: "ETH"}, 0)
	state := filepath.Join(t.TempDir(), "state.json")
	if err := io.ExportState(io.Snapshot(cv), state); err != nil {
		t.Fatal(err)
	}

	t.Run("svg", func(t *testing.T) {
		out, err := execute(t, newTestCLI(t), "render", state)
		if err != nil {
			t.Fatalf("render: %v", err)
		}
		if !strings.HasPrefix(out, "<svg") || !strings.Contains(out, "BTC") {
			t.Errorf("unexpected svg:\n%s", out)
		}
	})

	t.Run("dot", func(t *testing.T) {
		out, err := execute(t, newTestCLI(t), "render", state, "-f", "dot")
		if err != nil {
			t.Fatalf("render: %v", err)
		}
		if !strings.Contains(out, "graph") || !strings.Contains(out, "bitcoin") {
			t.Errorf("unexpected dot:\n%s", out)
		}
	})

	t.Run("resized json", func(t *testing.T) {
		out, err := execute(t, newTestCLI(t), "render", state, "-f", "json", "--width", "800")
		if err != nil {
			t.Fatalf("render: %v", err)
		}
		var f renderedFrame
		if err := json.Unmarshal([]byte(out), &f); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if f.Width != 800 || f.Height != 300 {
			t.Errorf("viewport = %vx%v, want 800x300", f.Width, f.Height)
		}
	})

	t.Run("file output", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.json")
		if _, err := execute(t, newTestCLI(t), "render", state, "-o", path); err != nil {
			t.Fatalf("render: %v", err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if !json.Valid(data) {
			t.Errorf("output is not JSON:\n%s", data)
		}
	})

	t.Run("png needs output", func(t *testing.T) {
		if _, err := execute(t, newTestCLI(t), "render", state, "-f", "png"); err == nil {
			t.Error("expected error for png on stdout")
		}
	})

	t.Run("missing state", func(t *testing.T) {
		if _, err := execute(t, newTestCLI(t), "render", filepath.Join(t.TempDir(), "nope.json")); err == nil {
			t.Error("expected error for missing state")
		}
	})
}
