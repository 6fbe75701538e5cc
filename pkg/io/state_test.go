package io

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/coinbubbles/pkg/bubble"
	"github.com/matzehuels/coinbubbles/pkg/canvas"
	"github.com/matzehuels/coinbubbles/pkg/errors"
)

func TestStateRoundTripThroughCanvas(t *testing.T) {
	c := canvas.New(canvas.Options{Width: 1000, Height: 800, Seed: 3})
	c.AddOrGrow("bitcoin", bubble.Metadata{Symbol: "BTC"}, 0)
	c.AddOrGrow("ethereum", bubble.Metadata{Symbol: "ETH"}, 0)
	c.AddOrGrow("bitcoin", bubble.Metadata{}, 10)

	path := filepath.Join(t.TempDir(), "state.json")
	if err := ExportState(Snapshot(c), path); err != nil {
		t.Fatalf("ExportState: %v", err)
	}
	s, err := ImportState(path)
	if err != nil {
		t.Fatalf("ImportState: %v", err)
	}
	if s.Width != 1000 || s.Height != 800 || s.FillRatio != 0.5 {
		t.Errorf("viewport = %vx%v fill %v", s.Width, s.Height, s.FillRatio)
	}

	restored := s.Canvas(canvas.Options{})
	want, got := c.Bubbles(), restored.Bubbles()
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("bubble %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestWriteStateEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteState(State{Width: 10, Height: 10}, &buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"bubbles": []`) {
		t.Errorf("output = %s, want empty bubbles array", buf.String())
	}
}

func TestReadStateInvalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"malformed", `{"width": `},
		{"negative viewport", `{"width": -1, "height": 10, "bubbles": []}`},
		{"missing id", `{"width": 10, "height": 10, "bubbles": [{"baseSize": 50}]}`},
		{"duplicate id", `{"width": 10, "height": 10, "bubbles": [{"id": "a"}, {"id": "a"}]}`},
		{"negative fill", `{"width": 10, "height": 10, "fillRatio": -0.5, "bubbles": []}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadState(strings.NewReader(tt.input))
			if err == nil {
				t.Fatal("ReadState() should fail")
			}
			if !errors.Is(err, errors.ErrCodeInvalidFormat) {
				t.Errorf("code = %v, want %v", errors.GetCode(err), errors.ErrCodeInvalidFormat)
			}
		})
	}
}

func TestImportStateMissingFile(t *testing.T) {
	if _, err := ImportState(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("ImportState() should fail for a missing file")
	}
}
