package io

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/matzehuels/coinbubbles/pkg/bubble"
	"github.com/matzehuels/coinbubbles/pkg/canvas"
	"github.com/matzehuels/coinbubbles/pkg/errors"
)

// State is the persisted form of a canvas.
type State struct {
	Width     float64         `json:"width"`
	Height    float64         `json:"height"`
	FillRatio float64         `json:"fillRatio,omitempty"`
	Bubbles   []bubble.Bubble `json:"bubbles"`
}

// Snapshot captures the current state of c.
func Snapshot(c *canvas.Canvas) State {
	w, h := c.Viewport()
	return State{Width: w, Height: h, FillRatio: c.FillRatio(), Bubbles: c.Bubbles()}
}

// Canvas builds a canvas from s. Viewport and fill ratio in s override
// those in opts.
func (s State) Canvas(opts canvas.Options) *canvas.Canvas {
	opts.Width, opts.Height = s.Width, s.Height
	if s.FillRatio > 0 {
		opts.FillRatio = s.FillRatio
	}
	c := canvas.New(opts)
	c.Restore(s.Bubbles)
	return c
}

// Validate checks the state for values a canvas cannot hold.
func (s State) Validate() error {
	if !finite(s.Width) || !finite(s.Height) || s.Width < 0 || s.Height < 0 {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid viewport %vx%v", s.Width, s.Height)
	}
	if !finite(s.FillRatio) || s.FillRatio < 0 {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid fill ratio %v", s.FillRatio)
	}
	seen := make(map[string]bool, len(s.Bubbles))
	for i, b := range s.Bubbles {
		if b.ID == "" {
			return errors.New(errors.ErrCodeInvalidFormat, "bubble %d: missing id", i)
		}
		if seen[b.ID] {
			return errors.New(errors.ErrCodeInvalidFormat, "bubble %s: duplicate id", b.ID)
		}
		seen[b.ID] = true
		if !finite(b.BaseSize) || !finite(b.X) || !finite(b.Y) {
			return errors.New(errors.ErrCodeInvalidFormat, "bubble %s: non-finite geometry", b.ID)
		}
	}
	return nil
}

// WriteState encodes s as indented JSON.
func WriteState(s State, w io.Writer) error {
	if s.Bubbles == nil {
		s.Bubbles = []bubble.Bubble{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportState writes s to a JSON file at path.
func ExportState(s State, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteState(s, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadState decodes and validates a state. ReadState does not close r.
func ReadState(r io.Reader) (State, error) {
	var s State
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return State{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode state")
	}
	if err := s.Validate(); err != nil {
		return State{}, err
	}
	return s, nil
}

// ImportState reads a state file.
func ImportState(path string) (State, error) {
	f, err := os.Open(path)
	if err != nil {
		return State{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadState(f)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
