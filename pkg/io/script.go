package io

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/coinbubbles/pkg/bubble"
	"github.com/matzehuels/coinbubbles/pkg/canvas"
	"github.com/matzehuels/coinbubbles/pkg/errors"
)

// Op names a canvas event.
type Op string

const (
	OpSelect Op = "select"
	OpMove   Op = "move"
	OpResize Op = "resize"
	OpSize   Op = "size"
)

// Event is one scripted canvas operation. Fields irrelevant to Op are
// ignored.
type Event struct {
	Op        Op              `json:"op" yaml:"op"`
	ID        string          `json:"id,omitempty" yaml:"id,omitempty"`
	X         float64         `json:"x,omitempty" yaml:"x,omitempty"`
	Y         float64         `json:"y,omitempty" yaml:"y,omitempty"`
	Width     float64         `json:"width,omitempty" yaml:"width,omitempty"`
	Height    float64         `json:"height,omitempty" yaml:"height,omitempty"`
	Size      float64         `json:"size,omitempty" yaml:"size,omitempty"`
	Increment *float64        `json:"increment,omitempty" yaml:"increment,omitempty"`
	Meta      bubble.Metadata `json:"meta,omitempty" yaml:"meta,omitempty"`
}

// Script is an initial viewport followed by events.
type Script struct {
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
	Events []Event `json:"events" yaml:"events"`
}

// Validate checks every event for the fields its op requires.
func (s Script) Validate() error {
	for i, ev := range s.Events {
		switch ev.Op {
		case OpSelect, OpMove, OpSize:
			if ev.ID == "" {
				return errors.New(errors.ErrCodeInvalidFormat, "event %d (%s): missing id", i, ev.Op)
			}
		case OpResize:
		default:
			return errors.New(errors.ErrCodeInvalidFormat, "event %d: unknown op %q", i, ev.Op)
		}
	}
	return nil
}

// Apply runs ev against c. A select grows existing bubbles by the event's
// increment, or by growIncrement when none is given.
func (ev Event) Apply(c *canvas.Canvas, growIncrement float64) {
	switch ev.Op {
	case OpSelect:
		inc := 0.0
		if _, ok := c.Bubble(ev.ID); ok {
			inc = growIncrement
		}
		if ev.Increment != nil {
			inc = *ev.Increment
		}
		c.AddOrGrow(ev.ID, ev.Meta, inc)
	case OpMove:
		c.MoveBubble(ev.ID, ev.X, ev.Y)
	case OpResize:
		c.RecomputeScale(ev.Width, ev.Height)
	case OpSize:
		c.ApplySize(ev.ID, ev.Size)
	}
}

// ReadScript decodes a script in the given format ("json" or "yaml").
func ReadScript(r io.Reader, format string) (Script, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Script{}, err
	}

	var s Script
	switch strings.ToLower(format) {
	case "json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&s)
	case "yaml", "yml":
		err = yaml.Unmarshal(data, &s)
	default:
		return Script{}, errors.New(errors.ErrCodeUnsupported, "unsupported script format %q", format)
	}
	if err != nil {
		return Script{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode script")
	}
	if err := s.Validate(); err != nil {
		return Script{}, err
	}
	return s, nil
}

// ImportScript reads a script file, choosing the format by extension.
func ImportScript(path string) (Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return Script{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	format := strings.TrimPrefix(filepath.Ext(path), ".")
	if format == "" {
		format = "json"
	}
	return ReadScript(f, format)
}
