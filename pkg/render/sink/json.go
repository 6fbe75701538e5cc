package sink

import (
	"encoding/json"

	"github.com/matzehuels/coinbubbles/pkg/canvas"
)

// JSONOption configures [RenderJSON].
type JSONOption func(*jsonRenderer)

type jsonRenderer struct {
	compact bool
	stats   *canvas.Stats
}

// WithCompactJSON disables indentation.
func WithCompactJSON() JSONOption { return func(r *jsonRenderer) { r.compact = true } }

// WithStats records how the last resolve went.
func WithStats(s canvas.Stats) JSONOption { return func(r *jsonRenderer) { r.stats = &s } }

type jsonOutput struct {
	Width     float64      `json:"width"`
	Height    float64      `json:"height"`
	Scale     float64      `json:"scale"`
	FillRatio float64      `json:"fill_ratio"`
	Bubbles   []jsonBubble `json:"bubbles"`
	Passes    int          `json:"passes,omitempty"`
	Converged *bool        `json:"converged,omitempty"`
}

type jsonBubble struct {
	ID         string    `json:"id"`
	Label      string    `json:"label"`
	X          float64   `json:"x"`
	Y          float64   `json:"y"`
	CX         float64   `json:"cx"`
	CY         float64   `json:"cy"`
	BaseSize   float64   `json:"base_size"`
	RenderSize float64   `json:"render_size"`
	Color      string    `json:"color"`
	Meta       *jsonMeta `json:"meta,omitempty"`
}

type jsonMeta struct {
	Name      string  `json:"name,omitempty"`
	Symbol    string  `json:"symbol,omitempty"`
	Image     string  `json:"image,omitempty"`
	Price     float64 `json:"price,omitempty"`
	MarketCap float64 `json:"market_cap,omitempty"`
}

// RenderJSON exports f with derived centres, labels and colours.
func RenderJSON(f canvas.Frame, opts ...JSONOption) ([]byte, error) {
	r := jsonRenderer{}
	for _, opt := range opts {
		opt(&r)
	}

	out := jsonOutput{
		Width:     f.Width,
		Height:    f.Height,
		Scale:     f.Scale,
		FillRatio: f.FillRatio,
		Bubbles:   make([]jsonBubble, 0, len(f.Bubbles)),
	}
	if r.stats != nil {
		out.Passes = r.stats.Passes
		out.Converged = &r.stats.Converged
	}
	for _, b := range f.Bubbles {
		radius := b.RenderSize / 2
		jb := jsonBubble{
			ID:         b.ID,
			Label:      Label(b),
			X:          b.X,
			Y:          b.Y,
			CX:         b.X + radius,
			CY:         b.Y + radius,
			BaseSize:   b.BaseSize,
			RenderSize: b.RenderSize,
			Color:      Color(b.ID),
		}
		if !b.Meta.IsZero() {
			jb.Meta = &jsonMeta{
				Name:      b.Meta.Name,
				Symbol:    b.Meta.Symbol,
				Image:     b.Meta.ImageRef,
				Price:     b.Meta.Price,
				MarketCap: b.Meta.MarketCap,
			}
		}
		out.Bubbles = append(out.Bubbles, jb)
	}

	if r.compact {
		return json.Marshal(out)
	}
	return json.MarshalIndent(out, "", "  ")
}
