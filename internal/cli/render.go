package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/coinbubbles/pkg/canvas"
	"github.com/matzehuels/coinbubbles/pkg/errors"
	"github.com/matzehuels/coinbubbles/pkg/io"
	"github.com/matzehuels/coinbubbles/pkg/render"
	"github.com/matzehuels/coinbubbles/pkg/render/contact"
	"github.com/matzehuels/coinbubbles/pkg/render/sink"
)

// outputOpts holds the flags shared by commands that write a rendering.
type outputOpts struct {
	output     string  // output file; stdout when empty
	format     string  // svg, json, dot or png; inferred from output when empty
	images     bool    // embed coin logos (svg)
	noLabels   bool    // hide symbols (svg, dot)
	tooltips   bool    // add hover titles (svg)
	background string  // background color (svg)
	compact    bool    // unindented output (json)
	tolerance  float64 // contact tolerance in pixels (dot, png)
}

func (o *outputOpts) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVarP(&o.format, "format", "f", "", "output format: svg, json, dot, png (default from --output, else svg)")
	cmd.Flags().BoolVar(&o.images, "images", false, "embed coin logos (svg)")
	cmd.Flags().BoolVar(&o.noLabels, "no-labels", false, "hide symbols")
	cmd.Flags().BoolVar(&o.tooltips, "tooltips", false, "add hover tooltips with prices (svg)")
	cmd.Flags().StringVar(&o.background, "background", "", "background color (svg)")
	cmd.Flags().BoolVar(&o.compact, "compact", false, "compact JSON")
	cmd.Flags().Float64Var(&o.tolerance, "tolerance", contact.DefaultTolerance, "largest gap counted as contact (dot, png)")
}

func (o outputOpts) resolveFormat() (render.Format, error) {
	switch {
	case o.format != "":
		return render.ParseFormat(o.format)
	case o.output != "":
		return render.FormatFromPath(o.output)
	default:
		return render.FormatSVG, nil
	}
}

// renderCanvas renders the canvas in the requested format.
func renderCanvas(ctx context.Context, cv *canvas.Canvas, o outputOpts) ([]byte, render.Format, error) {
	format, err := o.resolveFormat()
	if err != nil {
		return nil, "", err
	}
	f := cv.Frame()

	switch format {
	case render.FormatSVG:
		var opts []sink.SVGOption
		if o.images {
			opts = append(opts, sink.WithImages())
		}
		if o.noLabels {
			opts = append(opts, sink.WithoutLabels())
		}
		if o.tooltips {
			opts = append(opts, sink.WithTooltips())
		}
		if o.background != "" {
			opts = append(opts, sink.WithBackground(o.background))
		}
		return sink.RenderSVG(f, opts...), format, nil

	case render.FormatJSON:
		opts := []sink.JSONOption{sink.WithStats(cv.LastStats())}
		if o.compact {
			opts = append(opts, sink.WithCompactJSON())
		}
		data, err := sink.RenderJSON(f, opts...)
		return data, format, err

	case render.FormatDOT, render.FormatPNG:
		dot := contact.ToDOT(f, contact.Options{Tolerance: o.tolerance, Labels: !o.noLabels})
		if format == render.FormatDOT {
			return []byte(dot), format, nil
		}
		if o.output == "" {
			return nil, "", errors.New(errors.ErrCodeInvalidInput, "png output needs --output")
		}
		data, err := contact.RenderPNG(ctx, dot)
		return data, format, err
	}
	return nil, "", errors.New(errors.ErrCodeUnsupported, "format %q", format)
}

// writeCanvas renders cv and writes it to the output file or stdout.
func writeCanvas(ctx context.Context, cmd *cobra.Command, cv *canvas.Canvas, o outputOpts) error {
	data, format, err := renderCanvas(ctx, cv, o)
	if err != nil {
		return err
	}
	if o.output == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(o.output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", o.output, err)
	}
	printSuccess("Rendered %s", format)
	printFile(o.output)
	return nil
}

type renderOpts struct {
	outputOpts
	width  float64
	height float64
}

// renderCommand creates the render command for saved canvas states.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render [state.json]",
		Short: "Render a saved canvas state",
		Long: `Render a saved canvas state as SVG, JSON, a Graphviz contact graph (dot)
or a PNG of that graph.

The state is restored, resolved once and rendered. --width and --height
replace the saved viewport.`,
		Example: `  coinbubbles render state.json -o bubbles.svg --images
  coinbubbles render state.json -f json
  coinbubbles render state.json -o contacts.png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd, args[0], opts)
		},
	}

	opts.register(cmd)
	cmd.Flags().Float64Var(&opts.width, "width", 0, "viewport width (default from state)")
	cmd.Flags().Float64Var(&opts.height, "height", 0, "viewport height (default from state)")

	return cmd
}

func (c *CLI) runRender(cmd *cobra.Command, path string, opts renderOpts) error {
	cfg, err := c.config()
	if err != nil {
		return err
	}
	st, err := io.ImportState(path)
	if err != nil {
		return err
	}
	cv := st.Canvas(cfg.CanvasOptions(c.Logger))
	if opts.width > 0 || opts.height > 0 {
		w, h := cv.Viewport()
		if opts.width > 0 {
			w = opts.width
		}
		if opts.height > 0 {
			h = opts.height
		}
		cv.RecomputeScale(w, h)
	}
	c.Logger.Debug("rendering state", "path", path, "bubbles", cv.Len())
	return writeCanvas(cmd.Context(), cmd, cv, opts.outputOpts)
}
