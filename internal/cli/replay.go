package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/coinbubbles/pkg/io"
)

type replayOpts struct {
	outputOpts
	save  string
	quiet bool
}

// replayCommand creates the replay command, which drives a canvas from a
// script of select, move, resize and size events.
func (c *CLI) replayCommand() *cobra.Command {
	var opts replayOpts

	cmd := &cobra.Command{
		Use:   "replay [script]",
		Short: "Run a scripted sequence of canvas events",
		Long: `Run a scripted sequence of canvas events and render the result.

Scripts are JSON or YAML (by extension):

  width: 1000
  height: 800
  events:
    - {op: select, id: bitcoin, meta: {name: Bitcoin, symbol: BTC}}
    - {op: select, id: bitcoin}
    - {op: move, id: bitcoin, x: 400, y: 300}
    - {op: resize, width: 600, height: 400}
    - {op: size, id: bitcoin, size: 80}

A repeated select grows the bubble by the configured grow increment unless
the event sets its own increment.`,
		Example: `  coinbubbles replay demo.yaml -o demo.svg
  coinbubbles replay demo.yaml --save state.json -f json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runReplay(cmd, args[0], opts)
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVar(&opts.save, "save", "", "write the final canvas state to this file")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "do not print statistics")

	return cmd
}

func (c *CLI) runReplay(cmd *cobra.Command, path string, opts replayOpts) error {
	cfg, err := c.config()
	if err != nil {
		return err
	}
	script, err := io.ImportScript(path)
	if err != nil {
		return err
	}

	prog := newProgress(c.Logger)
	canvasOpts := cfg.CanvasOptions(c.Logger)
	if script.Width > 0 || script.Height > 0 {
		canvasOpts.Width, canvasOpts.Height = script.Width, script.Height
	}
	cv, err := c.loadCanvas(canvasOpts, "")
	if err != nil {
		return err
	}
	for i, ev := range script.Events {
		ev.Apply(cv, cfg.Canvas.GrowIncrement)
		c.Logger.Debug("event", "n", i, "op", ev.Op, "id", ev.ID, "passes", cv.LastStats().Passes)
	}
	prog.done("replayed script", "events", len(script.Events), "bubbles", cv.Len())

	if opts.save != "" {
		if err := io.ExportState(io.Snapshot(cv), opts.save); err != nil {
			return err
		}
		printSuccess("Saved state")
		printFile(opts.save)
		printNextStep("Render it", "coinbubbles render "+opts.save+" -o bubbles.svg")
	}
	if !opts.quiet && opts.output != "" {
		printFrameStats(cv.Frame(), cv.LastStats())
	}
	if opts.output == "" && opts.save != "" && opts.format == "" {
		return nil
	}
	return writeCanvas(cmd.Context(), cmd, cv, opts.outputOpts)
}
