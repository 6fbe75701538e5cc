package cli

import (
	"context"
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/coinbubbles/pkg/canvas"
	"github.com/matzehuels/coinbubbles/pkg/directory"
	"github.com/matzehuels/coinbubbles/pkg/io"
	"github.com/matzehuels/coinbubbles/pkg/render/sink"
)

// Terminal cells are roughly twice as tall as they are wide.
const (
	cellWidth  = 8.0
	cellHeight = 16.0
	listWidth  = 26
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	canvasBorderStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim)
)

// =============================================================================
// CanvasModel - Interactive bubble canvas
// =============================================================================

// CanvasModel is the bubbletea model for the terminal canvas. The left pane
// lists coins; selecting one adds or grows its bubble, and the arrow keys
// drag the most recently selected bubble.
type CanvasModel struct {
	Canvas *canvas.Canvas
	Items  []directory.Item
	Cursor int
	Active string
	Grow   float64
	Cols   int
	Rows   int
}

// NewCanvasModel creates a canvas model over items.
func NewCanvasModel(cv *canvas.Canvas, items []directory.Item, grow float64) CanvasModel {
	m := CanvasModel{Canvas: cv, Items: items, Grow: grow, Cols: 60, Rows: 20}
	if bs := cv.Bubbles(); len(bs) > 0 {
		m.Active = bs[len(bs)-1].ID
	}
	return m
}

func (m CanvasModel) Init() tea.Cmd {
	return nil
}

func (m CanvasModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "k", "shift+tab":
			if m.Cursor > 0 {
				m.Cursor--
			}
		case "j", "tab":
			if m.Cursor < len(m.Items)-1 {
				m.Cursor++
			}
		case "enter", " ":
			if len(m.Items) == 0 {
				return m, nil
			}
			it := m.Items[m.Cursor]
			m.Canvas.AddOrGrow(it.ID, it.Metadata(), m.Grow)
			m.Active = it.ID
		case "up":
			m.nudge(0, -cellHeight)
		case "down":
			m.nudge(0, cellHeight)
		case "left":
			m.nudge(-2*cellWidth, 0)
		case "right":
			m.nudge(2*cellWidth, 0)
		}
	case tea.WindowSizeMsg:
		m.Cols = max(10, msg.Width-listWidth-4)
		m.Rows = max(5, msg.Height-5)
		m.Canvas.RecomputeScale(float64(m.Cols)*cellWidth, float64(m.Rows)*cellHeight)
	}
	return m, nil
}

// nudge moves the active bubble by (dx, dy) canvas units.
func (m CanvasModel) nudge(dx, dy float64) {
	b, ok := m.Canvas.Bubble(m.Active)
	if !ok {
		return
	}
	m.Canvas.MoveBubble(b.ID, b.X+dx, b.Y+dy)
}

func (m CanvasModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Coinbubbles"))
	b.WriteString("  ")
	b.WriteString(listDimStyle.Render("j/k choose  ⏎ select  ←↑↓→ move  q quit"))
	b.WriteString("\n\n")

	list := m.listView()
	grid := canvasBorderStyle.Render(strings.Join(RasterizeStyled(m.Canvas.Frame(), m.Cols, m.Rows, m.Active), "\n"))
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, list, grid))
	b.WriteString("\n")
	b.WriteString(frameStats(m.Canvas.Frame(), m.Canvas.LastStats()))

	return b.String()
}

func (m CanvasModel) listView() string {
	var b strings.Builder
	for i, it := range m.Items {
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		size := "—"
		if bb, ok := m.Canvas.Bubble(it.ID); ok {
			size = fmt.Sprintf("%.0f", bb.BaseSize)
		}
		line := fmt.Sprintf("%s%-6s %-10s %4s", cursor, strings.ToUpper(it.Symbol), truncate(it.Name, 10), size)
		switch {
		case i == m.Cursor:
			b.WriteString(listSelectedStyle.Render(line))
		case it.ID == m.Active:
			b.WriteString(listNormalStyle.Bold(true).Render(line))
		default:
			b.WriteString(listNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}
	return lipgloss.NewStyle().Width(listWidth).Render(b.String())
}

// =============================================================================
// Rasterizer
// =============================================================================

// Rasterize draws the frame onto a cols x rows character grid, one cell per
// cellWidth x cellHeight canvas units. A cell belongs to the last bubble
// whose circle contains the cell center. Labels are written across the
// middle row of bubbles wide enough to hold them.
func Rasterize(f canvas.Frame, cols, rows int) []string {
	owner := rasterOwners(f, cols, rows)
	out := make([]string, rows)
	for r := range rows {
		line := make([]rune, cols)
		for c := range cols {
			line[c] = ' '
			if owner[r][c] >= 0 {
				line[c] = '░'
			}
		}
		out[r] = string(line)
	}
	return overlayLabels(f, out, owner)
}

// RasterizeStyled is Rasterize with each bubble colored and the active
// bubble drawn solid.
func RasterizeStyled(f canvas.Frame, cols, rows int, active string) []string {
	owner := rasterOwners(f, cols, rows)
	plain := Rasterize(f, cols, rows)
	out := make([]string, rows)
	for r := range rows {
		line := []rune(plain[r])
		var b strings.Builder
		for c := 0; c < cols; {
			idx := owner[r][c]
			end := c
			for end < cols && owner[r][end] == idx {
				end++
			}
			run := string(line[c:end])
			if idx >= 0 {
				bb := f.Bubbles[idx]
				if bb.ID == active {
					run = strings.ReplaceAll(run, "░", "▓")
				}
				run = lipgloss.NewStyle().Foreground(lipgloss.Color(sink.Color(bb.ID))).Render(run)
			}
			b.WriteString(run)
			c = end
		}
		out[r] = b.String()
	}
	return out
}

func rasterOwners(f canvas.Frame, cols, rows int) [][]int {
	owner := make([][]int, rows)
	for r := range rows {
		owner[r] = make([]int, cols)
		for c := range cols {
			owner[r][c] = -1
		}
	}
	for i, b := range f.Bubbles {
		radius := b.RenderSize / 2
		cx, cy := b.X+radius, b.Y+radius
		r0 := max(0, int((cy-radius)/cellHeight))
		r1 := min(rows-1, int((cy+radius)/cellHeight))
		c0 := max(0, int((cx-radius)/cellWidth))
		c1 := min(cols-1, int((cx+radius)/cellWidth))
		for r := r0; r <= r1; r++ {
			for c := c0; c <= c1; c++ {
				px := (float64(c) + 0.5) * cellWidth
				py := (float64(r) + 0.5) * cellHeight
				if math.Hypot(px-cx, py-cy) <= radius {
					owner[r][c] = i
				}
			}
		}
	}
	return owner
}

func overlayLabels(f canvas.Frame, lines []string, owner [][]int) []string {
	rows := len(lines)
	for i, b := range f.Bubbles {
		radius := b.RenderSize / 2
		r := int((b.Y + radius) / cellHeight)
		if r < 0 || r >= rows {
			continue
		}
		label := []rune(sink.Label(b))
		line := []rune(lines[r])
		c := int((b.X+radius)/cellWidth) - len(label)/2
		if c < 0 || c+len(label) > len(line) {
			continue
		}
		fits := true
		for k := range label {
			if owner[r][c+k] != i {
				fits = false
				break
			}
		}
		if !fits {
			continue
		}
		copy(line[c:], label)
		lines[r] = string(line)
	}
	return lines
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// =============================================================================
// Command
// =============================================================================

type tuiOpts struct {
	offline bool
	noCache bool
	state   string
	save    string
}

// tuiCommand creates the interactive terminal canvas command.
func (c *CLI) tuiCommand() *cobra.Command {
	var opts tuiOpts

	cmd := &cobra.Command{
		Use:   "tui [query]",
		Short: "Play with the bubble canvas in the terminal",
		Long: `Play with the bubble canvas in the terminal.

Without a query, or with --offline, the built-in coin sample is listed.
Otherwise the coin directory is searched for the query.`,
		Example: `  coinbubbles tui
  coinbubbles tui sol
  coinbubbles tui --state saved.json --save saved.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := ""
			if len(args) == 1 {
				query = args[0]
			}
			return c.runTUI(cmd.Context(), query, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.offline, "offline", false, "use the built-in coin sample")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "bypass the HTTP response cache")
	cmd.Flags().StringVar(&opts.state, "state", "", "restore the canvas from a saved state file")
	cmd.Flags().StringVar(&opts.save, "save", "", "write the canvas state here on exit")

	return cmd
}

func (c *CLI) runTUI(ctx context.Context, query string, opts tuiOpts) error {
	cfg, err := c.config()
	if err != nil {
		return err
	}

	items := directory.Sample
	if query != "" && !opts.offline {
		dir, closeDir, err := c.newDirectory(ctx, cfg, opts.offline, opts.noCache)
		if err != nil {
			return err
		}
		defer closeDir()
		items, err = withSpinner(ctx, "Searching "+query+"...", func(ctx context.Context) ([]directory.Item, error) {
			return dir.Search(ctx, query)
		})
		if err != nil {
			return err
		}
	}
	if len(items) == 0 {
		printWarning("No coins match %q", query)
		return nil
	}

	// The canvas logs nothing while the terminal is in raw mode.
	canvasOpts := cfg.CanvasOptions(nil)
	cv, err := c.loadCanvas(canvasOpts, opts.state)
	if err != nil {
		return err
	}

	p := tea.NewProgram(NewCanvasModel(cv, items, cfg.Canvas.GrowIncrement), tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		return err
	}
	fm, ok := final.(CanvasModel)
	if !ok {
		return nil
	}

	printFrameStats(fm.Canvas.Frame(), fm.Canvas.LastStats())
	if opts.save != "" {
		if err := io.ExportState(io.Snapshot(fm.Canvas), opts.save); err != nil {
			return err
		}
		printSuccess("Saved state")
		printFile(opts.save)
	}
	return nil
}
