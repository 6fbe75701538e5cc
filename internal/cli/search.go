package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/coinbubbles/pkg/directory"
	"github.com/matzehuels/coinbubbles/pkg/errors"
)

type searchOpts struct {
	offline bool
	noCache bool
	json    bool
}

// searchCommand creates the search command.
func (c *CLI) searchCommand() *cobra.Command {
	var opts searchOpts

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search coins by name or symbol",
		Example: `  coinbubbles search bitcoin
  coinbubbles search sol --json
  coinbubbles search eth --offline`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSearch(cmd, args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.offline, "offline", false, "search the built-in coin sample")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "bypass the HTTP response cache")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print results as JSON")

	return cmd
}

func (c *CLI) runSearch(cmd *cobra.Command, query string, opts searchOpts) error {
	q, err := errors.ValidateQuery(query)
	if err != nil {
		return err
	}
	cfg, err := c.config()
	if err != nil {
		return err
	}
	dir, closeDir, err := c.newDirectory(cmd.Context(), cfg, opts.offline, opts.noCache)
	if err != nil {
		return err
	}
	defer closeDir()

	items, err := withSpinner(cmd.Context(), "Searching "+q+"...", func(ctx context.Context) ([]directory.Item, error) {
		return dir.Search(ctx, q)
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	}
	if len(items) == 0 {
		printWarning("No coins match %q", q)
		return nil
	}
	printItems(out, items)
	printNextStep("Try them on a canvas", "coinbubbles tui --offline")
	return nil
}

// printItems writes a table of search results.
func printItems(w io.Writer, items []directory.Item) {
	rows := make([][]string, len(items))
	for i, it := range items {
		rows[i] = []string{it.ID, it.Name, it.Symbol, formatPrice(it.Price), formatCap(it.MarketCap)}
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "Name", "Symbol", "Price", "Market cap").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 0:
				return StyleHighlight
			case col >= 3:
				return StyleValue
			default:
				return lipgloss.NewStyle()
			}
		})

	fmt.Fprintln(w, t.Render())
}

func formatPrice(v float64) string {
	switch {
	case v <= 0:
		return "—"
	case v < 1:
		return "$" + strconv.FormatFloat(v, 'f', 4, 64)
	default:
		return "$" + strconv.FormatFloat(v, 'f', 2, 64)
	}
}

func formatCap(v float64) string {
	switch {
	case v <= 0:
		return "—"
	case v >= 1e12:
		return fmt.Sprintf("$%.2fT", v/1e12)
	case v >= 1e9:
		return fmt.Sprintf("$%.2fB", v/1e9)
	case v >= 1e6:
		return fmt.Sprintf("$%.2fM", v/1e6)
	default:
		return "$" + strconv.FormatFloat(v, 'f', 0, 64)
	}
}
