package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/coinbubbles/pkg/canvas"
)

// uiOut receives all human-oriented status output. Renderings and JSON go
// to the command's own writer instead.
var uiOut io.Writer = os.Stdout

// =============================================================================
// Palette and Styles
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // primary
	colorGreen  = lipgloss.Color("35")  // success, converged
	colorYellow = lipgloss.Color("220") // warnings, best effort
	colorBlue   = lipgloss.Color("75")  // links, commands
	colorWhite  = lipgloss.Color("255") // values
	colorGray   = lipgloss.Color("245") // labels
	colorDim    = lipgloss.Color("240") // muted
)

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleHighlight for emphasized values such as coin ids.
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleLink for URLs.
	StyleLink = lipgloss.NewStyle().Foreground(colorBlue).Underline(true)

	// StyleDim for secondary text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

var (
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)
	styleLabel       = lipgloss.NewStyle().Foreground(colorGray).Width(12)
	styleCommand     = lipgloss.NewStyle().Foreground(colorBlue)
	styleConverged   = lipgloss.NewStyle().Foreground(colorGreen)
	styleBestEffort  = lipgloss.NewStyle().Foreground(colorYellow)
)

// status line icons
var (
	iconSuccess = lipgloss.NewStyle().Foreground(colorGreen).Render("✓")
	iconWarning = lipgloss.NewStyle().Foreground(colorYellow).Render("!")
	iconInfo    = lipgloss.NewStyle().Foreground(colorGray).Render("›")
	iconArrow   = StyleDim.Render("→")
)

// =============================================================================
// Status Output
// =============================================================================

func status(icon, format string, args ...any) {
	fmt.Fprintln(uiOut, icon+" "+fmt.Sprintf(format, args...))
}

func printSuccess(format string, args ...any) { status(iconSuccess, format, args...) }

func printInfo(format string, args ...any) { status(iconInfo, format, args...) }

func printWarning(format string, args ...any) {
	status(iconWarning, "%s", StyleWarning.Render(fmt.Sprintf(format, args...)))
}

// printDetail prints an indented, muted line.
func printDetail(format string, args ...any) {
	fmt.Fprintln(uiOut, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile points at a file that was written.
func printFile(path string) {
	fmt.Fprintln(uiOut, "  "+iconArrow+" "+StyleValue.Render(path))
}

func printKeyValue(key, value string) {
	fmt.Fprintln(uiOut, styleLabel.Render(key)+" "+StyleValue.Render(value))
}

// printNextStep suggests a follow-up command.
func printNextStep(description, cmd string) {
	fmt.Fprintln(uiOut, StyleDim.Render(description+":")+" "+styleCommand.Render(cmd))
}

// =============================================================================
// Canvas Summary
// =============================================================================

// frameStats summarizes a frame and the resolve that produced it on one
// line, e.g. "3 bubbles · scale 0.812 · 2 passes · converged".
func frameStats(f canvas.Frame, stats canvas.Stats) string {
	sep := StyleDim.Render(" · ")
	parts := []string{
		StyleDim.Render(fmt.Sprintf("%d bubbles", len(f.Bubbles))),
		StyleDim.Render(fmt.Sprintf("scale %.3f", f.Scale)),
		StyleDim.Render(fmt.Sprintf("%d passes", stats.Passes)),
	}
	if stats.Converged {
		parts = append(parts, styleConverged.Render("converged"))
	} else {
		parts = append(parts, styleBestEffort.Render("best effort"))
	}
	return "  " + strings.Join(parts, sep)
}

func printFrameStats(f canvas.Frame, stats canvas.Stats) {
	fmt.Fprintln(uiOut, frameStats(f, stats))
}
