package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/templar-cli/templar/pkg/inherit"
	"github.com/templar-cli/templar/pkg/pipeline"
	"github.com/templar-cli/templar/pkg/resolver"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleHighlight for emphasized values.
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleSuccess for success messages.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)

	styleTableHeader = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	styleTableBorder = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	iconCached  = "cached"
	iconFresh   = "fresh"
)

// =============================================================================
// Status Output
// =============================================================================

// printSuccess prints a success message.
func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + msg)
}

// printError prints an error message.
func printError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconError.Render(iconError) + " " + msg)
}

// printWarning prints a warning message.
func printWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(msg))
}

// printInfo prints an info/status message.
func printInfo(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + msg)
}

// printDetail prints a detail line (indented).
func printDetail(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println("  " + StyleDim.Render(msg))
}

// printFile prints a file output line.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

// printNewline prints an empty line.
func printNewline() {
	fmt.Println()
}

// printRunStats prints one summary line for a pipeline run.
func printRunStats(res *pipeline.Result) {
	var parts []string
	if n := len(res.Versions); n > 0 {
		parts = append(parts, fmt.Sprintf("%d dependencies", n))
	}
	if res.Stats.FileCount > 0 {
		parts = append(parts, fmt.Sprintf("%d files", res.Stats.FileCount))
	}

	status := iconFresh
	statusStyle := styleComputed
	if res.CacheInfo.ResultHit {
		status = iconCached
		statusStyle = styleCached
	}
	parts = append(parts, statusStyle.Render(status))

	line := "  "
	for i, part := range parts {
		if i > 0 {
			line += StyleDim.Render(" · ")
		}
		line += StyleDim.Render(part)
	}
	fmt.Println(line)
}

// =============================================================================
// Tables
// =============================================================================

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styleTableBorder).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == -1 {
				return styleTableHeader
			}
			return StyleValue
		})
}

// renderPlanTable renders the resolved version plan in install order.
func renderPlanTable(res *pipeline.Result) string {
	t := newTable("Template", "Version", "Scope")
	for _, name := range res.Order {
		v, ok := res.Versions[name]
		if !ok {
			continue
		}
		scope := "dev"
		for _, n := range res.InstallOrder {
			if n == name {
				scope = "runtime"
				break
			}
		}
		t.Row(name, v.String(), scope)
	}
	return t.Render()
}

// renderConflictTable renders every conflict with its full constraint set
// and requesters.
func renderConflictTable(conflicts []resolver.Conflict) string {
	t := newTable("Dependency", "Reason", "Constraints", "Requested By")
	for _, c := range conflicts {
		constraints := make([]string, len(c.Constraints))
		for i, constraint := range c.Constraints {
			constraints[i] = constraint.String()
		}
		t.Row(c.Name, c.Reason, strings.Join(constraints, ", "), strings.Join(c.RequestedBy, ", "))
	}
	return t.Render()
}

// renderChain renders an inheritance chain root-first with depth markers.
func renderChain(chain *inherit.Chain) string {
	var b strings.Builder
	for i, node := range chain.Nodes() {
		indent := strings.Repeat("  ", i)
		marker := ""
		if i > 0 {
			marker = StyleDim.Render("└ extends ")
		}
		line := indent + marker + StyleValue.Render(node.Template.ID)
		if i == chain.Len()-1 {
			line += " " + StyleHighlight.Render("(leaf)")
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}
