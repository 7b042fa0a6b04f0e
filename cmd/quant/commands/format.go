package commands

import (
	"fmt"
	"io"
	"strconv"

	"github.com/wonny/termpremium/internal/contracts"
	"github.com/wonny/termpremium/internal/strategyconfig"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

// PrintHeader prints a formatted command header
func PrintHeader(w io.Writer, title string) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
	fmt.Fprintf(w, "  %s\n", title)
	fmt.Fprintln(w, "───────────────────────────────────────────────────────────")
}

// PrintParams prints the effective backtest parameters
func PrintParams(w io.Writer, p contracts.Params) {
	PrintKeyValue(w, "Period", fmt.Sprintf("%d ~ %d", p.InitYear, p.EndYear), 10)
	PrintKeyValue(w, "Top N", strconv.Itoa(p.TopN), 10)
	PrintKeyValue(w, "Reference", p.ReferenceCountry, 10)
	PrintKeyValue(w, "Benchmark", string(p.BenchmarkPolicy()), 10)
}

// PrintWarnings prints strategy config warnings
func PrintWarnings(w io.Writer, warnings []strategyconfig.Warning) {
	for _, warn := range warnings {
		fmt.Fprintf(w, "⚠️  [%s] %s\n", warn.Code, warn.Message)
	}
}

// PrintSeparator prints a visual separator
func PrintSeparator(w io.Writer) {
	fmt.Fprintln(w, "───────────────────────────────────────────────────────────")
}

// PrintSuccess prints a success message
func PrintSuccess(w io.Writer, message string) {
	fmt.Fprintf(w, "✅ %s\n", message)
}

// PrintTableHeader prints a table header
func PrintTableHeader(w io.Writer, columns []string, widths []int) {
	PrintTableRow(w, columns, widths)

	// Separator line
	totalWidth := 0
	for i, width := range widths {
		totalWidth += width
		if i < len(widths)-1 {
			totalWidth += 2 // spacing
		}
	}
	for i := 0; i < totalWidth; i++ {
		fmt.Fprint(w, "─")
	}
	fmt.Fprintln(w)
}

// PrintTableRow prints a table row
func PrintTableRow(w io.Writer, values []string, widths []int) {
	for i, val := range values {
		fmt.Fprintf(w, "%-*s", widths[i], val)
		if i < len(values)-1 {
			fmt.Fprint(w, "  ")
		}
	}
	fmt.Fprintln(w)
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(w io.Writer, key string, value string, keyWidth int) {
	fmt.Fprintf(w, "   %-*s : %s\n", keyWidth, key, value)
}
