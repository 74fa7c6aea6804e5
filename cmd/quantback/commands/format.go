package commands

import (
	"fmt"
	"time"
)

// printRunHeader prints the shared header for a single strategy run.
func printRunHeader(o *runOutcome, from, to time.Time) {
	PrintDoubleSeparator()
	fmt.Printf("  %s v%s\n", o.strategy.Meta.StrategyID, o.strategy.Meta.Version)
	PrintSeparator()
	PrintKeyValue("Model", o.result.ModelID, 16)
	PrintKeyValue("Period", fmt.Sprintf("%s ~ %s", from.Format("2006-01-02"), to.Format("2006-01-02")), 16)
	PrintKeyValue("Config Hash", o.hash[:12], 16)
	PrintSeparator()
}

// PrintSeparator prints a visual separator
func PrintSeparator() {
	fmt.Println("───────────────────────────────────────────────────────────")
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator() {
	fmt.Println("═══════════════════════════════════════════════════════════")
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(key string, value string, keyWidth int) {
	fmt.Printf("   %-*s : %s\n", keyWidth, key, value)
}

// PrintTableHeader prints a table header
func PrintTableHeader(columns []string, widths []int) {
	for i, col := range columns {
		fmt.Printf("%-*s", widths[i], col)
		if i < len(columns)-1 {
			fmt.Print("  ")
		}
	}
	fmt.Println()

	totalWidth := 0
	for i, width := range widths {
		totalWidth += width
		if i < len(widths)-1 {
			totalWidth += 2
		}
	}
	for i := 0; i < totalWidth; i++ {
		fmt.Print("─")
	}
	fmt.Println()
}

// PrintTableRow prints a table row
func PrintTableRow(values []string, widths []int) {
	for i, val := range values {
		fmt.Printf("%-*s", widths[i], val)
		if i < len(values)-1 {
			fmt.Print("  ")
		}
	}
	fmt.Println()
}
