package commands

import (
	"fmt"
	"sort"
	"sync"

	"github.com/spf13/cobra"
)

// sweepCmd runs several strategy files over the same period and compares
// them. Runs are independent so they execute concurrently.
var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run several strategies over the same period and compare",
	Long: `Loads the input once, then runs every given strategy file against it
concurrently. Results are printed as a comparison table sorted by Sharpe.

Example:
  go run ./cmd/quantback sweep --strategy a.yaml --strategy b.yaml --model m1 --from 2024-01-01 --to 2024-06-30`,
	RunE: runSweep,
}

var (
	// Flags
	sweepStrategies []string
	sweepModel      string
	sweepFrom       string
	sweepTo         string
)

func init() {
	rootCmd.AddCommand(sweepCmd)

	// Flags
	sweepCmd.Flags().StringArrayVar(&sweepStrategies, "strategy", nil, "strategy YAML file (repeatable, required)")
	sweepCmd.Flags().StringVar(&sweepModel, "model", "", "model id (required)")
	sweepCmd.Flags().StringVar(&sweepFrom, "from", "", "start date (YYYY-MM-DD, required)")
	sweepCmd.Flags().StringVar(&sweepTo, "to", "", "end date (YYYY-MM-DD, default: today)")

	sweepCmd.MarkFlagRequired("strategy")
	sweepCmd.MarkFlagRequired("model")
	sweepCmd.MarkFlagRequired("from")
}

type sweepRow struct {
	path    string
	outcome *runOutcome
	err     error
}

func runSweep(cmd *cobra.Command, args []string) error {
	if len(sweepStrategies) == 0 {
		return fmt.Errorf("at least one --strategy is required")
	}

	startDate, endDate, err := parseRange(sweepFrom, sweepTo)
	if err != nil {
		return err
	}

	p, err := newPipeline()
	if err != nil {
		return err
	}
	defer p.close()

	input, err := p.loadInput(cmd.Context(), sweepModel, startDate, endDate)
	if err != nil {
		return err
	}

	// Each run owns all of its mutable state, so the strategies can
	// share one input and run in parallel.
	rows := make([]sweepRow, len(sweepStrategies))
	var wg sync.WaitGroup
	for i, path := range sweepStrategies {
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			outcome, err := p.runStrategy(path, sweepModel, input)
			rows[i] = sweepRow{path: path, outcome: outcome, err: err}
		}(i, path)
	}
	wg.Wait()

	var failed []sweepRow
	ok := rows[:0]
	for _, row := range rows {
		if row.err != nil {
			failed = append(failed, row)
			continue
		}
		ok = append(ok, row)
	}
	sort.SliceStable(ok, func(i, j int) bool {
		return ok[i].outcome.report.Sharpe > ok[j].outcome.report.Sharpe
	})

	printSweepTable(ok, startDate.Format("2006-01-02"), endDate.Format("2006-01-02"))

	for _, row := range failed {
		fmt.Printf("   %s failed: %v\n", row.path, row.err)
	}
	if len(failed) > 0 {
		return fmt.Errorf("%d of %d strategies failed", len(failed), len(rows))
	}
	return nil
}

func printSweepTable(rows []sweepRow, from, to string) {
	PrintDoubleSeparator()
	fmt.Printf("  Sweep: %d strategies, %s ~ %s\n", len(rows), from, to)
	PrintSeparator()

	widths := []int{20, 10, 10, 8, 8, 8, 7}
	PrintTableHeader([]string{"Strategy", "Return", "Annual", "Sharpe", "MDD", "WinRate", "Trades"}, widths)
	for _, row := range rows {
		report := row.outcome.report
		PrintTableRow([]string{
			row.outcome.strategy.Meta.StrategyID,
			fmt.Sprintf("%+.2f%%", row.outcome.result.TotalReturn()*100),
			fmt.Sprintf("%+.2f%%", report.AnnualizedReturn*100),
			fmt.Sprintf("%.2f", report.Sharpe),
			fmt.Sprintf("%.2f%%", report.MaxDrawdown*100),
			fmt.Sprintf("%.1f%%", report.WinRate*100),
			fmt.Sprintf("%d", row.outcome.result.TradeCount()),
		}, widths)
	}
	PrintSeparator()
}
