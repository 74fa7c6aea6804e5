package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fengyx/quantback/internal/contracts"
)

// backtestCmd represents the backtest command
var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Replay model scores against a simulated portfolio",
	Long: `Replays a model's scores as trading signals against a simulated
portfolio with A-share transaction costs.

The run reports:
- Total and annualized return
- Risk metrics (Sharpe, volatility, max drawdown)
- Win rate and profit factor over realized trade fragments

Example:
  go run ./cmd/quantback backtest run --strategy strategies/topk.yaml --model m1 --from 2024-01-01 --to 2024-06-30`,
}

var (
	backtestRunCmd = &cobra.Command{
		Use:   "run",
		Short: "Run one backtest",
		Long: `Runs one strategy over the given period.

Flags:
  --strategy  strategy YAML file (required)
  --model     model id whose scores to replay (required)
  --from      start date (YYYY-MM-DD, required)
  --to        end date (YYYY-MM-DD, default: today)

Example:
  go run ./cmd/quantback backtest run --strategy strategies/topk.yaml --model m1 --from 2024-01-01 --to 2024-06-30`,
		RunE: runBacktest,
	}

	// Flags
	backtestModel string
	backtestFrom  string
	backtestTo    string
)

func init() {
	rootCmd.AddCommand(backtestCmd)
	backtestCmd.AddCommand(backtestRunCmd)

	// Flags
	backtestRunCmd.Flags().StringVar(&backtestModel, "model", "", "model id (required)")
	backtestRunCmd.Flags().StringVar(&backtestFrom, "from", "", "start date (YYYY-MM-DD, required)")
	backtestRunCmd.Flags().StringVar(&backtestTo, "to", "", "end date (YYYY-MM-DD, default: today)")

	backtestRunCmd.MarkFlagRequired("model")
	backtestRunCmd.MarkFlagRequired("from")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	if strategyFile == "" {
		return fmt.Errorf("--strategy is required")
	}

	startDate, endDate, err := parseRange(backtestFrom, backtestTo)
	if err != nil {
		return err
	}

	p, err := newPipeline()
	if err != nil {
		return err
	}
	defer p.close()

	input, err := p.loadInput(cmd.Context(), backtestModel, startDate, endDate)
	if err != nil {
		return err
	}

	outcome, err := p.runStrategy(strategyFile, backtestModel, input)
	if err != nil {
		return err
	}

	printRunHeader(outcome, startDate, endDate)
	printBacktestOutcome(outcome)

	return nil
}

func printBacktestOutcome(o *runOutcome) {
	counts := o.signals.CountByAction()
	report := o.report
	result := o.result

	fmt.Println("Signals")
	PrintKeyValue("BUY", fmt.Sprintf("%d", counts[contracts.ActionBuy]), 16)
	PrintKeyValue("SELL", fmt.Sprintf("%d", counts[contracts.ActionSell]), 16)
	PrintKeyValue("HOLD", fmt.Sprintf("%d", counts[contracts.ActionHold]), 16)
	fmt.Println()

	fmt.Println("Performance")
	PrintKeyValue("Initial Capital", result.InitialCapital.StringFixed(2), 16)
	PrintKeyValue("Final Capital", result.FinalCapital.StringFixed(2), 16)
	PrintKeyValue("P&L", fmt.Sprintf("%s (%+.2f%%)",
		result.FinalCapital.Sub(result.InitialCapital).StringFixed(2),
		result.TotalReturn()*100), 16)
	PrintKeyValue("Annual Return", fmt.Sprintf("%+.2f%%", report.AnnualizedReturn*100), 16)
	PrintKeyValue("Volatility", fmt.Sprintf("%.2f%%", report.Volatility*100), 16)
	fmt.Println()

	fmt.Println("Risk")
	PrintKeyValue("Sharpe Ratio", fmt.Sprintf("%.2f", report.Sharpe), 16)
	PrintKeyValue("Max Drawdown", fmt.Sprintf("%.2f%%", report.MaxDrawdown*100), 16)
	if report.MaxDrawdown > 0 {
		PrintKeyValue("Drawdown Window", fmt.Sprintf("%s ~ %s (%d days)",
			report.DrawdownPeak.Format("2006-01-02"),
			report.DrawdownTrough.Format("2006-01-02"),
			report.DrawdownDays), 16)
	}
	fmt.Println()

	fmt.Println("Trading")
	PrintKeyValue("Trade Legs", fmt.Sprintf("%d", result.TradeCount()), 16)
	PrintKeyValue("Fragments", fmt.Sprintf("%d (%d win / %d loss)",
		report.Fragments, report.Wins, report.Losses), 16)
	PrintKeyValue("Win Rate", fmt.Sprintf("%.1f%%", report.WinRate*100), 16)
	PrintKeyValue("Profit Factor", fmt.Sprintf("%.2f", report.ProfitFactor), 16)
	fmt.Println()

	// Equity curve tail
	fmt.Println("Equity Curve (last 10 days)")
	curve := result.EquityCurve
	startIdx := len(curve) - 10
	if startIdx < 0 {
		startIdx = 0
	}
	for _, point := range curve[startIdx:] {
		fmt.Printf("   %s : %s\n", point.Date.Format("2006-01-02"), point.Equity.StringFixed(2))
	}
	PrintSeparator()
}
