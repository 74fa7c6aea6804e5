package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fengyx/quantback/internal/contracts"
	"github.com/fengyx/quantback/internal/signals"
	"github.com/fengyx/quantback/internal/strategyconfig"
)

// signalsCmd represents the signals command
var signalsCmd = &cobra.Command{
	Use:   "signals",
	Short: "Generate trading signals from model scores",
	Long: `Generates BUY/SELL/HOLD signals from stored model scores without
running a backtest. Useful for inspecting what a strategy would trade.

Example:
  go run ./cmd/quantback signals generate --strategy strategies/topk.yaml --model m1 --from 2024-01-01 --to 2024-01-31`,
}

var (
	signalsGenerateCmd = &cobra.Command{
		Use:   "generate",
		Short: "Generate and print signals",
		RunE:  runGenerateSignals,
	}

	// Flags
	signalsModel    string
	signalsFrom     string
	signalsTo       string
	signalsShowHold bool
)

func init() {
	rootCmd.AddCommand(signalsCmd)
	signalsCmd.AddCommand(signalsGenerateCmd)

	// Flags
	signalsGenerateCmd.Flags().StringVar(&signalsModel, "model", "", "model id (required)")
	signalsGenerateCmd.Flags().StringVar(&signalsFrom, "from", "", "start date (YYYY-MM-DD, required)")
	signalsGenerateCmd.Flags().StringVar(&signalsTo, "to", "", "end date (YYYY-MM-DD, default: today)")
	signalsGenerateCmd.Flags().BoolVar(&signalsShowHold, "show-hold", false, "include HOLD signals in the listing")

	signalsGenerateCmd.MarkFlagRequired("model")
	signalsGenerateCmd.MarkFlagRequired("from")
}

func runGenerateSignals(cmd *cobra.Command, args []string) error {
	if strategyFile == "" {
		return fmt.Errorf("--strategy is required")
	}

	startDate, endDate, err := parseRange(signalsFrom, signalsTo)
	if err != nil {
		return err
	}

	strat, _, err := strategyconfig.Load(strategyFile)
	if err != nil {
		return fmt.Errorf("load strategy %s: %w", strategyFile, err)
	}

	p, err := newPipeline()
	if err != nil {
		return err
	}
	defer p.close()

	input, err := p.loadInput(cmd.Context(), signalsModel, startDate, endDate)
	if err != nil {
		return err
	}

	generator := signals.NewGenerator(strat.GeneratorConfig(), p.log)
	batch, err := generator.Generate(input.batch, input.prices)
	if err != nil {
		return fmt.Errorf("generate signals: %w", err)
	}
	batch.ModelID = signalsModel

	printSignalBatch(batch)
	return nil
}

func printSignalBatch(batch *contracts.SignalBatch) {
	counts := batch.CountByAction()

	PrintDoubleSeparator()
	fmt.Printf("  Signals for %s: %d BUY / %d SELL / %d HOLD\n",
		batch.ModelID,
		counts[contracts.ActionBuy],
		counts[contracts.ActionSell],
		counts[contracts.ActionHold])
	PrintSeparator()

	widths := []int{12, 10, 6, 8, 10, 10}
	PrintTableHeader([]string{"Date", "Ticker", "Side", "Strength", "Score", "RefPrice"}, widths)
	for _, sig := range batch.Signals {
		if sig.Action == contracts.ActionHold && !signalsShowHold {
			continue
		}
		refPrice := "-"
		if !sig.RefPrice.IsZero() {
			refPrice = sig.RefPrice.StringFixed(2)
		}
		PrintTableRow([]string{
			sig.Date.Format("2006-01-02"),
			sig.Ticker,
			string(sig.Action),
			string(sig.Strength),
			fmt.Sprintf("%+.4f", sig.Score),
			refPrice,
		}, widths)
	}
	PrintSeparator()
}
