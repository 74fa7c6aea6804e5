package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// modelsCmd lists the model ids available to backtest against.
var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List models with stored predictions",
	Long: `Lists every model id that has scores stored, so --model flags can be
filled in without querying the database by hand.

Example:
  go run ./cmd/quantback models`,
	RunE: runModels,
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}

func runModels(cmd *cobra.Command, args []string) error {
	p, err := newPipeline()
	if err != nil {
		return err
	}
	defer p.close()

	models, err := p.predictions.Models(cmd.Context())
	if err != nil {
		return fmt.Errorf("list models: %w", err)
	}

	if len(models) == 0 {
		fmt.Println("No models with stored predictions.")
		return nil
	}

	fmt.Printf("%d models with stored predictions:\n", len(models))
	for _, id := range models {
		fmt.Printf("   • %s\n", id)
	}
	return nil
}
