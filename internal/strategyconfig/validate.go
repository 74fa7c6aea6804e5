package strategyconfig

import (
	"fmt"
)

// ValidationError names the offending field so the CLI can render it.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks all required constraints, failing on the first
// violation.
func Validate(cfg *Config) error {
	if cfg.Meta.StrategyID == "" {
		return ValidationError{"meta.strategy_id", "required"}
	}

	switch cfg.Selection.Policy {
	case "", "none", "top_k", "threshold", "percentile":
	default:
		return ValidationError{"selection.policy", fmt.Sprintf("unknown policy %q", cfg.Selection.Policy)}
	}
	if cfg.Selection.TopK < 0 {
		return ValidationError{"selection.top_k", "must not be negative"}
	}
	if cfg.Selection.Policy == "percentile" && (cfg.Selection.Percentile <= 0 || cfg.Selection.Percentile > 1) {
		return ValidationError{"selection.percentile", "must be in (0, 1]"}
	}

	// Cost rates are validated by the engine config they feed; surface
	// those errors under the YAML section name.
	engineCfg := cfg.EngineConfig()
	if err := engineCfg.Costs.Validate(); err != nil {
		return fmt.Errorf("costs: %w", err)
	}
	if !cfg.Portfolio.InitialCapital.IsPositive() {
		return ValidationError{"portfolio.initial_capital", "must be positive"}
	}
	if cfg.Portfolio.PositionFraction.IsNegative() {
		return ValidationError{"portfolio.position_fraction", "must not be negative"}
	}
	if cfg.Portfolio.PositionFraction.IsZero() && !(cfg.Selection.Policy == "top_k" && cfg.Selection.TopK > 0) {
		return ValidationError{"portfolio.position_fraction", "required unless a top_k policy supplies the 1/k default"}
	}
	if cfg.Portfolio.BoardLot <= 0 {
		return ValidationError{"portfolio.board_lot", "must be positive"}
	}

	return nil
}
