package strategyconfig

import (
	"github.com/shopspring/decimal"

	"github.com/fengyx/quantback/internal/backtest"
	"github.com/fengyx/quantback/internal/selection"
	"github.com/fengyx/quantback/internal/signals"
)

// Config is the full YAML strategy definition for one backtest run.
// Immutable after Load; every knob the engine and generator read comes
// from here.
type Config struct {
	Meta      Meta      `yaml:"meta" json:"meta"`
	Signals   Signals   `yaml:"signals" json:"signals"`
	Selection Selection `yaml:"selection" json:"selection"`
	Costs     Costs     `yaml:"costs" json:"costs"`
	Portfolio Portfolio `yaml:"portfolio" json:"portfolio"`
	Audit     Audit     `yaml:"audit" json:"audit"`
}

// Meta identifies the strategy
type Meta struct {
	StrategyID string `yaml:"strategy_id" json:"strategy_id"`
	Version    string `yaml:"version" json:"version"`
}

// Signals holds the buy/sell score thresholds. The two are independent
// and may be asymmetric.
type Signals struct {
	BuyThreshold  float64 `yaml:"buy_threshold" json:"buy_threshold"`
	SellThreshold float64 `yaml:"sell_threshold" json:"sell_threshold"`
}

// Selection picks the buy-side cross-sectional policy.
type Selection struct {
	Policy     string  `yaml:"policy" json:"policy"` // top_k | threshold | percentile | none
	TopK       int     `yaml:"top_k" json:"top_k"`
	MinScore   float64 `yaml:"min_score" json:"min_score"`
	Percentile float64 `yaml:"percentile" json:"percentile"`
}

// Costs holds per-leg transaction cost rates.
type Costs struct {
	CommissionRate  decimal.Decimal `yaml:"commission_rate" json:"commission_rate"`
	TransferFeeRate decimal.Decimal `yaml:"transfer_fee_rate" json:"transfer_fee_rate"`
	StampDutyRate   decimal.Decimal `yaml:"stamp_duty_rate" json:"stamp_duty_rate"`
	MinCommission   decimal.Decimal `yaml:"min_commission" json:"min_commission"`
}

// Portfolio holds capital and sizing parameters.
type Portfolio struct {
	InitialCapital   decimal.Decimal `yaml:"initial_capital" json:"initial_capital"`
	PositionFraction decimal.Decimal `yaml:"position_fraction" json:"position_fraction"`
	BoardLot         int64           `yaml:"board_lot" json:"board_lot"`
}

// Audit holds analysis parameters.
type Audit struct {
	RiskFreeRate float64 `yaml:"risk_free_rate" json:"risk_free_rate"`
}

// BuyPolicy builds the selection policy the generator filters buys with.
// Returns nil (no filtering) for the "none" policy or a disabled top_k.
func (c *Config) BuyPolicy() selection.Policy {
	switch c.Selection.Policy {
	case "threshold":
		return selection.Threshold{Min: c.Selection.MinScore}
	case "percentile":
		return selection.Percentile{P: c.Selection.Percentile}
	case "top_k":
		if c.Selection.TopK <= 0 {
			return nil
		}
		return selection.TopK{K: c.Selection.TopK}
	default:
		return nil
	}
}

// GeneratorConfig maps the strategy file onto the signal generator.
func (c *Config) GeneratorConfig() signals.Config {
	return signals.Config{
		BuyThreshold:  c.Signals.BuyThreshold,
		SellThreshold: c.Signals.SellThreshold,
		BuyFilter:     c.BuyPolicy(),
	}
}

// EngineConfig maps the strategy file onto the backtest engine. An unset
// position fraction under a top_k policy defaults to 1/k, so the day's
// selection can be bought in full.
func (c *Config) EngineConfig() backtest.Config {
	fraction := c.Portfolio.PositionFraction
	if fraction.IsZero() && c.Selection.Policy == "top_k" && c.Selection.TopK > 0 {
		fraction = decimal.NewFromInt(1).Div(decimal.NewFromInt(int64(c.Selection.TopK)))
	}
	return backtest.Config{
		InitialCapital: c.Portfolio.InitialCapital,
		Costs: backtest.CostConfig{
			CommissionRate:  c.Costs.CommissionRate,
			TransferFeeRate: c.Costs.TransferFeeRate,
			StampDutyRate:   c.Costs.StampDutyRate,
			MinCommission:   c.Costs.MinCommission,
		},
		PositionFraction: fraction,
		BoardLot:         c.Portfolio.BoardLot,
	}
}
