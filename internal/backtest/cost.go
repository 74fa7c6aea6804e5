package backtest

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/fengyx/quantback/internal/contracts"
)

// ErrInvalidCostConfig is returned when a configured rate is negative.
var ErrInvalidCostConfig = errors.New("invalid cost config")

// CostConfig holds per-leg transaction cost rates for A-share trading.
// Stamp duty applies to the sell side only.
type CostConfig struct {
	CommissionRate  decimal.Decimal
	TransferFeeRate decimal.Decimal
	StampDutyRate   decimal.Decimal
	MinCommission   decimal.Decimal
}

// Validate rejects negative rates.
func (c CostConfig) Validate() error {
	checks := []struct {
		name string
		rate decimal.Decimal
	}{
		{"commission_rate", c.CommissionRate},
		{"transfer_fee_rate", c.TransferFeeRate},
		{"stamp_duty_rate", c.StampDutyRate},
		{"min_commission", c.MinCommission},
	}
	for _, chk := range checks {
		if chk.rate.IsNegative() {
			return fmt.Errorf("%w: %s must not be negative, got %s", ErrInvalidCostConfig, chk.name, chk.rate)
		}
	}
	return nil
}

// Cost returns the total transaction cost for one trade leg:
// price × quantity × (commission + transfer fee + stamp duty on SELL),
// floored at the configured minimum. Never negative.
func (c CostConfig) Cost(action contracts.Action, price decimal.Decimal, quantity int64) decimal.Decimal {
	rate := c.CommissionRate.Add(c.TransferFeeRate)
	if action == contracts.ActionSell {
		rate = rate.Add(c.StampDutyRate)
	}

	amount := price.Mul(decimal.NewFromInt(quantity)).Mul(rate)
	if amount.LessThan(c.MinCommission) {
		return c.MinCommission
	}
	return amount
}
