package contracts

import (
	"time"

	"github.com/shopspring/decimal"
)

// EquityPoint is one mark-to-market observation of total portfolio value.
type EquityPoint struct {
	Date   time.Time       `json:"date"`
	Equity decimal.Decimal `json:"equity"`
}

// BacktestResult is the full output of one backtest run. It accumulates
// inside the engine during the run and is immutable once returned.
type BacktestResult struct {
	ModelID        string             `json:"model_id"`
	ConfigHash     string             `json:"config_hash"`
	InitialCapital decimal.Decimal    `json:"initial_capital"`
	FinalCapital   decimal.Decimal    `json:"final_capital"`
	EquityCurve    []EquityPoint      `json:"equity_curve"` // dates strictly increasing
	Trades         []Trade            `json:"trades"`
	Fragments      []RealizedFragment `json:"fragments"`
}

// TotalReturn returns (final − initial) / initial as a float ratio.
func (r *BacktestResult) TotalReturn() float64 {
	if r.InitialCapital.IsZero() {
		return 0
	}
	ret, _ := r.FinalCapital.Sub(r.InitialCapital).Div(r.InitialCapital).Float64()
	return ret
}

// TradeCount returns the number of executed trade legs
func (r *BacktestResult) TradeCount() int {
	return len(r.Trades)
}
