package backtest

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fengyx/quantback/internal/contracts"
)

// Ledger tracks cash and produces the equity curve for one run. Trades
// are recorded in execution order; equity points stay strictly
// date-increasing, with a re-mark of the latest day overwriting in place.
type Ledger struct {
	cash   decimal.Decimal
	curve  []contracts.EquityPoint
	trades []contracts.Trade
}

// NewLedger creates a ledger holding the initial capital in cash.
func NewLedger(initialCapital decimal.Decimal) *Ledger {
	return &Ledger{cash: initialCapital}
}

// ApplyTrade debits or credits cash for one trade leg including its cost.
// A BUY that exceeds available cash fails without mutating state.
func (l *Ledger) ApplyTrade(trade contracts.Trade) error {
	if trade.Quantity <= 0 {
		return fmt.Errorf("trade quantity must be positive, got %d", trade.Quantity)
	}

	notional := trade.Notional()
	switch trade.Action {
	case contracts.ActionBuy:
		total := notional.Add(trade.Commission)
		if total.GreaterThan(l.cash) {
			return fmt.Errorf("insufficient cash for %s on %s: need %s, have %s",
				trade.Ticker, trade.Date.Format("2006-01-02"), total, l.cash)
		}
		l.cash = l.cash.Sub(total)
	case contracts.ActionSell:
		l.cash = l.cash.Add(notional).Sub(trade.Commission)
	default:
		return fmt.Errorf("cannot apply %s trade", trade.Action)
	}

	l.trades = append(l.trades, trade)
	return nil
}

// Mark appends the equity point for one trading day:
// cash + Σ(open quantity × close). Re-marking the same day overwrites the
// existing point; a day earlier than the last point is an ordering bug.
func (l *Ledger) Mark(date time.Time, holdings map[string]int64, closes map[string]decimal.Decimal) error {
	equity := l.cash
	for ticker, qty := range holdings {
		close, ok := closes[ticker]
		if !ok {
			return fmt.Errorf("no close price for held instrument %s on %s", ticker, date.Format("2006-01-02"))
		}
		equity = equity.Add(close.Mul(decimal.NewFromInt(qty)))
	}

	point := contracts.EquityPoint{Date: date, Equity: equity}

	if n := len(l.curve); n > 0 {
		last := l.curve[n-1].Date
		if date.Equal(last) {
			l.curve[n-1] = point
			return nil
		}
		if date.Before(last) {
			return fmt.Errorf("equity point out of order: %s after %s",
				date.Format("2006-01-02"), last.Format("2006-01-02"))
		}
	}

	l.curve = append(l.curve, point)
	return nil
}

// Cash returns the current cash balance
func (l *Ledger) Cash() decimal.Decimal {
	return l.cash
}

// Curve returns a copy of the equity curve in date order.
func (l *Ledger) Curve() []contracts.EquityPoint {
	out := make([]contracts.EquityPoint, len(l.curve))
	copy(out, l.curve)
	return out
}

// Trades returns a copy of the trade log in execution order.
func (l *Ledger) Trades() []contracts.Trade {
	out := make([]contracts.Trade, len(l.trades))
	copy(out, l.trades)
	return out
}
