package contracts

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trade is one executed order leg. Immutable log entry.
type Trade struct {
	Ticker     string          `json:"ticker"`
	Action     Action          `json:"action"` // BUY or SELL only
	Date       time.Time       `json:"date"`
	Price      decimal.Decimal `json:"price"`
	Quantity   int64           `json:"quantity"` // shares, always > 0
	Commission decimal.Decimal `json:"commission"`
}

// Notional returns price × quantity.
func (t Trade) Notional() decimal.Decimal {
	return t.Price.Mul(decimal.NewFromInt(t.Quantity))
}

// OpenLot is one unmatched buy fragment waiting in an instrument's FIFO
// queue. Owned exclusively by the trade matcher.
type OpenLot struct {
	Ticker          string          `json:"ticker"`
	Quantity        int64           `json:"quantity"`
	EntryPrice      decimal.Decimal `json:"entry_price"`
	EntryCommission decimal.Decimal `json:"entry_commission"`
	EntryDate       time.Time       `json:"entry_date"`
}

// RealizedFragment is the portion of a SELL matched against one specific
// open lot. PnL is net of the commission allocated from both legs.
type RealizedFragment struct {
	Ticker              string          `json:"ticker"`
	Quantity            int64           `json:"quantity"`
	EntryPrice          decimal.Decimal `json:"entry_price"`
	ExitPrice           decimal.Decimal `json:"exit_price"`
	EntryDate           time.Time       `json:"entry_date"`
	ExitDate            time.Time       `json:"exit_date"`
	CommissionAllocated decimal.Decimal `json:"commission_allocated"`
	PnL                 decimal.Decimal `json:"pnl"`
}

// IsWin reports whether the fragment closed profitably net of costs.
func (f RealizedFragment) IsWin() bool {
	return f.PnL.IsPositive()
}
