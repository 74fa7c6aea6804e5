package backtest

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fengyx/quantback/internal/contracts"
)

// ErrInsufficientPosition is returned when a SELL asks for more quantity
// than the instrument's open lots hold. No shorting in this engine.
var ErrInsufficientPosition = errors.New("insufficient position")

// Matcher keeps one FIFO queue of open lots per instrument and realizes
// P&L by consuming lots oldest-first on every sell. Single-threaded by
// design: lot ordering is part of the result.
type Matcher struct {
	lots map[string][]contracts.OpenLot
}

// NewMatcher creates an empty matcher
func NewMatcher() *Matcher {
	return &Matcher{lots: make(map[string][]contracts.OpenLot)}
}

// Buy pushes a new open lot to the back of the instrument's queue.
func (m *Matcher) Buy(ticker string, date time.Time, quantity int64, price, commission decimal.Decimal) {
	m.lots[ticker] = append(m.lots[ticker], contracts.OpenLot{
		Ticker:          ticker,
		Quantity:        quantity,
		EntryPrice:      price,
		EntryCommission: commission,
		EntryDate:       date,
	})
}

// Sell consumes open lots oldest-first until the sold quantity is
// satisfied, returning one realized fragment per consumed lot portion.
// Each fragment's P&L is net of its pro-rata share of both the entry and
// the exit commission. Fails atomically with ErrInsufficientPosition when
// the instrument holds less than the sold quantity.
func (m *Matcher) Sell(ticker string, date time.Time, quantity int64, price, commission decimal.Decimal) ([]contracts.RealizedFragment, error) {
	if total := m.OpenQuantity(ticker); total < quantity {
		return nil, fmt.Errorf("%w: %s on %s: selling %d, holding %d",
			ErrInsufficientPosition, ticker, date.Format("2006-01-02"), quantity, total)
	}

	queue := m.lots[ticker]
	soldQty := decimal.NewFromInt(quantity)
	remaining := quantity
	fragments := make([]contracts.RealizedFragment, 0, 1)

	for remaining > 0 {
		lot := &queue[0]

		take := lot.Quantity
		if take > remaining {
			take = remaining
		}
		takeDec := decimal.NewFromInt(take)
		lotQty := decimal.NewFromInt(lot.Quantity)

		// Pro-rata commission from both legs for this portion.
		entryAlloc := lot.EntryCommission.Mul(takeDec).Div(lotQty)
		exitAlloc := commission.Mul(takeDec).Div(soldQty)
		alloc := entryAlloc.Add(exitAlloc)

		pnl := price.Sub(lot.EntryPrice).Mul(takeDec).Sub(alloc)

		fragments = append(fragments, contracts.RealizedFragment{
			Ticker:              ticker,
			Quantity:            take,
			EntryPrice:          lot.EntryPrice,
			ExitPrice:           price,
			EntryDate:           lot.EntryDate,
			ExitDate:            date,
			CommissionAllocated: alloc,
			PnL:                 pnl,
		})

		remaining -= take
		if take == lot.Quantity {
			queue = queue[1:]
		} else {
			// Partial consumption: shrink the lot and its unamortized
			// entry commission proportionally.
			lot.EntryCommission = lot.EntryCommission.Sub(entryAlloc)
			lot.Quantity -= take
		}
	}

	if len(queue) == 0 {
		delete(m.lots, ticker)
	} else {
		m.lots[ticker] = queue
	}

	return fragments, nil
}

// OpenQuantity returns the total unmatched quantity for an instrument.
func (m *Matcher) OpenQuantity(ticker string) int64 {
	var total int64
	for _, lot := range m.lots[ticker] {
		total += lot.Quantity
	}
	return total
}

// Holdings returns open quantity per instrument, for mark-to-market.
func (m *Matcher) Holdings() map[string]int64 {
	holdings := make(map[string]int64, len(m.lots))
	for ticker := range m.lots {
		holdings[ticker] = m.OpenQuantity(ticker)
	}
	return holdings
}

// OpenLots returns a copy of an instrument's queue in FIFO order.
func (m *Matcher) OpenLots(ticker string) []contracts.OpenLot {
	queue := m.lots[ticker]
	out := make([]contracts.OpenLot, len(queue))
	copy(out, queue)
	return out
}
