package contracts

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailyPrice is one close observation for mark-to-market.
type DailyPrice struct {
	Ticker string          `json:"ticker"`
	Date   time.Time       `json:"date"` // trading day
	Close  decimal.Decimal `json:"close"`
}

// PriceBook holds daily closes keyed by (trading day, canonical ticker).
// Fully materialized before a run starts; read-only afterwards.
type PriceBook struct {
	closes map[string]decimal.Decimal
}

// NewPriceBook creates an empty price book
func NewPriceBook() *PriceBook {
	return &PriceBook{closes: make(map[string]decimal.Decimal)}
}

func priceKey(day time.Time, ticker string) string {
	return day.Format("2006-01-02") + "|" + ticker
}

// Add records a close price. Later writes for the same key overwrite.
func (p *PriceBook) Add(ticker string, day time.Time, close decimal.Decimal) {
	p.closes[priceKey(day, ticker)] = close
}

// Close looks up one close price.
func (p *PriceBook) Close(ticker string, day time.Time) (decimal.Decimal, bool) {
	close, ok := p.closes[priceKey(day, ticker)]
	return close, ok
}

// Len returns the number of stored price points
func (p *PriceBook) Len() int {
	return len(p.closes)
}
