package contracts

import (
	"time"

	"github.com/shopspring/decimal"
)

// Action represents the trade direction of a signal
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

// Strength classifies how far a score sits beyond its threshold
type Strength string

const (
	StrengthWeak   Strength = "WEAK"
	StrengthMedium Strength = "MEDIUM"
	StrengthStrong Strength = "STRONG"
)

// TradingSignal is one actionable decision derived from a prediction.
// Immutable once created.
type TradingSignal struct {
	Ticker    string          `json:"ticker"`
	Date      time.Time       `json:"date"` // trading day
	Action    Action          `json:"action"`
	Strength  Strength        `json:"strength"`
	RefPrice  decimal.Decimal `json:"ref_price"` // zero when no close was available
	Rationale string          `json:"rationale"`
	Score     float64         `json:"score"`
}

// SignalBatch is the append-only ordered signal output of one strategy run.
type SignalBatch struct {
	ModelID string          `json:"model_id"`
	Signals []TradingSignal `json:"signals"`
}

// Append adds a signal to the batch
func (b *SignalBatch) Append(sig TradingSignal) {
	b.Signals = append(b.Signals, sig)
}

// Len returns the number of signals in the batch
func (b *SignalBatch) Len() int {
	return len(b.Signals)
}

// CountByAction tallies signals per action type.
func (b *SignalBatch) CountByAction() map[Action]int {
	counts := make(map[Action]int, 3)
	for _, sig := range b.Signals {
		counts[sig.Action]++
	}
	return counts
}
