package contracts

import (
	"fmt"
	"time"
)

// Prediction is one model score for one instrument on one trading day.
// Produced by the external scoring pipeline; never mutated after creation.
// Confidence is carried through for reporting but no decision branches on
// it.
type Prediction struct {
	Ticker     string    `json:"ticker"` // canonical, e.g. "sh600519"
	Date       time.Time `json:"date"`   // trading day
	Score      float64   `json:"score"`
	Confidence float64   `json:"confidence"` // [0, 1]
	ModelID    string    `json:"model_id"`
}

// Key returns the (ticker, trading day) identity of the prediction.
func (p Prediction) Key() string {
	return p.Date.Format("2006-01-02") + "|" + p.Ticker
}

// PredictionBatch is a collection of predictions unique on (ticker, day).
type PredictionBatch struct {
	preds []Prediction
	index map[string]struct{}
}

// NewPredictionBatch creates an empty batch
func NewPredictionBatch() *PredictionBatch {
	return &PredictionBatch{index: make(map[string]struct{})}
}

// Add appends a prediction, rejecting duplicate (ticker, day) keys.
func (b *PredictionBatch) Add(p Prediction) error {
	key := p.Key()
	if _, exists := b.index[key]; exists {
		return fmt.Errorf("duplicate prediction for %s on %s", p.Ticker, p.Date.Format("2006-01-02"))
	}
	b.index[key] = struct{}{}
	b.preds = append(b.preds, p)
	return nil
}

// All returns the predictions in insertion order.
func (b *PredictionBatch) All() []Prediction {
	out := make([]Prediction, len(b.preds))
	copy(out, b.preds)
	return out
}

// Len returns the number of predictions in the batch
func (b *PredictionBatch) Len() int {
	return len(b.preds)
}
