package signals

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/fengyx/quantback/internal/contracts"
	"github.com/fengyx/quantback/internal/market"
	"github.com/fengyx/quantback/internal/selection"
	"github.com/fengyx/quantback/pkg/logger"
)

// ErrMissingScore is returned when a prediction carries no resolvable
// numeric score.
var ErrMissingScore = errors.New("prediction has no numeric score")

// Config holds the signal policy parameters. Buy and sell thresholds are
// independent and may be asymmetric.
type Config struct {
	BuyThreshold  float64
	SellThreshold float64

	// BuyFilter restricts BUY candidates per day. nil disables filtering.
	// SELL signals are never filtered: exiting a position must stay
	// possible even when the instrument fell out of the day's selection.
	BuyFilter selection.Policy
}

// Generator turns a scored prediction batch into typed trading signals.
type Generator struct {
	cfg    Config
	logger *logger.Logger
}

// NewGenerator creates a signal generator
func NewGenerator(cfg Config, logger *logger.Logger) *Generator {
	return &Generator{cfg: cfg, logger: logger}
}

// normalized is a prediction with canonical ticker and trading day applied.
type normalized struct {
	contracts.Prediction
	day string // YYYY-MM-DD key
}

// Generate derives one signal per prediction. Output is ordered by
// trading day ascending, ticker ascending. An empty batch yields an
// empty, non-error SignalBatch.
func (g *Generator) Generate(batch *contracts.PredictionBatch, prices *contracts.PriceBook) (*contracts.SignalBatch, error) {
	out := &contracts.SignalBatch{}
	preds := batch.All()
	if len(preds) == 0 {
		return out, nil
	}
	out.ModelID = preds[0].ModelID

	// Pass 1: canonicalize and group the cross-section per trading day.
	normed := make([]normalized, 0, len(preds))
	byDay := make(map[string][]selection.Candidate)
	for _, p := range preds {
		if math.IsNaN(p.Score) {
			return nil, fmt.Errorf("%w: %s on %s", ErrMissingScore, p.Ticker, market.DayKey(p.Date))
		}

		ticker, err := market.NormalizeTicker(p.Ticker)
		if err != nil {
			return nil, err
		}

		n := normalized{Prediction: p, day: market.DayKey(p.Date)}
		n.Ticker = ticker
		n.Date = market.ToTradingDay(p.Date)
		normed = append(normed, n)

		byDay[n.day] = append(byDay[n.day], selection.Candidate{Ticker: ticker, Score: p.Score})
	}

	// Pass 2: run the buy-side policy once per day, never across days.
	selected := make(map[string]map[string]struct{}, len(byDay))
	for day, candidates := range byDay {
		if g.cfg.BuyFilter == nil {
			continue
		}
		selected[day] = g.cfg.BuyFilter.Select(candidates)
	}

	// Deterministic output order regardless of input order.
	sort.Slice(normed, func(i, j int) bool {
		if normed[i].day != normed[j].day {
			return normed[i].day < normed[j].day
		}
		return normed[i].Ticker < normed[j].Ticker
	})

	for _, n := range normed {
		sig := contracts.TradingSignal{
			Ticker: n.Ticker,
			Date:   n.Date,
			Score:  n.Score,
		}
		if prices != nil {
			if close, ok := prices.Close(n.Ticker, n.Date); ok {
				sig.RefPrice = close
			}
		}

		switch {
		case n.Score > g.cfg.BuyThreshold && g.inBuySet(selected, n.day, n.Ticker):
			sig.Action = contracts.ActionBuy
			sig.Strength = classifyStrength(n.Score, g.cfg.BuyThreshold)
			sig.Rationale = fmt.Sprintf("score %.4f above buy threshold %.4f and selected for %s", n.Score, g.cfg.BuyThreshold, n.day)
		case n.Score < g.cfg.SellThreshold:
			sig.Action = contracts.ActionSell
			sig.Strength = classifyStrength(n.Score, g.cfg.SellThreshold)
			sig.Rationale = fmt.Sprintf("score %.4f below sell threshold %.4f", n.Score, g.cfg.SellThreshold)
		default:
			sig.Action = contracts.ActionHold
			sig.Strength = contracts.StrengthWeak
			sig.Rationale = "score inside neutral band"
		}

		out.Append(sig)
	}

	counts := out.CountByAction()
	g.logger.WithFields(map[string]interface{}{
		"predictions": len(preds),
		"days":        len(byDay),
		"buys":        counts[contracts.ActionBuy],
		"sells":       counts[contracts.ActionSell],
		"holds":       counts[contracts.ActionHold],
	}).Info("Signal generation completed")

	return out, nil
}

// inBuySet checks day-level selection; a nil filter admits everything.
func (g *Generator) inBuySet(selected map[string]map[string]struct{}, day, ticker string) bool {
	if g.cfg.BuyFilter == nil {
		return true
	}
	_, ok := selected[day][ticker]
	return ok
}

// classifyStrength grades how far a score sits beyond its threshold.
func classifyStrength(score, threshold float64) contracts.Strength {
	abs := math.Abs(score)
	switch {
	case abs > 2*math.Abs(threshold):
		return contracts.StrengthStrong
	case abs > 1.5*math.Abs(threshold):
		return contracts.StrengthMedium
	default:
		return contracts.StrengthWeak
	}
}
