package backtest

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fengyx/quantback/internal/contracts"
	"github.com/fengyx/quantback/internal/market"
	"github.com/fengyx/quantback/pkg/logger"
)

// Config is the immutable value object for one backtest run.
type Config struct {
	InitialCapital decimal.Decimal
	Costs          CostConfig

	// PositionFraction is the share of available cash committed per BUY.
	PositionFraction decimal.Decimal

	// BoardLot is the share rounding unit (100 for A-shares).
	BoardLot int64
}

// Validate checks the run configuration.
func (c Config) Validate() error {
	if !c.InitialCapital.IsPositive() {
		return fmt.Errorf("initial capital must be positive, got %s", c.InitialCapital)
	}
	if !c.PositionFraction.IsPositive() || c.PositionFraction.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("position fraction must be in (0, 1], got %s", c.PositionFraction)
	}
	if c.BoardLot <= 0 {
		return fmt.Errorf("board lot must be positive, got %d", c.BoardLot)
	}
	return c.Costs.Validate()
}

// Engine replays one signal batch chronologically against a fresh ledger
// and matcher, producing an immutable result. One engine instance may be
// reused across runs; each Run owns all of its mutable state, so
// concurrent Runs on separate engines (or the same one) never share
// anything.
type Engine struct {
	cfg    Config
	logger *logger.Logger
}

// NewEngine validates the configuration and creates an engine.
func NewEngine(cfg Config, logger *logger.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg, logger: logger}, nil
}

// Run executes the batch day by day: sells release cash first, buys are
// sized from the remaining cash, then the day is marked to market. Days
// with only HOLD signals still produce an equity point.
func (e *Engine) Run(batch *contracts.SignalBatch, prices *contracts.PriceBook) (*contracts.BacktestResult, error) {
	if prices == nil {
		prices = contracts.NewPriceBook()
	}

	matcher := NewMatcher()
	ledger := NewLedger(e.cfg.InitialCapital)
	fragments := make([]contracts.RealizedFragment, 0)

	days, byDay := groupByDay(batch.Signals)
	lastClose := make(map[string]decimal.Decimal)

	for _, day := range days {
		sigs := byDay[market.DayKey(day)]

		// Remember every close seen today; held instruments with no bar
		// today are marked at their last known close.
		for _, sig := range sigs {
			if close, ok := prices.Close(sig.Ticker, day); ok {
				lastClose[sig.Ticker] = close
			}
		}

		// Sells first so the freed cash is available to the day's buys.
		for _, sig := range sigs {
			if sig.Action != contracts.ActionSell {
				continue
			}
			frags, err := e.sell(matcher, ledger, sig, day, prices, lastClose)
			if err != nil {
				return nil, err
			}
			fragments = append(fragments, frags...)
		}

		for _, sig := range sigs {
			if sig.Action != contracts.ActionBuy {
				continue
			}
			if err := e.buy(matcher, ledger, sig, day, prices, lastClose); err != nil {
				return nil, err
			}
		}

		closes := make(map[string]decimal.Decimal)
		for ticker := range matcher.Holdings() {
			if close, ok := prices.Close(ticker, day); ok {
				lastClose[ticker] = close
			}
			if close, ok := lastClose[ticker]; ok {
				closes[ticker] = close
			}
		}
		if err := ledger.Mark(day, matcher.Holdings(), closes); err != nil {
			return nil, err
		}
	}

	result := &contracts.BacktestResult{
		ModelID:        batch.ModelID,
		InitialCapital: e.cfg.InitialCapital,
		FinalCapital:   e.cfg.InitialCapital,
		EquityCurve:    ledger.Curve(),
		Trades:         ledger.Trades(),
		Fragments:      fragments,
	}
	if curve := result.EquityCurve; len(curve) > 0 {
		result.FinalCapital = curve[len(curve)-1].Equity
	}

	e.logger.WithFields(map[string]interface{}{
		"days":      len(days),
		"trades":    len(result.Trades),
		"fragments": len(fragments),
		"final":     result.FinalCapital.StringFixed(2),
	}).Info("Backtest run completed")

	return result, nil
}

// sell closes the instrument's entire open position at the day's close.
// A SELL signal with nothing held is skipped: the upstream generator does
// not know the portfolio.
func (e *Engine) sell(matcher *Matcher, ledger *Ledger, sig contracts.TradingSignal, day time.Time, prices *contracts.PriceBook, lastClose map[string]decimal.Decimal) ([]contracts.RealizedFragment, error) {
	quantity := matcher.OpenQuantity(sig.Ticker)
	if quantity == 0 {
		e.logger.WithField("ticker", sig.Ticker).Debug("SELL signal with no open position, skipped")
		return nil, nil
	}

	price, ok := e.executionPrice(sig, day, prices)
	if !ok {
		e.logger.WithFields(map[string]interface{}{
			"ticker": sig.Ticker,
			"day":    market.DayKey(day),
		}).Warn("No close price for SELL, skipped")
		return nil, nil
	}
	// A fill via the reference-price fallback is still the instrument's
	// latest known valuation; mark-to-market must be able to find it.
	lastClose[sig.Ticker] = price

	commission := e.cfg.Costs.Cost(contracts.ActionSell, price, quantity)
	fragments, err := matcher.Sell(sig.Ticker, day, quantity, price, commission)
	if err != nil {
		return nil, err
	}

	err = ledger.ApplyTrade(contracts.Trade{
		Ticker:     sig.Ticker,
		Action:     contracts.ActionSell,
		Date:       day,
		Price:      price,
		Quantity:   quantity,
		Commission: commission,
	})
	if err != nil {
		return nil, err
	}
	return fragments, nil
}

// buy sizes a position from available cash and pushes a new open lot.
func (e *Engine) buy(matcher *Matcher, ledger *Ledger, sig contracts.TradingSignal, day time.Time, prices *contracts.PriceBook, lastClose map[string]decimal.Decimal) error {
	price, ok := e.executionPrice(sig, day, prices)
	if !ok {
		e.logger.WithFields(map[string]interface{}{
			"ticker": sig.Ticker,
			"day":    market.DayKey(day),
		}).Warn("No close price for BUY, skipped")
		return nil
	}
	lastClose[sig.Ticker] = price

	quantity := e.sizeBuy(ledger.Cash(), price)
	if quantity == 0 {
		e.logger.WithField("ticker", sig.Ticker).Debug("BUY sized to zero board lots, skipped")
		return nil
	}

	commission := e.cfg.Costs.Cost(contracts.ActionBuy, price, quantity)
	trade := contracts.Trade{
		Ticker:     sig.Ticker,
		Action:     contracts.ActionBuy,
		Date:       day,
		Price:      price,
		Quantity:   quantity,
		Commission: commission,
	}

	// Sizing ignores commission; shave board lots until the leg fits.
	for trade.Notional().Add(commission).GreaterThan(ledger.Cash()) {
		quantity -= e.cfg.BoardLot
		if quantity <= 0 {
			e.logger.WithField("ticker", sig.Ticker).Debug("BUY unaffordable after costs, skipped")
			return nil
		}
		commission = e.cfg.Costs.Cost(contracts.ActionBuy, price, quantity)
		trade.Quantity = quantity
		trade.Commission = commission
	}

	if err := ledger.ApplyTrade(trade); err != nil {
		return err
	}
	matcher.Buy(sig.Ticker, day, quantity, price, commission)
	return nil
}

// executionPrice resolves the fill price: the day's close, falling back
// to the signal's reference price.
func (e *Engine) executionPrice(sig contracts.TradingSignal, day time.Time, prices *contracts.PriceBook) (decimal.Decimal, bool) {
	if prices != nil {
		if close, ok := prices.Close(sig.Ticker, day); ok {
			return close, true
		}
	}
	if sig.RefPrice.IsPositive() {
		return sig.RefPrice, true
	}
	return decimal.Zero, false
}

// sizeBuy converts the per-position cash fraction into whole board lots.
func (e *Engine) sizeBuy(cash, price decimal.Decimal) int64 {
	if !price.IsPositive() {
		return 0
	}
	budget := cash.Mul(e.cfg.PositionFraction)
	lots := budget.Div(price.Mul(decimal.NewFromInt(e.cfg.BoardLot))).IntPart()
	return lots * e.cfg.BoardLot
}

// groupByDay splits signals per trading day, days ascending. Signal order
// within a day is preserved.
func groupByDay(signals []contracts.TradingSignal) ([]time.Time, map[string][]contracts.TradingSignal) {
	byDay := make(map[string][]contracts.TradingSignal)
	dates := make(map[string]time.Time)
	for _, sig := range signals {
		key := market.DayKey(sig.Date)
		byDay[key] = append(byDay[key], sig)
		dates[key] = market.ToTradingDay(sig.Date)
	}

	keys := make([]string, 0, len(byDay))
	for key := range byDay {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	days := make([]time.Time, len(keys))
	for i, key := range keys {
		days[i] = dates[key]
	}
	return days, byDay
}
