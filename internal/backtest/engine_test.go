package backtest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fengyx/quantback/internal/contracts"
	"github.com/fengyx/quantback/pkg/logger"
)

func testEngine(t *testing.T) *Engine {
	t.Helper()
	engine, err := NewEngine(Config{
		InitialCapital:   dec("100000"),
		Costs:            aShareCosts(),
		PositionFraction: dec("1"),
		BoardLot:         100,
	}, logger.Nop())
	require.NoError(t, err)
	return engine
}

func TestNewEngine_ValidatesConfig(t *testing.T) {
	_, err := NewEngine(Config{
		InitialCapital:   dec("0"),
		Costs:            aShareCosts(),
		PositionFraction: dec("1"),
		BoardLot:         100,
	}, logger.Nop())
	assert.Error(t, err, "zero capital must be rejected")

	_, err = NewEngine(Config{
		InitialCapital:   dec("100000"),
		Costs:            CostConfig{CommissionRate: dec("-1")},
		PositionFraction: dec("1"),
		BoardLot:         100,
	}, logger.Nop())
	assert.ErrorIs(t, err, ErrInvalidCostConfig)

	_, err = NewEngine(Config{
		InitialCapital:   dec("100000"),
		Costs:            aShareCosts(),
		PositionFraction: dec("2"),
		BoardLot:         100,
	}, logger.Nop())
	assert.Error(t, err, "fraction above 1 must be rejected")
}

func TestRun_HoldOnlyBatch(t *testing.T) {
	engine := testEngine(t)

	batch := &contracts.SignalBatch{}
	for d := 2; d <= 4; d++ {
		batch.Append(contracts.TradingSignal{
			Ticker: "sh600000",
			Date:   tradingDay(d),
			Action: contracts.ActionHold,
		})
	}

	result, err := engine.Run(batch, nil)
	require.NoError(t, err)

	assert.Empty(t, result.Trades)
	assert.Empty(t, result.Fragments)
	require.Len(t, result.EquityCurve, 3)
	for _, point := range result.EquityCurve {
		assert.True(t, point.Equity.Equal(dec("100000")), "equity %s on %s", point.Equity, point.Date)
	}
	assert.True(t, result.FinalCapital.Equal(dec("100000")))
}

func TestRun_BuyThenSell(t *testing.T) {
	engine := testEngine(t)

	prices := contracts.NewPriceBook()
	prices.Add("sh600000", tradingDay(2), dec("10.00"))
	prices.Add("sh600000", tradingDay(5), dec("10.50"))

	batch := &contracts.SignalBatch{ModelID: "lgbm_v2"}
	batch.Append(contracts.TradingSignal{Ticker: "sh600000", Date: tradingDay(2), Action: contracts.ActionBuy})
	batch.Append(contracts.TradingSignal{Ticker: "sh600000", Date: tradingDay(5), Action: contracts.ActionSell})

	result, err := engine.Run(batch, prices)
	require.NoError(t, err)

	// Full fraction of 100000 at 10.00 rounds to 100 board lots, shaved
	// one lot to cover commission: 9900 shares.
	require.Len(t, result.Trades, 2)
	buy, sell := result.Trades[0], result.Trades[1]
	assert.Equal(t, contracts.ActionBuy, buy.Action)
	assert.EqualValues(t, 9900, buy.Quantity)
	assert.True(t, buy.Commission.Equal(dec("29.7")), "buy commission %s", buy.Commission)
	assert.Equal(t, contracts.ActionSell, sell.Action)
	assert.EqualValues(t, 9900, sell.Quantity)

	require.Len(t, result.Fragments, 1)
	assert.True(t, result.Fragments[0].PnL.Equal(dec("4785.165")), "pnl %s", result.Fragments[0].PnL)

	require.Len(t, result.EquityCurve, 2)
	assert.True(t, result.EquityCurve[0].Equity.Equal(dec("99970.30")), "day-2 equity %s", result.EquityCurve[0].Equity)
	assert.True(t, result.FinalCapital.Equal(dec("104785.165")), "final %s", result.FinalCapital)
}

func TestRun_SellsFreeCashBeforeBuys(t *testing.T) {
	engine := testEngine(t)

	prices := contracts.NewPriceBook()
	prices.Add("sh600000", tradingDay(2), dec("10.00"))
	prices.Add("sh600000", tradingDay(5), dec("10.00"))
	prices.Add("sz000001", tradingDay(5), dec("20.00"))

	batch := &contracts.SignalBatch{}
	batch.Append(contracts.TradingSignal{Ticker: "sh600000", Date: tradingDay(2), Action: contracts.ActionBuy})
	// Day 5: batch order lists the BUY before the SELL; the engine must
	// still sell first so the proceeds fund the buy.
	batch.Append(contracts.TradingSignal{Ticker: "sz000001", Date: tradingDay(5), Action: contracts.ActionBuy})
	batch.Append(contracts.TradingSignal{Ticker: "sh600000", Date: tradingDay(5), Action: contracts.ActionSell})

	result, err := engine.Run(batch, prices)
	require.NoError(t, err)

	require.Len(t, result.Trades, 3)
	assert.Equal(t, contracts.ActionSell, result.Trades[1].Action, "sell leg must execute before the day's buy")
	assert.Equal(t, "sz000001", result.Trades[2].Ticker)
	assert.Greater(t, result.Trades[2].Quantity, int64(4000), "buy should be funded by sale proceeds")
}

func TestRun_SellWithNoPositionIsSkipped(t *testing.T) {
	engine := testEngine(t)

	prices := contracts.NewPriceBook()
	prices.Add("sh600000", tradingDay(2), dec("10.00"))

	batch := &contracts.SignalBatch{}
	batch.Append(contracts.TradingSignal{Ticker: "sh600000", Date: tradingDay(2), Action: contracts.ActionSell})

	result, err := engine.Run(batch, prices)
	require.NoError(t, err)
	assert.Empty(t, result.Trades)
}

func TestRun_MissingPriceSkipsTrade(t *testing.T) {
	engine := testEngine(t)

	batch := &contracts.SignalBatch{}
	batch.Append(contracts.TradingSignal{Ticker: "sh600000", Date: tradingDay(2), Action: contracts.ActionBuy})

	result, err := engine.Run(batch, contracts.NewPriceBook())
	require.NoError(t, err)
	assert.Empty(t, result.Trades)
}

func TestRun_FallsBackToSignalRefPrice(t *testing.T) {
	engine := testEngine(t)

	batch := &contracts.SignalBatch{}
	batch.Append(contracts.TradingSignal{
		Ticker:   "sh600000",
		Date:     tradingDay(2),
		Action:   contracts.ActionBuy,
		RefPrice: dec("10.00"),
	})

	result, err := engine.Run(batch, contracts.NewPriceBook())
	require.NoError(t, err)
	require.Len(t, result.Trades, 1)
	assert.True(t, result.Trades[0].Price.Equal(dec("10.00")))

	// The fallback fill price also values the position at the day's mark:
	// 9900 shares at 10.00 plus 970.30 cash after 29.70 commission.
	require.Len(t, result.EquityCurve, 1)
	assert.True(t, result.EquityCurve[0].Equity.Equal(dec("99970.30")),
		"equity = %s", result.EquityCurve[0].Equity)
}

func TestRun_HeldInstrumentMarkedAtLastKnownClose(t *testing.T) {
	engine := testEngine(t)

	prices := contracts.NewPriceBook()
	prices.Add("sh600000", tradingDay(2), dec("10.00"))
	// No bar for sh600000 on day 3

	batch := &contracts.SignalBatch{}
	batch.Append(contracts.TradingSignal{Ticker: "sh600000", Date: tradingDay(2), Action: contracts.ActionBuy})
	batch.Append(contracts.TradingSignal{Ticker: "sh600000", Date: tradingDay(3), Action: contracts.ActionHold})

	result, err := engine.Run(batch, prices)
	require.NoError(t, err)
	require.Len(t, result.EquityCurve, 2)
	assert.True(t, result.EquityCurve[1].Equity.Equal(result.EquityCurve[0].Equity),
		"flat close should keep equity unchanged")
}

func TestRun_IsDeterministic(t *testing.T) {
	prices := contracts.NewPriceBook()
	prices.Add("sh600000", tradingDay(2), dec("10.00"))
	prices.Add("sh600000", tradingDay(5), dec("10.50"))

	batch := &contracts.SignalBatch{}
	batch.Append(contracts.TradingSignal{Ticker: "sh600000", Date: tradingDay(2), Action: contracts.ActionBuy})
	batch.Append(contracts.TradingSignal{Ticker: "sh600000", Date: tradingDay(5), Action: contracts.ActionSell})

	first, err := testEngine(t).Run(batch, prices)
	require.NoError(t, err)
	second, err := testEngine(t).Run(batch, prices)
	require.NoError(t, err)

	assert.True(t, first.FinalCapital.Equal(second.FinalCapital))
	assert.Equal(t, len(first.Trades), len(second.Trades))
	assert.Equal(t, len(first.Fragments), len(second.Fragments))
}
