package backtest

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fengyx/quantback/internal/contracts"
)

func TestLedger_ApplyTrade(t *testing.T) {
	l := NewLedger(dec("100000"))

	err := l.ApplyTrade(contracts.Trade{
		Ticker:     "sh600000",
		Action:     contracts.ActionBuy,
		Date:       tradingDay(2),
		Price:      dec("10.00"),
		Quantity:   1000,
		Commission: dec("3"),
	})
	if err != nil {
		t.Fatalf("buy failed: %v", err)
	}
	if !l.Cash().Equal(dec("89997")) {
		t.Errorf("cash after buy = %s, want 89997", l.Cash())
	}

	err = l.ApplyTrade(contracts.Trade{
		Ticker:     "sh600000",
		Action:     contracts.ActionSell,
		Date:       tradingDay(5),
		Price:      dec("10.50"),
		Quantity:   1000,
		Commission: dec("13.65"),
	})
	if err != nil {
		t.Fatalf("sell failed: %v", err)
	}
	// 89997 + 10500 − 13.65
	if !l.Cash().Equal(dec("100483.35")) {
		t.Errorf("cash after sell = %s, want 100483.35", l.Cash())
	}

	if len(l.Trades()) != 2 {
		t.Errorf("trade log has %d entries, want 2", len(l.Trades()))
	}
}

func TestLedger_InsufficientCashLeavesStateUnchanged(t *testing.T) {
	l := NewLedger(dec("1000"))

	err := l.ApplyTrade(contracts.Trade{
		Ticker:     "sh600000",
		Action:     contracts.ActionBuy,
		Date:       tradingDay(2),
		Price:      dec("10.00"),
		Quantity:   1000,
		Commission: dec("3"),
	})
	if err == nil {
		t.Fatal("expected insufficient cash error")
	}

	if !l.Cash().Equal(dec("1000")) {
		t.Errorf("cash = %s, want 1000 after failed buy", l.Cash())
	}
	if len(l.Trades()) != 0 {
		t.Error("failed trade must not be logged")
	}
}

func TestLedger_RejectsNonPositiveQuantity(t *testing.T) {
	l := NewLedger(dec("1000"))

	err := l.ApplyTrade(contracts.Trade{
		Ticker:   "sh600000",
		Action:   contracts.ActionBuy,
		Price:    dec("10.00"),
		Quantity: 0,
	})
	if err == nil {
		t.Fatal("expected error for zero quantity")
	}
}

func TestLedger_RejectsHoldTrade(t *testing.T) {
	l := NewLedger(dec("1000"))

	err := l.ApplyTrade(contracts.Trade{
		Ticker:   "sh600000",
		Action:   contracts.ActionHold,
		Price:    dec("10.00"),
		Quantity: 100,
	})
	if err == nil {
		t.Fatal("expected error for HOLD trade")
	}
}

func TestLedger_MarkToMarket(t *testing.T) {
	l := NewLedger(dec("100000"))

	holdings := map[string]int64{"sh600000": 1000}
	closes := map[string]decimal.Decimal{"sh600000": dec("10.50")}

	if err := l.Mark(tradingDay(2), holdings, closes); err != nil {
		t.Fatalf("Mark failed: %v", err)
	}

	curve := l.Curve()
	if len(curve) != 1 {
		t.Fatalf("curve has %d points, want 1", len(curve))
	}
	if !curve[0].Equity.Equal(dec("110500")) {
		t.Errorf("equity = %s, want 110500", curve[0].Equity)
	}
}

func TestLedger_RemarkSameDayOverwrites(t *testing.T) {
	l := NewLedger(dec("100000"))

	if err := l.Mark(tradingDay(2), nil, nil); err != nil {
		t.Fatalf("first Mark failed: %v", err)
	}

	holdings := map[string]int64{"sh600000": 100}
	closes := map[string]decimal.Decimal{"sh600000": dec("10")}
	if err := l.Mark(tradingDay(2), holdings, closes); err != nil {
		t.Fatalf("re-Mark failed: %v", err)
	}

	curve := l.Curve()
	if len(curve) != 1 {
		t.Fatalf("curve has %d points after re-mark, want 1", len(curve))
	}
	if !curve[0].Equity.Equal(dec("101000")) {
		t.Errorf("equity = %s, want 101000 after overwrite", curve[0].Equity)
	}
}

func TestLedger_MarkOutOfOrderFails(t *testing.T) {
	l := NewLedger(dec("100000"))

	if err := l.Mark(tradingDay(5), nil, nil); err != nil {
		t.Fatalf("Mark failed: %v", err)
	}
	if err := l.Mark(tradingDay(2), nil, nil); err == nil {
		t.Fatal("expected error for out-of-order equity point")
	}
}

func TestLedger_MarkMissingPriceFails(t *testing.T) {
	l := NewLedger(dec("100000"))

	holdings := map[string]int64{"sh600000": 100}
	if err := l.Mark(tradingDay(2), holdings, nil); err == nil {
		t.Fatal("expected error when a held instrument has no close")
	}
}

func TestLedger_CurveIsCopy(t *testing.T) {
	l := NewLedger(dec("100000"))
	if err := l.Mark(tradingDay(2), nil, nil); err != nil {
		t.Fatalf("Mark failed: %v", err)
	}

	curve := l.Curve()
	curve[0].Date = time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC)

	if !l.Curve()[0].Date.Equal(tradingDay(2)) {
		t.Error("Curve() must return a copy")
	}
}
