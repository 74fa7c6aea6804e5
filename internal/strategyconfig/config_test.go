package strategyconfig

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/fengyx/quantback/internal/backtest"
	"github.com/fengyx/quantback/internal/selection"
)

const sampleYAML = `meta:
  strategy_id: ashare_ml_v1
  version: "1.0"
signals:
  buy_threshold: 0.02
  sell_threshold: -0.02
selection:
  policy: top_k
  top_k: 10
costs:
  commission_rate: "0.0003"
  transfer_fee_rate: "0.00001"
  stamp_duty_rate: "0.001"
  min_commission: "5"
portfolio:
  initial_capital: "1000000"
  position_fraction: "0.1"
  board_lot: 100
audit:
  risk_free_rate: 0.025
`

func writeStrategy(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "strategy.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write strategy file: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	cfg, raw, err := Load(writeStrategy(t, sampleYAML))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(raw) == 0 {
		t.Error("expected raw yaml bytes")
	}

	if cfg.Meta.StrategyID != "ashare_ml_v1" {
		t.Errorf("strategy_id = %s", cfg.Meta.StrategyID)
	}
	if cfg.Signals.BuyThreshold != 0.02 || cfg.Signals.SellThreshold != -0.02 {
		t.Errorf("thresholds = %v / %v", cfg.Signals.BuyThreshold, cfg.Signals.SellThreshold)
	}
	if cfg.Costs.StampDutyRate.String() != "0.001" {
		t.Errorf("stamp_duty_rate = %s", cfg.Costs.StampDutyRate)
	}
	if cfg.Portfolio.BoardLot != 100 {
		t.Errorf("board_lot = %d", cfg.Portfolio.BoardLot)
	}
}

func TestLoad_UnknownFieldFails(t *testing.T) {
	_, _, err := Load(writeStrategy(t, sampleYAML+"unknown_section:\n  x: 1\n"))
	if err == nil {
		t.Fatal("expected error for unknown YAML field")
	}
}

func TestValidate_NegativeRate(t *testing.T) {
	bad := sampleYAML
	path := writeStrategy(t, bad)
	cfg, _, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	cfg.Costs.StampDutyRate = cfg.Costs.StampDutyRate.Neg()
	err = Validate(cfg)
	if !errors.Is(err, backtest.ErrInvalidCostConfig) {
		t.Fatalf("expected ErrInvalidCostConfig, got %v", err)
	}
}

func TestValidate_FieldErrors(t *testing.T) {
	base := func() *Config {
		cfg, _, err := Load(writeStrategy(t, sampleYAML))
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		return cfg
	}

	cfg := base()
	cfg.Meta.StrategyID = ""
	if err := Validate(cfg); err == nil {
		t.Error("expected error for missing strategy_id")
	}

	cfg = base()
	cfg.Selection.Policy = "astrology"
	if err := Validate(cfg); err == nil {
		t.Error("expected error for unknown policy")
	}

	cfg = base()
	cfg.Portfolio.InitialCapital = cfg.Portfolio.InitialCapital.Neg()
	if err := Validate(cfg); err == nil {
		t.Error("expected error for negative capital")
	}

	cfg = base()
	cfg.Selection.Policy = "percentile"
	cfg.Selection.Percentile = 1.5
	if err := Validate(cfg); err == nil {
		t.Error("expected error for percentile above 1")
	}
}

func TestEngineConfig_FractionDefaultsToOneOverK(t *testing.T) {
	cfg, _, err := Load(writeStrategy(t, sampleYAML))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	cfg.Portfolio.PositionFraction = decimal.Zero
	if err := Validate(cfg); err != nil {
		t.Fatalf("zero fraction with top_k should validate, got %v", err)
	}
	got := cfg.EngineConfig().PositionFraction
	if !got.Equal(decimal.NewFromFloat(0.1)) {
		t.Errorf("fraction = %s, want 0.1 for top_k=10", got)
	}

	// Without a top_k policy there is no default to fall back on.
	cfg.Selection.Policy = "none"
	if err := Validate(cfg); err == nil {
		t.Error("expected error for zero fraction without top_k")
	}
}

func TestBuyPolicy(t *testing.T) {
	cfg, _, err := Load(writeStrategy(t, sampleYAML))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if _, ok := cfg.BuyPolicy().(selection.TopK); !ok {
		t.Errorf("expected TopK policy, got %T", cfg.BuyPolicy())
	}

	cfg.Selection.TopK = 0
	if cfg.BuyPolicy() != nil {
		t.Error("top_k=0 should disable filtering")
	}

	cfg.Selection.Policy = "threshold"
	if _, ok := cfg.BuyPolicy().(selection.Threshold); !ok {
		t.Errorf("expected Threshold policy, got %T", cfg.BuyPolicy())
	}

	cfg.Selection.Policy = "none"
	if cfg.BuyPolicy() != nil {
		t.Error("none policy should be nil")
	}
}

func TestHash_Deterministic(t *testing.T) {
	cfg, _, err := Load(writeStrategy(t, sampleYAML))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	h1, err := Hash(cfg)
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if len(h1) != 64 {
		t.Errorf("expected 64 char hash, got %d", len(h1))
	}

	h2, _ := Hash(cfg)
	if h1 != h2 {
		t.Error("hash not deterministic")
	}

	cfg.Signals.BuyThreshold = 0.03
	h3, _ := Hash(cfg)
	if h1 == h3 {
		t.Error("hash should change with config")
	}
}
