package market

import (
	"errors"
	"testing"
	"time"
)

func TestToTradingDay(t *testing.T) {
	cst := time.FixedZone("CST", 8*3600)

	ts := time.Date(2024, 1, 5, 14, 52, 31, 900, cst)
	day := ToTradingDay(ts)

	want := time.Date(2024, 1, 5, 0, 0, 0, 0, cst)
	if !day.Equal(want) {
		t.Errorf("ToTradingDay() = %v, want %v", day, want)
	}

	// No timezone conversion: location is preserved
	if day.Location() != cst {
		t.Errorf("location changed to %v", day.Location())
	}

	// Idempotent
	if !ToTradingDay(day).Equal(day) {
		t.Error("ToTradingDay should be idempotent")
	}
}

func TestDayKey(t *testing.T) {
	ts := time.Date(2024, 3, 7, 9, 31, 0, 0, time.UTC)
	if got := DayKey(ts); got != "2024-03-07" {
		t.Errorf("DayKey() = %s, want 2024-03-07", got)
	}
}

func TestSameTradingDay(t *testing.T) {
	open := time.Date(2024, 1, 5, 9, 30, 0, 0, time.UTC)
	close := time.Date(2024, 1, 5, 15, 0, 0, 0, time.UTC)
	nextOpen := time.Date(2024, 1, 8, 9, 30, 0, 0, time.UTC)

	if !SameTradingDay(open, close) {
		t.Error("open and close of the same session should share a trading day")
	}
	if SameTradingDay(close, nextOpen) {
		t.Error("different dates must not share a trading day")
	}
}

func TestNormalizeTicker(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{"lowercase shanghai", "sh600519", "sh600519", false},
		{"uppercase shenzhen", "SZ000001", "sz000001", false},
		{"mixed case", "Sh600000", "sh600000", false},
		{"beijing", "bj430047", "bj430047", false},
		{"surrounding whitespace", " sh600519 ", "sh600519", false},
		{"unknown prefix", "ny600519", "", true},
		{"bare code", "600519", "", true},
		{"code too short", "sh60051", "", true},
		{"code too long", "sh6005190", "", true},
		{"non-numeric code", "sh60051a", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeTicker(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("NormalizeTicker(%q) expected error", tt.raw)
				}
				if !errors.Is(err, ErrInvalidTicker) {
					t.Errorf("error should wrap ErrInvalidTicker, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizeTicker(%q) failed: %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("NormalizeTicker(%q) = %s, want %s", tt.raw, got, tt.want)
			}
		})
	}
}
