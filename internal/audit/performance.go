package audit

import (
	"math"
	"time"

	"github.com/fengyx/quantback/internal/contracts"
)

// 252 trading days per year for annualization.
const tradingDaysPerYear = 252

// Report holds risk and return metrics for one completed run. All fields
// are computed eagerly by Analyze; nothing is streamed.
type Report struct {
	TradingDays int `json:"trading_days"`

	// Returns
	TotalReturn      float64 `json:"total_return"`
	AnnualizedReturn float64 `json:"annualized_return"`

	// Risk
	Volatility  float64 `json:"volatility"` // annualized
	Sharpe      float64 `json:"sharpe"`
	MaxDrawdown float64 `json:"max_drawdown"`

	// Drawdown window
	DrawdownPeak   time.Time `json:"drawdown_peak"`
	DrawdownTrough time.Time `json:"drawdown_trough"`
	DrawdownDays   int       `json:"drawdown_days"`

	// Trading
	WinRate      float64 `json:"win_rate"`
	ProfitFactor float64 `json:"profit_factor"`
	AvgWin       float64 `json:"avg_win"`
	AvgLoss      float64 `json:"avg_loss"`
	Wins         int     `json:"wins"`
	Losses       int     `json:"losses"`
	Fragments    int     `json:"fragments"`
}

// Analyze computes all metrics from a run's equity curve and realized
// fragments. Pure function of its inputs.
func Analyze(curve []contracts.EquityPoint, fragments []contracts.RealizedFragment, riskFreeRate float64) *Report {
	report := &Report{TradingDays: len(curve)}

	if len(curve) > 0 {
		first, _ := curve[0].Equity.Float64()
		last, _ := curve[len(curve)-1].Equity.Float64()
		if first != 0 {
			report.TotalReturn = (last - first) / first
		}
	}

	returns := dailyReturns(curve)
	report.AnnualizedReturn = mean(returns) * tradingDaysPerYear
	report.Volatility = sampleStddev(returns) * math.Sqrt(tradingDaysPerYear)

	// Sharpe is 0 rather than undefined on degenerate curves.
	if len(curve) >= 2 && report.Volatility > 0 {
		report.Sharpe = (report.AnnualizedReturn - riskFreeRate) / report.Volatility
	}

	report.MaxDrawdown, report.DrawdownPeak, report.DrawdownTrough = maxDrawdown(curve)
	if report.MaxDrawdown > 0 {
		report.DrawdownDays = int(report.DrawdownTrough.Sub(report.DrawdownPeak).Hours() / 24)
	}

	analyzeFragments(report, fragments)

	return report
}

// dailyReturns converts the equity curve into simple day-over-day returns.
func dailyReturns(curve []contracts.EquityPoint) []float64 {
	if len(curve) < 2 {
		return nil
	}

	returns := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		prev, _ := curve[i-1].Equity.Float64()
		curr, _ := curve[i].Equity.Float64()
		if prev == 0 {
			returns = append(returns, 0)
			continue
		}
		returns = append(returns, (curr-prev)/prev)
	}
	return returns
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// sampleStddev is the ddof=1 standard deviation; 0 for fewer than two
// observations.
func sampleStddev(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}

	m := mean(values)
	variance := 0.0
	for _, v := range values {
		diff := v - m
		variance += diff * diff
	}
	variance /= float64(n - 1)

	return math.Sqrt(variance)
}

// maxDrawdown scans the curve tracking the running peak and returns the
// deepest peak-to-trough decline with its peak and trough dates.
func maxDrawdown(curve []contracts.EquityPoint) (float64, time.Time, time.Time) {
	if len(curve) == 0 {
		return 0, time.Time{}, time.Time{}
	}

	peak, _ := curve[0].Equity.Float64()
	peakDate := curve[0].Date

	maxDD := 0.0
	var ddPeak, ddTrough time.Time

	for _, point := range curve {
		equity, _ := point.Equity.Float64()
		if equity > peak {
			peak = equity
			peakDate = point.Date
		}
		if peak <= 0 {
			continue
		}

		drawdown := (peak - equity) / peak
		if drawdown > maxDD {
			maxDD = drawdown
			ddPeak = peakDate
			ddTrough = point.Date
		}
	}

	return maxDD, ddPeak, ddTrough
}

// analyzeFragments fills the trade-level metrics. A fragment wins when
// its pnl, already net of both-leg commission, is positive. Win rate is
// 0 for fewer than two fragments.
func analyzeFragments(report *Report, fragments []contracts.RealizedFragment) {
	report.Fragments = len(fragments)

	grossWin, grossLoss := 0.0, 0.0
	for _, frag := range fragments {
		pnl, _ := frag.PnL.Float64()
		if frag.IsWin() {
			report.Wins++
			grossWin += pnl
		} else {
			report.Losses++
			grossLoss += -pnl
		}
	}

	if report.Fragments >= 2 {
		report.WinRate = float64(report.Wins) / float64(report.Fragments)
	}
	if report.Wins > 0 {
		report.AvgWin = grossWin / float64(report.Wins)
	}
	if report.Losses > 0 {
		report.AvgLoss = grossLoss / float64(report.Losses)
	}
	if grossLoss > 0 {
		report.ProfitFactor = grossWin / grossLoss
	}
}
