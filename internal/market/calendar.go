package market

import "time"

// ToTradingDay canonicalizes any timestamp to its trading-day key by
// truncating the clock to midnight. The timezone of ts is kept as-is;
// callers are expected to pass already-localized exchange time. Idempotent.
func ToTradingDay(ts time.Time) time.Time {
	return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, ts.Location())
}

// DayKey formats a trading day as its canonical YYYY-MM-DD string,
// the join key used against price data.
func DayKey(ts time.Time) string {
	return ToTradingDay(ts).Format("2006-01-02")
}

// SameTradingDay reports whether two timestamps fall on the same trading day.
func SameTradingDay(a, b time.Time) bool {
	return ToTradingDay(a).Equal(ToTradingDay(b))
}
