package selection

import (
	"math"
	"sort"
)

// Candidate is one instrument's score within a single trading day's
// cross-section.
type Candidate struct {
	Ticker string
	Score  float64
}

// Policy decides which instruments of one day's cross-section are eligible
// for the buy side. Implementations are stateless; each day is evaluated
// independently and never sees another day's candidates.
type Policy interface {
	// Select returns the eligible tickers for the given day's candidates.
	Select(candidates []Candidate) map[string]struct{}
}

// TopK keeps the K highest-scoring instruments. K <= 0 disables filtering
// and returns the full set. Ties are broken by ticker ascending so a day's
// selection is deterministic regardless of input order.
type TopK struct {
	K int
}

// Select implements Policy
func (p TopK) Select(candidates []Candidate) map[string]struct{} {
	ranked := rank(candidates)
	n := len(ranked)
	if p.K > 0 && p.K < n {
		n = p.K
	}

	selected := make(map[string]struct{}, n)
	for _, c := range ranked[:n] {
		selected[c.Ticker] = struct{}{}
	}
	return selected
}

// Threshold keeps every instrument whose score exceeds Min.
type Threshold struct {
	Min float64
}

// Select implements Policy
func (p Threshold) Select(candidates []Candidate) map[string]struct{} {
	selected := make(map[string]struct{})
	for _, c := range candidates {
		if c.Score > p.Min {
			selected[c.Ticker] = struct{}{}
		}
	}
	return selected
}

// Percentile keeps the top P fraction (0 < P <= 1) of the day's
// cross-section, at least one instrument when the day is non-empty.
type Percentile struct {
	P float64
}

// Select implements Policy
func (p Percentile) Select(candidates []Candidate) map[string]struct{} {
	ranked := rank(candidates)
	n := len(ranked)
	if n == 0 || p.P <= 0 {
		return map[string]struct{}{}
	}

	keep := int(math.Ceil(float64(n) * p.P))
	if keep > n {
		keep = n
	}

	selected := make(map[string]struct{}, keep)
	for _, c := range ranked[:keep] {
		selected[c.Ticker] = struct{}{}
	}
	return selected
}

// rank returns candidates ordered by score descending, ticker ascending on
// equal scores.
func rank(candidates []Candidate) []Candidate {
	ranked := make([]Candidate, len(candidates))
	copy(ranked, candidates)

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Ticker < ranked[j].Ticker
	})

	return ranked
}
