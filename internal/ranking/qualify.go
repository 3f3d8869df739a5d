package ranking

import (
	"math"
	"sort"
)

// DefaultCutoffRatio is the share of the field that advances when no valid
// ratio is supplied.
const DefaultCutoffRatio = 0.8

// SeededFencer is a qualifier with its 1-based bracket seed.
type SeededFencer struct {
	FencerStat
	Seed int `json:"seed"`
}

// Cutoff returns how many of n fencers advance at ratio: ceil(n*ratio).
// A ratio outside (0,1] falls back to DefaultCutoffRatio.
func Cutoff(n int, ratio float64) int {
	if n <= 0 {
		return 0
	}
	if math.IsNaN(ratio) || ratio <= 0 || ratio > 1 {
		ratio = DefaultCutoffRatio
	}
	// Products such as 10*0.7 land a hair above the integer.
	c := int(math.Ceil(float64(n)*ratio - 1e-9))
	if c > n {
		c = n
	}
	if c < 1 {
		c = 1
	}
	return c
}

// ahead orders by win ratio, then indicator, then touches scored, all
// descending.
func ahead(a, b FencerStat) (less, tied bool) {
	switch {
	case a.WinRatio != b.WinRatio:
		return a.WinRatio > b.WinRatio, false
	case a.Ind != b.Ind:
		return a.Ind > b.Ind, false
	case a.TS != b.TS:
		return a.TS > b.TS, false
	}
	return false, true
}

// SortStats returns a copy of stats in qualification order. Fencers tied on
// all three statistics are ordered by fencer id, then a fencer who beat the
// one directly above in their shared pool moves ahead of them.
func SortStats(stats []FencerStat) []FencerStat {
	out := make([]FencerStat, len(stats))
	copy(out, stats)

	sort.SliceStable(out, func(i, j int) bool {
		less, tied := ahead(out[i], out[j])
		if !tied {
			return less
		}
		return out[i].Fencer.ID < out[j].Fencer.ID
	})

	for i := 0; i+1 < len(out); i++ {
		if _, tied := ahead(out[i], out[i+1]); tied && out[i+1].Beat(out[i]) {
			out[i], out[i+1] = out[i+1], out[i]
		}
	}
	return out
}

// SelectQualifiers ranks stats and keeps the top Cutoff(len, ratio),
// seeding them 1..n in rank order.
func SelectQualifiers(stats []FencerStat, ratio float64) []SeededFencer {
	sorted := SortStats(stats)
	n := Cutoff(len(sorted), ratio)

	out := make([]SeededFencer, n)
	for i := 0; i < n; i++ {
		out[i] = SeededFencer{FencerStat: sorted[i], Seed: i + 1}
	}
	return out
}
