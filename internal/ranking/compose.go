package ranking

import (
	"sort"

	"github.com/roach88/piste/internal/model"
)

// RankedFencer is one line of a final standing.
type RankedFencer struct {
	FencerStat
	Rank       int   `json:"rank"`
	PoolRank   int   `json:"pool_rank"`
	Label      Label `json:"label"`
	Eliminated bool  `json:"eliminated"`
}

// ComposeFinalRanking orders the whole pool field by elimination label
// precedence, then pool rank. b may be nil before the bracket exists.
func ComposeFinalRanking(stats []FencerStat, b model.Bracket) []RankedFencer {
	sorted := SortStats(stats)
	labels := ResolveEliminationLabels(b)
	entrants := b.Participants()

	out := make([]RankedFencer, len(sorted))
	for i, s := range sorted {
		id := s.Fencer.ID
		l, ok := labels[id]
		if !ok {
			l = LabelPoolOnly
		}
		_, inBracket := entrants[id]

		var eliminated bool
		switch {
		case l == LabelGold:
		case l != LabelPoolOnly:
			eliminated = true
		default:
			eliminated = len(b) > 0 && !inBracket
		}

		out[i] = RankedFencer{
			FencerStat: s,
			PoolRank:   i + 1,
			Label:      l,
			Eliminated: eliminated,
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := out[i].Label.Precedence(), out[j].Label.Precedence()
		if pi != pj {
			return pi < pj
		}
		return out[i].PoolRank < out[j].PoolRank
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// ToLiveRanking converts a standing into the cache stored on an event.
func ToLiveRanking(ranked []RankedFencer) []model.LiveRankEntry {
	out := make([]model.LiveRankEntry, len(ranked))
	for i, r := range ranked {
		out[i] = model.LiveRankEntry{
			FencerID:   r.Fencer.ID,
			Rank:       r.Rank,
			Eliminated: r.Eliminated,
		}
	}
	return out
}
