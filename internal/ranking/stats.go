package ranking

import "github.com/roach88/piste/internal/model"

// FencerStat is one fencer's aggregate over one pool.
type FencerStat struct {
	Fencer   model.Fencer `json:"fencer"`
	PoolID   string       `json:"pool_id"`
	V        int          `json:"v"`
	Matches  int          `json:"matches"`
	TS       int          `json:"ts"`
	TR       int          `json:"tr"`
	Ind      int          `json:"ind"`
	WinRatio float64      `json:"win_ratio"`

	// beat holds the ids of pool opponents this fencer defeated.
	beat map[string]struct{}
}

// FencerID returns the id of the fencer the stat belongs to.
func (s FencerStat) FencerID() string {
	return s.Fencer.ID
}

// Beat reports whether s defeated other in the pool they shared.
func (s FencerStat) Beat(other FencerStat) bool {
	if s.PoolID == "" || s.PoolID != other.PoolID {
		return false
	}
	_, ok := s.beat[other.Fencer.ID]
	return ok
}

// wellFormed reports whether p's result sheet is n×n for its n fencers.
func wellFormed(p model.Pool) bool {
	n := len(p.FencerIDs)
	if len(p.Results) != n {
		return false
	}
	for _, row := range p.Results {
		if len(row) != n {
			return false
		}
	}
	return true
}

// ComputePoolStats aggregates every pool into one flat list, in pool order
// then seat order. Fencers missing from fencers are skipped, and a pool whose
// result sheet does not match its fencer list contributes nothing.
func ComputePoolStats(pools []model.Pool, fencers map[string]model.Fencer) []FencerStat {
	out := []FencerStat{}
	for _, p := range pools {
		if !wellFormed(p) {
			continue
		}
		n := len(p.FencerIDs)
		for i, id := range p.FencerIDs {
			f, ok := fencers[id]
			if !ok {
				continue
			}
			s := FencerStat{
				Fencer:  f,
				PoolID:  p.ID,
				Matches: n - 1,
				beat:    make(map[string]struct{}),
			}
			for j := 0; j < n; j++ {
				if i == j {
					continue
				}
				if c := p.Results[i][j]; c != nil {
					s.TS += c.Touches
					if c.Victory {
						s.V++
						s.beat[p.FencerIDs[j]] = struct{}{}
					}
				}
				if c := p.Results[j][i]; c != nil {
					s.TR += c.Touches
				}
			}
			s.Ind = s.TS - s.TR
			if s.Matches > 0 {
				s.WinRatio = float64(s.V) / float64(s.Matches)
			}
			out = append(out, s)
		}
	}
	return out
}

// SummarizePool computes the cached per-seat summary of one pool, with
// Place ranked inside the pool by the qualification order.
func SummarizePool(p model.Pool) []model.PoolStat {
	if !wellFormed(p) {
		return []model.PoolStat{}
	}
	fencers := make(map[string]model.Fencer, len(p.FencerIDs))
	for _, id := range p.FencerIDs {
		fencers[id] = model.Fencer{ID: id}
	}
	stats := ComputePoolStats([]model.Pool{p}, fencers)

	place := make(map[string]int, len(stats))
	for i, s := range SortStats(stats) {
		place[s.Fencer.ID] = i + 1
	}

	out := make([]model.PoolStat, len(stats))
	for i, s := range stats {
		out[i] = model.PoolStat{
			FencerID:  s.Fencer.ID,
			Victories: s.V,
			Scored:    s.TS,
			Received:  s.TR,
			Indicator: s.Ind,
			Place:     place[s.Fencer.ID],
		}
	}
	return out
}
