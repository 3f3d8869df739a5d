package model

import (
	"fmt"
	"time"
)

// Score is one cell of a pool sheet: the touches a fencer scored against one
// opponent, and whether that bout was won.
type Score struct {
	Touches int  `json:"touches"`
	Victory bool `json:"victory"`
}

// PoolStat is the cached per-fencer summary of a pool.
type PoolStat struct {
	FencerID  string `json:"fencer_id"`
	Victories int    `json:"v"`
	Scored    int    `json:"ts"`
	Received  int    `json:"tr"`
	Indicator int    `json:"ind"`
	Place     int    `json:"place"`
}

// Pool is one round-robin group of a stage.
//
// Results is indexed by position in FencerIDs: Results[i][j] holds the touches
// FencerIDs[i] scored against FencerIDs[j]. Unfenced bouts and the diagonal
// are nil.
type Pool struct {
	ID        string     `json:"id"`
	EventID   string     `json:"event_id"`
	StageID   string     `json:"stage_id"`
	Number    int        `json:"number"`
	FencerIDs []string   `json:"fencer_ids"`
	Results   [][]*Score `json:"results"`
	Stats     []PoolStat `json:"stats,omitempty"`
	Locked    bool       `json:"locked"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// NewResults returns an empty n×n result matrix.
func NewResults(n int) [][]*Score {
	results := make([][]*Score, n)
	for i := range results {
		results[i] = make([]*Score, n)
	}
	return results
}

// SetBout records one bout between positions i and j.
func (p *Pool) SetBout(i, j, touchesI, touchesJ int) error {
	n := len(p.FencerIDs)
	if i < 0 || j < 0 || i >= n || j >= n || i == j {
		return fmt.Errorf("bout %d-%d out of range for pool of %d", i, j, n)
	}
	if touchesI == touchesJ {
		return fmt.Errorf("bout %d-%d cannot end level at %d", i, j, touchesI)
	}
	if len(p.Results) != n {
		p.Results = NewResults(n)
	}
	p.Results[i][j] = &Score{Touches: touchesI, Victory: touchesI > touchesJ}
	p.Results[j][i] = &Score{Touches: touchesJ, Victory: touchesJ > touchesI}
	return nil
}

// Validate checks the pool shape.
func (p Pool) Validate() error {
	if p.EventID == "" {
		return fmt.Errorf("pool event id is required")
	}
	if p.StageID == "" {
		return fmt.Errorf("pool stage id is required")
	}
	seen := make(map[string]struct{}, len(p.FencerIDs))
	for _, id := range p.FencerIDs {
		if _, dup := seen[id]; dup {
			return fmt.Errorf("fencer %s appears twice in pool %d", id, p.Number)
		}
		seen[id] = struct{}{}
	}
	if p.Results != nil && len(p.Results) != len(p.FencerIDs) {
		return fmt.Errorf("pool %d has %d result rows for %d fencers", p.Number, len(p.Results), len(p.FencerIDs))
	}
	return nil
}
