package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Snapshot is the golden form of a scenario run. Ratios are rendered with
// three decimals so the file does not depend on float formatting.
type Snapshot struct {
	Scenario   string         `json:"scenario"`
	Qualifiers []string       `json:"qualifiers"`
	Standings  []SnapshotLine `json:"standings"`
}

// SnapshotLine is one line of a snapshot standing.
type SnapshotLine struct {
	Rank       int    `json:"rank"`
	Fencer     string `json:"fencer"`
	Label      string `json:"label"`
	PoolRank   int    `json:"pool_rank"`
	V          int    `json:"v"`
	TS         int    `json:"ts"`
	TR         int    `json:"tr"`
	Ind        int    `json:"ind"`
	WinRatio   string `json:"win_ratio"`
	Eliminated bool   `json:"eliminated"`
}

// NewSnapshot builds the golden form of r.
func NewSnapshot(name string, r *Result) Snapshot {
	s := Snapshot{
		Scenario:   name,
		Qualifiers: make([]string, len(r.Qualifiers)),
		Standings:  make([]SnapshotLine, len(r.Standings)),
	}
	for i, q := range r.Qualifiers {
		s.Qualifiers[i] = q.Fencer.ID
	}
	for i, l := range r.Standings {
		s.Standings[i] = SnapshotLine{
			Rank:       l.Rank,
			Fencer:     l.Fencer.ID,
			Label:      string(l.Label),
			PoolRank:   l.PoolRank,
			V:          l.V,
			TS:         l.TS,
			TR:         l.TR,
			Ind:        l.Ind,
			WinRatio:   fmt.Sprintf("%.3f", l.WinRatio),
			Eliminated: l.Eliminated,
		}
	}
	return s
}

// Marshal renders the snapshot as indented JSON with a trailing newline.
func (s Snapshot) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// RunWithGolden runs a scenario and compares its standing against the
// golden file testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if the scenario cannot be played. Unmet expectations and
// golden mismatches fail t.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario)
	if err != nil {
		return nil, err
	}
	for _, e := range result.Errors {
		t.Errorf("%s: %s", scenario.Name, e)
	}

	data, err := NewSnapshot(scenario.Name, result).Marshal()
	if err != nil {
		return nil, err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, data)

	return result, nil
}
