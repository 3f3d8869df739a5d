package model

import "fmt"

// Match is one bout of a direct-elimination bracket. Either slot may be empty
// (a bye, or a slot not decided yet).
type Match struct {
	FencerA string `json:"a,omitempty"`
	FencerB string `json:"b,omitempty"`
	Winner  string `json:"winner,omitempty"`
}

// Loser returns the fencer who lost a decided match. It returns "" when the
// match has no winner, when the winner is not one of the two slots, or when
// the winner advanced on a bye.
func (m Match) Loser() string {
	switch {
	case m.Winner == "":
		return ""
	case m.Winner == m.FencerA:
		return m.FencerB
	case m.Winner == m.FencerB:
		return m.FencerA
	}
	return ""
}

// Decided reports whether the match has a valid winner.
func (m Match) Decided() bool {
	return m.Winner != "" && (m.Winner == m.FencerA || m.Winner == m.FencerB)
}

// Round is an ordered list of matches.
type Round []Match

// Bracket is the persisted elimination tree: Bracket[0] is the first round,
// the last element is the final.
type Bracket []Round

// Validate checks the single-elimination shape: every round has half the
// matches of the previous one, the last round holds a single match, and
// every winner is one of its match's fencers.
func (b Bracket) Validate() error {
	for r, round := range b {
		if len(round) == 0 {
			return fmt.Errorf("round %d has no matches", r)
		}
		if r > 0 && len(round)*2 != len(b[r-1]) {
			return fmt.Errorf("round %d has %d matches, want %d", r, len(round), len(b[r-1])/2)
		}
		for m, match := range round {
			if match.Winner != "" && !match.Decided() {
				return fmt.Errorf("round %d match %d: winner %s is not in the match", r, m, match.Winner)
			}
		}
	}
	if len(b) > 0 && len(b[len(b)-1]) != 1 {
		return fmt.Errorf("final round has %d matches, want 1", len(b[len(b)-1]))
	}
	return nil
}

// RecordWinner sets the winner of one match and advances the fencer into
// the matching slot of the next round. Changing a recorded winner voids
// every later result that depended on the replaced fencer.
func (b Bracket) RecordWinner(round, match int, fencerID string) error {
	if round < 0 || round >= len(b) || match < 0 || match >= len(b[round]) {
		return fmt.Errorf("no match %d in round %d", match, round)
	}
	m := &b[round][match]
	if fencerID != m.FencerA && fencerID != m.FencerB {
		return fmt.Errorf("fencer %s is not in round %d match %d", fencerID, round, match)
	}
	m.Winner = fencerID
	if round+1 < len(b) && *b.feeds(round, match) != fencerID {
		*b.feeds(round, match) = fencerID
		b.clearWinner(round+1, match/2)
	}
	return nil
}

// feeds returns the next-round slot the winner of round/match moves into.
func (b Bracket) feeds(round, match int) *string {
	next := &b[round+1][match/2]
	if match%2 == 0 {
		return &next.FencerA
	}
	return &next.FencerB
}

// clearWinner drops the result of round/match and pulls its winner back out
// of every later round.
func (b Bracket) clearWinner(round, match int) {
	for ; round < len(b); round, match = round+1, match/2 {
		m := &b[round][match]
		if m.Winner == "" {
			return
		}
		m.Winner = ""
		if round+1 < len(b) {
			*b.feeds(round, match) = ""
		}
	}
}

// Participants returns every fencer id present anywhere in the bracket.
func (b Bracket) Participants() map[string]struct{} {
	seen := make(map[string]struct{})
	for _, round := range b {
		for _, m := range round {
			if m.FencerA != "" {
				seen[m.FencerA] = struct{}{}
			}
			if m.FencerB != "" {
				seen[m.FencerB] = struct{}{}
			}
		}
	}
	return seen
}
