package model

import (
	"fmt"
	"time"
)

// Nature distinguishes individual events from team events.
type Nature string

const (
	NatureIndividual Nature = "individual"
	NatureTeam       Nature = "team"
)

// LiveRankEntry is one line of an event's cached standing.
type LiveRankEntry struct {
	FencerID   string `json:"fencer_id"`
	Rank       int    `json:"rank"`
	Eliminated bool   `json:"eliminated"`
}

// Event is one competition (weapon and category) inside a tournament.
//
// FencerCount is derived from the event's registrations and is maintained by
// the registration repository in the same transaction as the link write.
// LiveRanking and DETree are caches owned by the ranking service.
type Event struct {
	ID           string          `json:"id"`
	TournamentID string          `json:"tournament_id"`
	Name         string          `json:"name"`
	Weapon       string          `json:"weapon"`
	Category     string          `json:"category"`
	RuleID       string          `json:"rule_id"`
	Nature       Nature          `json:"nature"`
	StartTime    time.Time       `json:"start_time"`
	FencerCount  int             `json:"fencer_count"`
	CurrentStep  int             `json:"current_step"`
	LiveRanking  []LiveRankEntry `json:"live_ranking,omitempty"`
	DETree       Bracket         `json:"de_tree,omitempty"`
	Synchronized bool            `json:"synchronized"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Validate checks the fields required before an event can be stored.
func (e Event) Validate() error {
	if e.TournamentID == "" {
		return fmt.Errorf("event tournament id is required")
	}
	switch e.Nature {
	case "", NatureIndividual, NatureTeam:
	default:
		return fmt.Errorf("unknown event nature %q", e.Nature)
	}
	if e.CurrentStep < 0 {
		return fmt.Errorf("current step must not be negative")
	}
	if len(e.DETree) > 0 {
		if err := e.DETree.Validate(); err != nil {
			return fmt.Errorf("de tree: %w", err)
		}
	}
	return nil
}
