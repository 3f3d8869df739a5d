package model

import (
	"fmt"
	"time"
)

// TournamentStatus is the lifecycle position of a tournament.
type TournamentStatus string

const (
	StatusDraft     TournamentStatus = "draft"
	StatusActive    TournamentStatus = "active"
	StatusCompleted TournamentStatus = "completed"
)

// statusTransitions lists the statuses reachable from each status.
var statusTransitions = map[TournamentStatus][]TournamentStatus{
	StatusDraft:     {StatusActive},
	StatusActive:    {StatusCompleted},
	StatusCompleted: {},
}

// Valid reports whether s is a known status.
func (s TournamentStatus) Valid() bool {
	_, ok := statusTransitions[s]
	return ok
}

// CanTransition reports whether a tournament may move from s to next.
// Staying in the same status is always allowed.
func (s TournamentStatus) CanTransition(next TournamentStatus) bool {
	if s == next {
		return s.Valid()
	}
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Tournament is a competition hosting one or more events.
type Tournament struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Organizer    string           `json:"organizer"`
	Location     string           `json:"location"`
	StartDate    string           `json:"start_date"` // YYYY-MM-DD
	EndDate      string           `json:"end_date"`
	Status       TournamentStatus `json:"status"`
	Synchronized bool             `json:"synchronized"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// Validate checks the fields required before a tournament can be stored.
func (t Tournament) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("tournament name is required")
	}
	if t.Status != "" && !t.Status.Valid() {
		return fmt.Errorf("unknown tournament status %q", t.Status)
	}
	if t.StartDate != "" && t.EndDate != "" && t.EndDate < t.StartDate {
		return fmt.Errorf("end date %s precedes start date %s", t.EndDate, t.StartDate)
	}
	return nil
}
