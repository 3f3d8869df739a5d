package model

import "time"

// EventFencerLink registers a fencer into an event.
// The pair (EventID, FencerID) is unique.
type EventFencerLink struct {
	EventID      string    `json:"event_id"`
	FencerID     string    `json:"fencer_id"`
	Seed         int       `json:"seed,omitempty"`
	RegisteredAt time.Time `json:"registered_at"`
}
