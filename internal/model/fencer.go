package model

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Fencer is a person who can be registered into events.
//
// FencingID is the federation licence number. When present it identifies the
// fencer across imports and takes precedence over a client-generated ID.
type Fencer struct {
	ID           string    `json:"id"`
	LastName     string    `json:"last_name"`
	FirstName    string    `json:"first_name"`
	FencingID    string    `json:"fencing_id,omitempty"`
	Club         string    `json:"club,omitempty"`
	Nationality  string    `json:"nationality,omitempty"` // ISO 3166-1 alpha-3
	BirthDate    string    `json:"birth_date,omitempty"`
	DisplayName  string    `json:"display_name"`
	Synchronized bool      `json:"synchronized"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NormalizeName trims s and converts it to Unicode NFC so that the same name
// typed on different devices compares and indexes identically.
func NormalizeName(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// ComposeDisplayName joins surname and given name the way score sheets print
// them: surname in capitals first.
func ComposeDisplayName(lastName, firstName string) string {
	// Casers keep state, so one is built per call.
	last := cases.Upper(language.Und).String(NormalizeName(lastName))
	first := NormalizeName(firstName)
	switch {
	case last == "":
		return first
	case first == "":
		return last
	}
	return last + " " + first
}

// Normalize returns a copy of f with normalized names and a fresh display name.
func (f Fencer) Normalize() Fencer {
	f.LastName = NormalizeName(f.LastName)
	f.FirstName = NormalizeName(f.FirstName)
	f.FencingID = strings.TrimSpace(f.FencingID)
	f.Nationality = strings.ToUpper(strings.TrimSpace(f.Nationality))
	f.DisplayName = ComposeDisplayName(f.LastName, f.FirstName)
	return f
}

// Validate checks the fields required before a fencer can be stored.
func (f Fencer) Validate() error {
	if NormalizeName(f.LastName) == "" && NormalizeName(f.FirstName) == "" {
		return fmt.Errorf("fencer name is required")
	}
	if n := strings.TrimSpace(f.Nationality); n != "" && len(n) != 3 {
		return fmt.Errorf("nationality %q is not a three-letter code", n)
	}
	return nil
}
