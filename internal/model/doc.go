// Package model defines the records persisted by the piste store.
//
// Every collection has one explicit record type:
//   - Tournament: top-level competition, owns events
//   - Event: one weapon/category inside a tournament, caches its live ranking
//     and its direct-elimination bracket
//   - Fencer: a person, optionally identified by a federation licence
//   - EventFencerLink: registration of a fencer into an event
//   - Pool: a round-robin group of one stage of an event
//
// Records are plain values. Repositories own the copies they persist; callers
// never share mutable structure with the store.
package model
