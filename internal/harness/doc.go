// Package harness runs ranking scenarios end to end.
//
// A scenario describes a field of fencers, the pool sheets of one stage and
// the bouts of the elimination table. The harness plays it through the real
// store, repositories and ranking service on a fresh in-memory database,
// then checks the result against the scenario's expectations and,
// optionally, a golden snapshot.
//
// # Scenario Format
//
//	name: club_epee
//	description: "Two pools of three, table of eight with byes"
//	rule: standard              # optional, rulebook id
//	cutoff_ratio: 0.8           # optional, used when the rule sets none
//	fencers:
//	  - {id: a, last_name: Arnaud, first_name: Lea}
//	pools:
//	  - id: p1
//	    fencers: [a, b, c]
//	    bouts:
//	      - {left: a, right: b, score: [5, 2]}
//	bracket:
//	  - {round: 0, match: 1, winner: f}
//	expect:
//	  qualifiers: [a, e, d, b, f]
//	  order: [d, a, e, f, b, c]
//	  labels: {d: Gold, a: Silver}
//
// # Golden Files
//
// RunWithGolden compares the standing against
// testdata/golden/<name>.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
