// Package ranking turns pool sheets and elimination brackets into standings.
//
// Every function here is pure: it works on records already loaded by the
// repositories and never touches the store. Missing or malformed input
// yields an empty result rather than an error, because the output feeds a
// display that must keep rendering.
//
// The pipeline for one event is:
//
//	stats := ComputePoolStats(pools, fencers)
//	seeds := SelectQualifiers(stats, 0.8)
//	tree  := BuildBracket(seeds)
//	...   // bouts recorded into tree
//	final := ComposeFinalRanking(stats, tree)
package ranking
