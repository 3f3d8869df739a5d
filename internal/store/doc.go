// Package store provides the schema-versioned local record store.
//
// The store is a set of independent collections (tournaments, events,
// fencers, event fencer links, pools). Every record is a JSON document kept
// next to the columns its primary key and secondary indexes need.
//
// # Schema Evolution
//
// Migrations is a declarative, ordered list of version steps. Each step names
// the collections and indexes it introduces. On open, every step above the
// file's PRAGMA user_version is applied exactly once, in ascending order, in
// its own transaction. All DDL is IF NOT EXISTS so a step interrupted by a
// crash can be re-run.
//
// # Transactions
//
// RunTransaction scopes a transaction to a list of collections. Either every
// write inside it becomes visible or none does. DeleteByIndex removes every
// record matching an index inside the same transaction as its neighbouring
// writes.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - One open connection: the single logical writer
package store
