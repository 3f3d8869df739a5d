package store

import (
	"fmt"
	"strings"
)

// Collection names one record collection.
type Collection string

const (
	Tournaments  Collection = "tournaments"
	Events       Collection = "events"
	Fencers      Collection = "fencers"
	EventFencers Collection = "event_fencers"
	Pools        Collection = "pools"
)

// Index names.
const (
	IndexByTournament = "by_tournament"
	IndexByName       = "by_name"
	IndexByFencingID  = "by_fencing_id"
	IndexByEvent      = "by_event"
	IndexByStage      = "by_stage"
)

// Index is a non-unique secondary index over one or more columns.
type Index struct {
	Name    string
	Columns []string
}

// CollectionDef describes the storage shape of one collection. Each record is
// stored as a JSON document next to the columns its key and indexes need.
type CollectionDef struct {
	Name    Collection
	Key     []string
	Indexes []Index
}

// columns returns key columns followed by index columns, without duplicates.
func (d CollectionDef) columns() []string {
	seen := make(map[string]bool)
	var cols []string
	add := func(c string) {
		if !seen[c] {
			seen[c] = true
			cols = append(cols, c)
		}
	}
	for _, c := range d.Key {
		add(c)
	}
	for _, idx := range d.Indexes {
		for _, c := range idx.Columns {
			add(c)
		}
	}
	return cols
}

func (d CollectionDef) index(name string) (Index, bool) {
	for _, idx := range d.Indexes {
		if idx.Name == name {
			return idx, true
		}
	}
	return Index{}, false
}

func (d CollectionDef) isKey(col string) bool {
	for _, k := range d.Key {
		if k == col {
			return true
		}
	}
	return false
}

// statements returns the DDL creating the collection. Every statement is
// guarded with IF NOT EXISTS so a step can be re-run after a crash.
func (d CollectionDef) statements() []string {
	var cols []string
	for _, c := range d.columns() {
		if d.isKey(c) {
			cols = append(cols, fmt.Sprintf("%s TEXT NOT NULL", c))
		} else {
			cols = append(cols, fmt.Sprintf("%s TEXT NOT NULL DEFAULT ''", c))
		}
	}
	cols = append(cols, "data TEXT NOT NULL")
	cols = append(cols, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(d.Key, ", ")))

	stmts := []string{
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", d.Name, strings.Join(cols, ",\n\t")),
	}
	for _, idx := range d.Indexes {
		stmts = append(stmts, fmt.Sprintf(
			"CREATE INDEX IF NOT EXISTS idx_%s_%s ON %s (%s)",
			d.Name, idx.Name, d.Name, strings.Join(idx.Columns, ", "),
		))
	}
	return stmts
}

// Migration is one schema version step. It declares the collections it
// introduces; the driver turns them into idempotent DDL.
type Migration struct {
	Version     int
	Name        string
	Collections []CollectionDef
}

// Statements returns the DDL for the step, in order.
func (m Migration) Statements() []string {
	var stmts []string
	for _, c := range m.Collections {
		stmts = append(stmts, c.statements()...)
	}
	return stmts
}

// Migrations is the ordered schema history. Append new steps; never edit or
// reorder existing ones.
var Migrations = []Migration{
	{
		Version: 1,
		Name:    "create tournaments",
		Collections: []CollectionDef{
			{Name: Tournaments, Key: []string{"id"}},
		},
	},
	{
		Version: 2,
		Name:    "create events",
		Collections: []CollectionDef{
			{
				Name: Events,
				Key:  []string{"id"},
				Indexes: []Index{
					{Name: IndexByTournament, Columns: []string{"tournament_id"}},
				},
			},
		},
	},
	{
		Version: 3,
		Name:    "create fencers",
		Collections: []CollectionDef{
			{
				Name: Fencers,
				Key:  []string{"id"},
				Indexes: []Index{
					{Name: IndexByName, Columns: []string{"last_name", "first_name"}},
					{Name: IndexByFencingID, Columns: []string{"fencing_id"}},
				},
			},
		},
	},
	{
		Version: 4,
		Name:    "create event fencer links",
		Collections: []CollectionDef{
			{
				Name: EventFencers,
				Key:  []string{"event_id", "fencer_id"},
				Indexes: []Index{
					{Name: IndexByEvent, Columns: []string{"event_id"}},
				},
			},
		},
	},
	{
		Version: 5,
		Name:    "create pools",
		Collections: []CollectionDef{
			{
				Name: Pools,
				Key:  []string{"id"},
				Indexes: []Index{
					{Name: IndexByEvent, Columns: []string{"event_id"}},
					{Name: IndexByStage, Columns: []string{"stage_id"}},
				},
			},
		},
	},
}

// CurrentVersion is the schema version a freshly opened store reaches.
func CurrentVersion() int {
	return latestVersion(Migrations)
}

func latestVersion(ms []Migration) int {
	v := 0
	for _, m := range ms {
		if m.Version > v {
			v = m.Version
		}
	}
	return v
}

// catalog maps collection names to their definitions across all steps.
func catalog(ms []Migration) map[Collection]CollectionDef {
	defs := make(map[Collection]CollectionDef)
	for _, m := range ms {
		for _, c := range m.Collections {
			defs[c.Name] = c
		}
	}
	return defs
}
