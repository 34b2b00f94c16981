// Package store defines the on-disk schema protocol shared by the SQLite
// implementation and its consumers: schema version, property and counter
// ids, scalar-query sentinels and the persisted row shape.
package store

import "database/sql"

// SchemaVersion is the current on-disk schema version. Older stores are
// migrated up one step at a time; see the sqlite package.
const SchemaVersion = 3

// Sentinel values returned by scalar queries, kept negative so they can
// never collide with a real stored value.
const (
	// Failed indicates the query could not be executed.
	Failed = -1
	// NoData indicates the query ran but returned no row.
	NoData = -2
)

// Property ids in the props table.
const (
	PropVersion = iota
	PropLastTimestamp
	PropFirstRun
)

// Counter ids in the counters table.
const (
	CounterTotalQueries = iota
	CounterBlockedQueries
)

// Row is one persisted query row as read back from the store. Domain,
// client and forward are nullable at this layer; validation happens in
// the reload engine.
type Row struct {
	ID        int64
	Timestamp int64
	Type      int
	Status    int
	Domain    sql.NullString
	Client    sql.NullString
	Forward   sql.NullString
}
