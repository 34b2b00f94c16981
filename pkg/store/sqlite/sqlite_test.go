package sqlite

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dnslogd/dnslogd/pkg/store"
)

func newInitializedDB(t *testing.T) *DB {
	t.Helper()
	db := New(Config{Path: filepath.Join(t.TempDir(), "queries.db")})
	require.NoError(t, db.Init())
	return db
}

func TestInitCreatesFreshStore(t *testing.T) {
	db := newInitializedDB(t)
	require.True(t, db.Enabled())

	require.NoError(t, db.Open())
	defer db.Close()

	assert.Equal(t, store.SchemaVersion, db.GetProperty(store.PropVersion))
	assert.Equal(t, 0, db.GetProperty(store.PropLastTimestamp))
	assert.Greater(t, db.GetProperty(store.PropFirstRun), 0)

	// Counters seeded to zero.
	assert.Equal(t, 0, db.GetCounter(store.CounterTotalQueries))
	assert.Equal(t, 0, db.GetCounter(store.CounterBlockedQueries))

	// Queries and network tables exist and are empty.
	assert.Equal(t, 0, db.QueryCount())
	assert.Equal(t, 0, db.QueryInt(`SELECT COUNT(*) FROM network`))
}

func TestInitMigratesV1ToV3(t *testing.T) {
	path := filepath.Join(t.TempDir(), "v1.db")

	// Build a version 1 store by hand: queries + props only.
	raw, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	for _, stmt := range []string{
		`CREATE TABLE queries (
			id INTEGER PRIMARY KEY AUTOINCREMENT, timestamp INTEGER NOT NULL,
			type INTEGER NOT NULL, status INTEGER NOT NULL,
			domain TEXT NOT NULL, client TEXT NOT NULL, forward TEXT)`,
		`CREATE INDEX idx_queries_timestamp ON queries (timestamp)`,
		`CREATE TABLE props (id INTEGER PRIMARY KEY NOT NULL, value BLOB NOT NULL)`,
		`INSERT INTO props (id, value) VALUES (0, 1)`,
		`INSERT INTO props (id, value) VALUES (1, 0)`,
	} {
		_, err := raw.Exec(stmt)
		require.NoError(t, err)
	}
	require.NoError(t, raw.Close())

	db := New(Config{Path: path})
	require.NoError(t, db.Init())
	require.True(t, db.Enabled())

	require.NoError(t, db.Open())
	defer db.Close()

	assert.Equal(t, 3, db.GetProperty(store.PropVersion))
	assert.Equal(t, 0, db.GetCounter(store.CounterTotalQueries))
	assert.Equal(t, 0, db.GetCounter(store.CounterBlockedQueries))
	assert.Greater(t, db.GetProperty(store.PropFirstRun), 0)
	assert.Equal(t, 0, db.QueryInt(`SELECT COUNT(*) FROM network`))
}

func TestInitIsIdempotentAtCurrentVersion(t *testing.T) {
	db := newInitializedDB(t)

	require.NoError(t, db.Open())
	require.True(t, db.SetCounter(store.CounterTotalQueries, 42))
	db.Close()

	// A second Init must not touch existing data.
	require.NoError(t, db.Init())

	require.NoError(t, db.Open())
	defer db.Close()
	assert.Equal(t, 3, db.GetProperty(store.PropVersion))
	assert.Equal(t, 42, db.GetCounter(store.CounterTotalQueries))
}

func TestInitRejectsBadVersion(t *testing.T) {
	db := newInitializedDB(t)

	require.NoError(t, db.Open())
	require.True(t, db.SetProperty(store.PropVersion, 0))
	db.Close()

	err := db.Init()
	require.ErrorIs(t, err, ErrBadVersion)
	assert.False(t, db.Enabled())
}

func TestInitWithoutPathDisables(t *testing.T) {
	db := New(Config{})
	require.NoError(t, db.Init())
	assert.False(t, db.Enabled())
}

func TestOpenMissingFileFails(t *testing.T) {
	db := New(Config{Path: filepath.Join(t.TempDir(), "missing.db")})
	require.Error(t, db.Open())
}

func TestQueryIntSentinels(t *testing.T) {
	db := newInitializedDB(t)

	require.NoError(t, db.Open())
	defer db.Close()

	// Absent property: no row in the result set.
	assert.Equal(t, store.NoData, db.GetProperty(999))
	// Broken statement: failure sentinel, store disabled.
	assert.Equal(t, store.Failed, db.QueryInt(`SELECT value FROM no_such_table`))
	assert.False(t, db.Enabled())
}

func TestSetAndGetProperty(t *testing.T) {
	db := newInitializedDB(t)

	require.NoError(t, db.Open())
	defer db.Close()

	require.True(t, db.SetProperty(store.PropLastTimestamp, 1700000000))
	assert.Equal(t, 1700000000, db.GetProperty(store.PropLastTimestamp))
}

func TestIncrementCounters(t *testing.T) {
	db := newInitializedDB(t)

	require.NoError(t, db.Open())
	defer db.Close()

	require.True(t, db.IncrementCounters(10, 3))
	require.True(t, db.IncrementCounters(5, 0))
	assert.Equal(t, 15, db.GetCounter(store.CounterTotalQueries))
	assert.Equal(t, 3, db.GetCounter(store.CounterBlockedQueries))
}

func TestMaxQueryIDEmptyTable(t *testing.T) {
	db := newInitializedDB(t)

	require.NoError(t, db.Open())
	defer db.Close()

	assert.Equal(t, int64(0), db.MaxQueryID())
}
