// Package sqlite implements the on-disk query store over SQLite.
//
// A single DB value owns the store handle and a mutual-exclusion lock.
// Every public entry point of the persistence layer pairs Open with a
// deferred Close, so the lock is released on every exit path. SQLite
// supports only one writer, so the handle is limited to one connection.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/mattn/go-sqlite3"
	log "github.com/sirupsen/logrus"

	"github.com/dnslogd/dnslogd/pkg/store"
)

// ErrUnavailable is returned when the store has been disabled after a
// fatal error and operations are expected to no-op.
var ErrUnavailable = errors.New("database not available")

// Config holds configuration for the SQLite store.
type Config struct {
	// Path to the database file. An empty path disables the store.
	Path string

	// Debug logs every executed statement.
	Debug bool
}

// DB is the guarded SQLite store handle.
type DB struct {
	cfg Config

	// mu serializes all store access. It is acquired by Open and held
	// until Close.
	mu sync.Mutex
	db *sql.DB

	// enabled is cleared when a fatal result code is seen; operations
	// no-op until a clean open or schema creation re-arms it.
	enabled atomic.Bool
}

// New creates a DB for the given configuration. Call Init before use.
func New(cfg Config) *DB {
	return &DB{cfg: cfg}
}

// Enabled reports whether the store is currently usable.
func (d *DB) Enabled() bool { return d.enabled.Load() }

// SetEnabled re-arms (or clears) the store flag. The retention collector
// uses this as its recovery point after a prior soft-disable.
func (d *DB) SetEnabled(v bool) { d.enabled.Store(v) }

// checkError inspects a statement error. Busy is transient and left to
// the caller; any other SQLite error disables the store until re-armed.
func (d *DB) checkError(err error) {
	var serr sqlite3.Error
	if errors.As(err, &serr) && serr.Code == sqlite3.ErrBusy {
		return
	}
	log.WithField("err", err).Error("disabling database connection due to error")
	d.enabled.Store(false)
}

// Open acquires the store lock and opens the database file read-write.
// The file is not created implicitly; opening a missing file fails.
func (d *DB) Open() error {
	d.mu.Lock()
	db, err := sql.Open("sqlite3", "file:"+d.cfg.Path+"?mode=rw")
	if err == nil {
		db.SetMaxOpenConns(1)
		err = db.Ping()
	}
	if err != nil {
		if db != nil {
			db.Close()
		}
		d.mu.Unlock()
		d.checkError(err)
		return fmt.Errorf("open %s: %w", d.cfg.Path, err)
	}
	d.db = db
	d.enabled.Store(true)
	return nil
}

// Close releases the store handle and unconditionally releases the lock,
// even when the handle is already gone. Pair every successful Open (or
// create) with exactly one Close.
func (d *DB) Close() {
	if d.db != nil {
		if err := d.db.Close(); err != nil {
			log.WithField("err", err).Warn("closing database")
		}
		d.db = nil
	}
	d.mu.Unlock()
}

// Exec runs a single non-query statement on the open handle.
func (d *DB) Exec(query string, args ...any) error {
	if d.cfg.Debug {
		log.WithField("query", query).Debug("exec")
	}
	if _, err := d.db.Exec(query, args...); err != nil {
		log.WithFields(log.Fields{"query": query, "err": err}).Error("statement failed")
		d.checkError(err)
		return err
	}
	return nil
}

// ExecRows runs a non-query statement and returns the affected row count.
func (d *DB) ExecRows(query string, args ...any) (int64, error) {
	if d.cfg.Debug {
		log.WithField("query", query).Debug("exec")
	}
	res, err := d.db.Exec(query, args...)
	if err != nil {
		log.WithFields(log.Fields{"query": query, "err": err}).Error("statement failed")
		d.checkError(err)
		return 0, err
	}
	return res.RowsAffected()
}

// QueryInt returns a single integer column from a single-row result.
// store.NoData is returned for an empty result set, store.Failed when
// the query could not be run.
func (d *DB) QueryInt(query string, args ...any) int {
	if d.cfg.Debug {
		log.WithField("query", query).Debug("query")
	}
	var v int64
	err := d.db.QueryRow(query, args...).Scan(&v)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return store.NoData
	case err != nil:
		log.WithFields(log.Fields{"query": query, "err": err}).Error("scalar query failed")
		d.checkError(err)
		return store.Failed
	}
	return int(v)
}

// Begin starts a write transaction on the open handle.
func (d *DB) Begin() (*sql.Tx, error) {
	tx, err := d.db.Begin()
	if err != nil {
		d.checkError(err)
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return tx, nil
}

// MaxQueryID returns the largest row id in the queries table, or 0 when
// the table is empty.
func (d *DB) MaxQueryID() int64 {
	var v sql.NullInt64
	if err := d.db.QueryRow(`SELECT MAX(id) FROM queries`).Scan(&v); err != nil {
		log.WithField("err", err).Error("reading max query id")
		d.checkError(err)
		return 0
	}
	if !v.Valid {
		return 0
	}
	return v.Int64
}

// QueryCount returns the number of persisted query rows. Counting over
// the timestamp index is faster than COUNT(*).
func (d *DB) QueryCount() int {
	return d.QueryInt(`SELECT COUNT(timestamp) FROM queries`)
}

// QueriesSince returns all rows with timestamp >= mintime, oldest first.
func (d *DB) QueriesSince(mintime int64) ([]store.Row, error) {
	rows, err := d.db.Query(
		`SELECT id, timestamp, type, status, domain, client, forward
		   FROM queries WHERE timestamp >= ? ORDER BY id`, mintime)
	if err != nil {
		d.checkError(err)
		return nil, fmt.Errorf("query rows: %w", err)
	}
	defer rows.Close()

	var out []store.Row
	for rows.Next() {
		var r store.Row
		if err := rows.Scan(&r.ID, &r.Timestamp, &r.Type, &r.Status,
			&r.Domain, &r.Client, &r.Forward); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		d.checkError(err)
		return nil, err
	}
	return out, nil
}

// FileSizeMB returns the database file size in megabytes, or 0 when the
// file cannot be inspected.
func (d *DB) FileSizeMB() float64 {
	st, err := os.Stat(d.cfg.Path)
	if err != nil {
		return 0
	}
	return 1e-6 * float64(st.Size())
}
