package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/dnslogd/dnslogd/pkg/store"
)

// ErrBadVersion is returned when the store reports a schema version below
// 1 after all upgrade attempts; the store stays disabled for the process
// lifetime.
var ErrBadVersion = errors.New("schema version incorrect")

// Init opens the store, creating it from scratch when the file is absent
// or unreadable, and applies any pending schema migrations. On success
// the store is closed again and the enabled flag is armed.
func (d *DB) Init() error {
	if d.cfg.Path == "" {
		log.Info("no database file configured, long-term storage disabled")
		d.enabled.Store(false)
		return nil
	}

	if err := d.Open(); err != nil {
		log.WithField("err", err).Info("creating new (empty) query database")
		if err := d.create(); err != nil {
			d.enabled.Store(false)
			return fmt.Errorf("create database: %w", err)
		}
	}
	// The handle is open from here; every return path below closes it.

	version := d.GetProperty(store.PropVersion)
	log.WithField("version", version).Debug("database schema version")
	if version < 1 {
		d.Close()
		d.enabled.Store(false)
		return ErrBadVersion
	}
	if version < 2 {
		log.Info("upgrading long-term database to version 2")
		if err := d.createCounterTable(); err != nil {
			d.Close()
			d.enabled.Store(false)
			return fmt.Errorf("upgrade to version 2: %w", err)
		}
		version = d.GetProperty(store.PropVersion)
	}
	if version < 3 {
		log.Info("upgrading long-term database to version 3")
		if err := d.createNetworkTable(); err != nil {
			d.Close()
			d.enabled.Store(false)
			return fmt.Errorf("upgrade to version 3: %w", err)
		}
		version = d.GetProperty(store.PropVersion)
	}
	d.Close()

	d.enabled.Store(true)
	log.WithField("version", version).Info("database successfully initialized")
	return nil
}

// create builds a fresh store at the current schema version. On success
// the handle is left open (and locked) for the caller; on failure it is
// closed.
func (d *DB) create() error {
	d.mu.Lock()
	db, err := sql.Open("sqlite3", "file:"+d.cfg.Path+"?mode=rwc")
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
		return fmt.Errorf("open %s for creation: %w", d.cfg.Path, err)
	}
	d.db = db

	// Schema version 1: queries table, timestamp index, props table.
	stmts := []string{
		`CREATE TABLE queries (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			type      INTEGER NOT NULL,
			status    INTEGER NOT NULL,
			domain    TEXT NOT NULL,
			client    TEXT NOT NULL,
			forward   TEXT
		)`,
		// Not a unique index: many queries share a timestamp.
		`CREATE INDEX idx_queries_timestamp ON queries (timestamp)`,
		`CREATE TABLE props (
			id    INTEGER PRIMARY KEY NOT NULL,
			value BLOB NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if err := d.Exec(stmt); err != nil {
			d.Close()
			return err
		}
	}
	if !d.SetProperty(store.PropVersion, 1) {
		d.Close()
		return errors.New("seeding schema version")
	}
	if !d.SetProperty(store.PropLastTimestamp, 0) {
		d.Close()
		return errors.New("seeding last timestamp")
	}

	// Raises the version to 2.
	if err := d.createCounterTable(); err != nil {
		d.Close()
		return err
	}
	// Raises the version to 3.
	if err := d.createNetworkTable(); err != nil {
		d.Close()
		return err
	}
	return nil
}

// createCounterTable is the v1 -> v2 migration: cumulative counters plus
// the first-run timestamp.
func (d *DB) createCounterTable() error {
	err := d.Exec(`CREATE TABLE counters (
		id    INTEGER PRIMARY KEY NOT NULL,
		value INTEGER NOT NULL
	)`)
	if err != nil {
		return err
	}
	if !d.SetCounter(store.CounterTotalQueries, 0) {
		return errors.New("seeding total counter")
	}
	if !d.SetCounter(store.CounterBlockedQueries, 0) {
		return errors.New("seeding blocked counter")
	}
	if !d.SetProperty(store.PropFirstRun, time.Now().Unix()) {
		return errors.New("seeding first-run timestamp")
	}
	if !d.SetProperty(store.PropVersion, 2) {
		return errors.New("raising schema version to 2")
	}
	return nil
}

// createNetworkTable is the v2 -> v3 migration. The table is populated by
// the network/ARP observer, not by this layer.
func (d *DB) createNetworkTable() error {
	err := d.Exec(`CREATE TABLE network (
		id         INTEGER PRIMARY KEY NOT NULL,
		ip         TEXT NOT NULL,
		hwaddr     TEXT NOT NULL,
		interface  TEXT NOT NULL,
		name       TEXT,
		firstSeen  INTEGER NOT NULL,
		lastQuery  INTEGER NOT NULL,
		numQueries INTEGER NOT NULL,
		macVendor  TEXT
	)`)
	if err != nil {
		return err
	}
	if !d.SetProperty(store.PropVersion, 3) {
		return errors.New("raising schema version to 3")
	}
	return nil
}
