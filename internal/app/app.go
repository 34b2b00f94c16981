// Package app provides application-level orchestration for dnslogd.
package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/dnslogd/dnslogd/pkg/config"
	"github.com/dnslogd/dnslogd/pkg/persist"
	"github.com/dnslogd/dnslogd/pkg/qlog"
	"github.com/dnslogd/dnslogd/pkg/store/sqlite"
)

// App wires the query log, the store and the persistence service.
type App struct {
	cfg config.Config

	DB      *sqlite.DB
	Log     *qlog.Log
	Service *persist.Service
}

// New builds an App from configuration.
func New(cfg config.Config) *App {
	l := qlog.New()
	db := sqlite.New(sqlite.Config{Path: cfg.DBFile, Debug: cfg.Debug})
	return &App{
		cfg:     cfg,
		DB:      db,
		Log:     l,
		Service: persist.New(db, l, cfg),
	}
}

// Run initializes the store, reloads recent history into memory and then
// drives the background worker until the context is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a.cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	if err := a.DB.Init(); err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	if !a.DB.Enabled() {
		return sqlite.ErrUnavailable
	}

	if err := a.Service.Reload(); err != nil {
		// A failed reload leaves the in-memory log empty but does not
		// prevent new queries from being persisted.
		log.WithField("err", err).Warn("reloading recent history failed")
	}

	a.Service.Run(ctx)
	return nil
}
