// Package persist reconciles the in-memory query log with the on-disk
// store: incremental batch flushing, retention-based garbage collection,
// bulk reload of recent history at startup, and the background worker
// driving all of it.
package persist

import (
	"sync/atomic"

	"github.com/dnslogd/dnslogd/pkg/config"
	"github.com/dnslogd/dnslogd/pkg/qlog"
	"github.com/dnslogd/dnslogd/pkg/store/sqlite"
)

// Service owns the persistence state: the flush cursor, the pending-GC
// signal and the handles to the store and the shared query log. It is
// driven by a single background worker (Run); Flush, Prune and Reload
// are also callable directly for one-shot operation.
type Service struct {
	db  *sqlite.DB
	log *qlog.Log
	cfg config.Config

	// lastFlushIndex marks the first log record not yet considered for
	// persistence. It only advances past a contiguous prefix that was
	// fully written in one transaction. Touched only by the worker
	// goroutine (and by Reload before the worker starts).
	lastFlushIndex int

	// pruneRequested is the external GC signal; the worker clears it
	// when it runs the retention collector.
	pruneRequested atomic.Bool
}

// New creates a persistence service over the given store and query log.
func New(db *sqlite.DB, l *qlog.Log, cfg config.Config) *Service {
	return &Service{db: db, log: l, cfg: cfg}
}

// RequestPrune signals the worker to run the retention collector on its
// next cycle.
func (s *Service) RequestPrune() { s.pruneRequested.Store(true) }

// Cursor returns the current flush cursor.
func (s *Service) Cursor() int { return s.lastFlushIndex }
