package persist

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

// pollInterval is the coarse scheduling granularity of the worker.
const pollInterval = 100 * time.Millisecond

// Run drives the flush engine and the retention collector from a single
// background worker until the context is cancelled. Flushes happen at
// most once per configured interval, aligned to interval boundaries; a
// pending prune request is serviced right after the flush slot.
func (s *Service) Run(ctx context.Context) {
	interval := int64(s.cfg.FlushInterval)
	if interval <= 0 {
		interval = 60
	}

	// Do not store immediately on startup; align to the next boundary.
	now := time.Now().Unix()
	lastSave := now - now%interval

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		now = time.Now().Unix()
		if now-lastSave < interval {
			continue
		}
		lastSave = now - now%interval

		if s.db.Enabled() {
			if _, err := s.Flush(); err != nil {
				log.WithField("err", err).Warn("flushing queries to database")
			}
		} else if s.cfg.Debug {
			log.Debug("database disabled, skipping flush")
		}

		if s.pruneRequested.CompareAndSwap(true, false) {
			if _, err := s.Prune(); err != nil {
				log.WithField("err", err).Warn("pruning old queries")
			}
		}
	}
}
