package persist

import (
	"database/sql"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/dnslogd/dnslogd/pkg/model"
	"github.com/dnslogd/dnslogd/pkg/store"
)

// rowErrorLimit aborts a batch early once this many row-level insert
// errors have accumulated.
const rowErrorLimit = 3

// deferWindow gives brand-new incomplete records this long to finish
// before they are considered for persistence.
const deferWindow = 2 // seconds

// pendingRow is one eligible record snapshotted from the query log while
// the log lock was held, carrying everything needed to bind the insert
// without touching shared memory again.
type pendingRow struct {
	idx       int // index into the query log
	timestamp int64
	qtype     model.QueryType
	status    model.QueryStatus
	domain    string
	client    string
	forward   sql.NullString
}

// FlushResult reports the outcome of one flush pass.
type FlushResult struct {
	// Saved is the number of rows newly persisted.
	Saved int
	// Failed is the number of row-level insert errors.
	Failed int
}

// Flush scans the query log from the flush cursor, persists eligible
// records in a single transaction and advances the cursor. The log lock
// is held only while shared memory is touched: once for the eligibility
// scan, once to mark persisted records. Disk I/O, including the commit,
// runs unlocked so the collector is never stalled on the store.
func (s *Service) Flush() (FlushResult, error) {
	var res FlushResult

	// Never persist anything in no-stats privacy mode.
	if s.cfg.PrivacyLevel >= model.PrivacyNoStats {
		return res, nil
	}

	start := time.Now()
	if err := s.db.Open(); err != nil {
		return res, fmt.Errorf("flush: %w", err)
	}
	defer s.db.Close()

	// Id-assignment base, kept for observability.
	lastID := s.db.MaxQueryID()

	now := time.Now().Unix()

	// Phase 1: eligibility scan under the log lock.
	s.log.Lock()
	var pending []pendingRow
	from := s.lastFlushIndex
	if from < 0 {
		from = 0
	}
	endIdx := s.log.Len()
	for i := from; i < s.log.Len(); i++ {
		q := s.log.Record(i)
		if q.StoreRowID != 0 {
			// Already saved in the database.
			continue
		}
		if !q.Complete && q.Timestamp > now-deferWindow {
			// A brand new query is not yet completed; stop here and give
			// it a chance to be stored next cycle.
			endIdx = i
			break
		}
		if q.PrivacyLevel >= model.PrivacyMaximum {
			// Never stored nor counted.
			continue
		}
		p := pendingRow{
			idx:       i,
			timestamp: q.Timestamp,
			qtype:     q.Type,
			status:    q.Status,
			domain:    s.log.DomainName(q.DomainID),
			client:    s.log.ClientAddr(q.ClientID),
		}
		if q.Status == model.StatusForwarded && q.ForwardID > -1 {
			p.forward = sql.NullString{String: s.log.ForwardDest(q.ForwardID), Valid: true}
		}
		pending = append(pending, p)
	}
	s.log.Unlock()

	// Phase 2: write transaction, no shared state touched.
	tx, err := s.db.Begin()
	if err != nil {
		return res, fmt.Errorf("flush: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO queries VALUES (NULL, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return res, fmt.Errorf("flush: prepare insert: %w", err)
	}

	rowIDs := make(map[int]int64, len(pending))
	var total, blocked int
	var newLastTimestamp int64
	for _, p := range pending {
		r, err := stmt.Exec(p.timestamp, int(p.qtype), int(p.status), p.domain, p.client, p.forward)
		if err != nil {
			log.WithFields(log.Fields{"err": err, "domain": p.domain}).Warn("storing query failed")
			res.Failed++
			if res.Failed >= rowErrorLimit {
				log.Warn("aborting batch due to too many row errors")
				break
			}
			continue
		}
		id, err := r.LastInsertId()
		if err != nil {
			log.WithField("err", err).Warn("reading assigned row id")
			res.Failed++
			if res.Failed >= rowErrorLimit {
				break
			}
			continue
		}
		rowIDs[p.idx] = id
		res.Saved++
		total++
		if p.status.Blocked() {
			blocked++
		}
		if p.timestamp > newLastTimestamp {
			newLastTimestamp = p.timestamp
		}
	}
	stmt.Close()
	if err := tx.Commit(); err != nil {
		// Nothing was persisted; leave the cursor and records untouched
		// so the whole batch is retried next cycle.
		return res, fmt.Errorf("flush: commit: %w", err)
	}

	// Phase 3: mark persisted records and advance the cursor, again
	// under the log lock.
	s.log.Lock()
	for idx, id := range rowIDs {
		s.log.Record(idx).StoreRowID = id
	}
	if res.Saved > 0 && res.Failed == 0 {
		s.lastFlushIndex = endIdx
	}
	s.log.Unlock()

	if res.Saved > 0 && res.Failed == 0 {
		s.db.SetProperty(store.PropLastTimestamp, newLastTimestamp)
	}
	if res.Saved > 0 {
		if !s.db.IncrementCounters(total, blocked) {
			return res, fmt.Errorf("flush: updating counters failed")
		}
	}

	if s.cfg.Debug {
		log.WithFields(log.Fields{
			"saved":   res.Saved,
			"failed":  res.Failed,
			"took":    time.Since(start),
			"last_id": lastID,
		}).Debug("queries stored")
	}
	return res, nil
}
