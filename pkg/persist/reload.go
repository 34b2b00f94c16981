package persist

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/dnslogd/dnslogd/pkg/model"
)

// Reload loads the most recent window of persisted rows back into the
// in-memory query log and rebuilds the aggregate statistics, exactly as
// live ingestion would have. Reloaded records carry their on-disk row id
// so the flush engine never rewrites them; the flush cursor ends up past
// everything imported. Runs once, before the background worker starts.
func (s *Service) Reload() error {
	// Nothing is loaded in no-stats privacy mode.
	if s.cfg.PrivacyLevel >= model.PrivacyNoStats {
		return nil
	}

	if err := s.db.Open(); err != nil {
		return fmt.Errorf("reload: %w", err)
	}
	defer s.db.Close()

	now := time.Now().Unix()
	rows, err := s.db.QueriesSince(now - int64(s.cfg.MaxLogAge))
	if err != nil {
		return fmt.Errorf("reload: %w", err)
	}

	opt := validateOpts{
		now:             now,
		analyzeAAAA:     s.cfg.AnalyzeAAAA,
		ignoreLocalhost: s.cfg.IgnoreLocalhost,
	}

	imported := 0
	s.log.Lock()
	for _, r := range rows {
		v := validateRow(r, opt)
		if !v.ok {
			if v.warn {
				log.WithFields(log.Fields{
					"id":     r.ID,
					"reason": v.reason,
				}).Warn("skipping malformed database row")
			} else if s.cfg.Debug {
				log.WithFields(log.Fields{"id": r.ID, "reason": v.reason}).
					Debug("dropping database row")
			}
			continue
		}

		rec := model.QueryRecord{
			Timestamp:  r.Timestamp,
			Type:       model.QueryType(r.Type),
			Status:     model.QueryStatus(r.Status),
			DomainID:   s.log.InternDomain(r.Domain.String),
			ClientID:   s.log.InternClient(r.Client.String),
			ForwardID:  -1,
			StoreRowID: r.ID,
			Complete:   true, // all information is available
		}
		if rec.Status == model.StatusForwarded {
			rec.ForwardID = s.log.InternForward(r.Forward.String, true)
		}
		s.log.Append(rec)
		s.log.Tally(rec)
		imported++
	}
	// Skip everything just imported on the next flush pass.
	s.lastFlushIndex = s.log.Len()
	s.log.Unlock()

	log.WithField("imported", imported).Info("imported queries from the long-term database")
	return nil
}
