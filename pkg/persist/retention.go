package persist

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

// Prune deletes persisted rows older than the configured retention
// window and reports how many were removed. It only touches on-disk
// state, so it runs without the query log lock. Completing a prune
// always re-arms the store, making it the recovery point after a prior
// soft-disable.
func (s *Service) Prune() (int64, error) {
	if err := s.db.Open(); err != nil {
		return 0, fmt.Errorf("prune: %w", err)
	}

	cutoff := time.Now().Unix() - int64(s.cfg.RetentionDays)*86400
	deleted, err := s.db.ExecRows(`DELETE FROM queries WHERE timestamp <= ?`, cutoff)
	if err != nil {
		s.db.Close()
		s.db.SetEnabled(true)
		return 0, fmt.Errorf("prune: deleting old queries: %w", err)
	}
	size := s.db.FileSizeMB()
	s.db.Close()
	s.db.SetEnabled(true)

	if deleted > 0 || s.cfg.Debug {
		log.WithFields(log.Fields{
			"deleted": deleted,
			"size_mb": fmt.Sprintf("%.2f", size),
		}).Info("pruned old queries")
	}
	return deleted, nil
}
