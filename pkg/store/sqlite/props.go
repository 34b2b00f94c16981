package sqlite

import "github.com/dnslogd/dnslogd/pkg/store"

// GetProperty reads an integer property by id. Returns store.NoData when
// the property is absent and store.Failed on error; it never panics or
// propagates past this layer.
func (d *DB) GetProperty(id int) int {
	return d.QueryInt(`SELECT value FROM props WHERE id = ?`, id)
}

// SetProperty upserts a property by id.
func (d *DB) SetProperty(id int, value int64) bool {
	return d.Exec(`INSERT OR REPLACE INTO props (id, value) VALUES (?, ?)`, id, value) == nil
}

// GetCounter reads a cumulative counter by id.
func (d *DB) GetCounter(id int) int {
	return d.QueryInt(`SELECT value FROM counters WHERE id = ?`, id)
}

// SetCounter upserts a counter by id.
func (d *DB) SetCounter(id, value int) bool {
	return d.Exec(`INSERT OR REPLACE INTO counters (id, value) VALUES (?, ?)`, id, value) == nil
}

// IncrementCounters applies both deltas as two update statements. A
// failure of either is reported as false; atomicity across the pair is
// the caller's concern (the flush engine runs inside its transaction
// cycle and simply reports the miss).
func (d *DB) IncrementCounters(total, blocked int) bool {
	if err := d.Exec(`UPDATE counters SET value = value + ? WHERE id = ?`,
		total, store.CounterTotalQueries); err != nil {
		return false
	}
	if err := d.Exec(`UPDATE counters SET value = value + ? WHERE id = ?`,
		blocked, store.CounterBlockedQueries); err != nil {
		return false
	}
	return true
}
