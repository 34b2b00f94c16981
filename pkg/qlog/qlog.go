// Package qlog holds the in-memory query log shared between the
// collection pipeline and the persistence layer: an append-only sequence
// of records, interning tables for domain/client/upstream strings, and
// the aggregate counters rebuilt on reload.
package qlog

import (
	"sync"

	"github.com/dnslogd/dnslogd/pkg/model"
)

// BucketInterval is the width of one over-time statistics bucket.
const BucketInterval = 600 // seconds

// Counters holds the global aggregate counters.
type Counters struct {
	Queries   int
	Unknown   int
	Blocked   int
	Forwarded int
	Cached    int

	// Per query type, indexed by model.QueryType-1.
	QueryType [model.TypeMax - 1]int
}

// Bucket holds per-interval aggregates for the over-time view.
type Bucket struct {
	Total     int
	Blocked   int
	Forwarded int
	Cached    int

	QueryType [model.TypeMax - 1]int
}

type domainEntry struct {
	name    string
	count   int
	blocked int
}

type clientEntry struct {
	addr      string
	count     int
	blocked   int
	lastQuery int64
	overTime  map[int64]int
}

type forwardEntry struct {
	dest  string
	count int
}

// Log is the shared in-memory query log. The collection pipeline appends
// to it at high rate; the persistence layer scans it under the same lock.
//
// All methods except Lock, Unlock and Push require the caller to hold the
// log lock.
type Log struct {
	mu sync.Mutex

	records []model.QueryRecord

	domains    []domainEntry
	clients    []clientEntry
	forwards   []forwardEntry
	domainIDs  map[string]int
	clientIDs  map[string]int
	forwardIDs map[string]int

	counters Counters
	overTime map[int64]*Bucket
}

// New returns an empty query log.
func New() *Log {
	return &Log{
		domainIDs:  make(map[string]int),
		clientIDs:  make(map[string]int),
		forwardIDs: make(map[string]int),
		overTime:   make(map[int64]*Bucket),
	}
}

// Lock acquires the shared log lock.
func (l *Log) Lock() { l.mu.Lock() }

// Unlock releases the shared log lock.
func (l *Log) Unlock() { l.mu.Unlock() }

// Len returns the number of records in the log.
func (l *Log) Len() int { return len(l.records) }

// Record returns a pointer to record i. The pointer is only valid while
// the lock is held.
func (l *Log) Record(i int) *model.QueryRecord { return &l.records[i] }

// DomainName resolves a domain id back to its text.
func (l *Log) DomainName(id int) string {
	if id < 0 || id >= len(l.domains) {
		return ""
	}
	return l.domains[id].name
}

// ClientAddr resolves a client id back to its address text.
func (l *Log) ClientAddr(id int) string {
	if id < 0 || id >= len(l.clients) {
		return ""
	}
	return l.clients[id].addr
}

// ForwardDest resolves an upstream forwarding-target id back to its text.
func (l *Log) ForwardDest(id int) string {
	if id < 0 || id >= len(l.forwards) {
		return ""
	}
	return l.forwards[id].dest
}

// InternDomain returns the stable id for a domain, creating it if new.
func (l *Log) InternDomain(name string) int {
	if id, ok := l.domainIDs[name]; ok {
		return id
	}
	id := len(l.domains)
	l.domains = append(l.domains, domainEntry{name: name})
	l.domainIDs[name] = id
	return id
}

// InternClient returns the stable id for a client address, creating it if new.
func (l *Log) InternClient(addr string) int {
	if id, ok := l.clientIDs[addr]; ok {
		return id
	}
	id := len(l.clients)
	l.clients = append(l.clients, clientEntry{addr: addr, overTime: make(map[int64]int)})
	l.clientIDs[addr] = id
	return id
}

// InternForward returns the stable id for an upstream destination.
// Returns -1 when the destination is unknown and create is false.
func (l *Log) InternForward(dest string, create bool) int {
	if id, ok := l.forwardIDs[dest]; ok {
		return id
	}
	if !create {
		return -1
	}
	id := len(l.forwards)
	l.forwards = append(l.forwards, forwardEntry{dest: dest})
	l.forwardIDs[dest] = id
	return id
}

// Append adds a record to the log and returns its index. It does not
// update aggregates; pair with Tally for records that should be counted.
func (l *Log) Append(rec model.QueryRecord) int {
	l.records = append(l.records, rec)
	return len(l.records) - 1
}

// BucketFor returns the over-time bucket start for a timestamp.
func BucketFor(ts int64) int64 {
	return ts - ts%BucketInterval
}

// Tally applies a record to the aggregate counters, the over-time buckets
// and the per-domain/per-client statistics, the same way live ingestion
// does.
func (l *Log) Tally(rec model.QueryRecord) {
	slot := BucketFor(rec.Timestamp)
	b := l.overTime[slot]
	if b == nil {
		b = &Bucket{}
		l.overTime[slot] = b
	}

	l.counters.Queries++
	b.Total++

	if rec.Type.Valid() {
		l.counters.QueryType[rec.Type-1]++
		b.QueryType[rec.Type-1]++
	}

	if rec.ClientID >= 0 && rec.ClientID < len(l.clients) {
		c := &l.clients[rec.ClientID]
		c.count++
		if rec.Timestamp > c.lastQuery {
			c.lastQuery = rec.Timestamp
		}
		c.overTime[slot]++
	}
	if rec.DomainID >= 0 && rec.DomainID < len(l.domains) {
		l.domains[rec.DomainID].count++
	}

	switch {
	case rec.Status == model.StatusUnknown:
		l.counters.Unknown++
	case rec.Status.Blocked():
		l.counters.Blocked++
		b.Blocked++
		if rec.DomainID >= 0 && rec.DomainID < len(l.domains) {
			l.domains[rec.DomainID].blocked++
		}
		if rec.ClientID >= 0 && rec.ClientID < len(l.clients) {
			l.clients[rec.ClientID].blocked++
		}
	case rec.Status == model.StatusForwarded:
		l.counters.Forwarded++
		b.Forwarded++
	case rec.Status == model.StatusCache:
		l.counters.Cached++
		b.Cached++
	}
}

// Counters returns a copy of the global aggregate counters.
func (l *Log) Counters() Counters { return l.counters }

// OverTime returns the bucket for a timestamp, or nil if empty.
func (l *Log) OverTime(ts int64) *Bucket { return l.overTime[BucketFor(ts)] }

// Push is the collector-facing entry point: it locks the log, interns the
// strings, appends the record and updates the aggregates. Returns the
// record index.
func (l *Log) Push(ts int64, qtype model.QueryType, status model.QueryStatus,
	domain, client, forwardDest string, privacy model.PrivacyLevel, complete bool) int {

	l.mu.Lock()
	defer l.mu.Unlock()

	rec := model.QueryRecord{
		Timestamp:    ts,
		Type:         qtype,
		Status:       status,
		DomainID:     l.InternDomain(domain),
		ClientID:     l.InternClient(client),
		ForwardID:    -1,
		PrivacyLevel: privacy,
		Complete:     complete,
	}
	if status == model.StatusForwarded && forwardDest != "" {
		rec.ForwardID = l.InternForward(forwardDest, true)
	}
	idx := l.Append(rec)
	l.Tally(rec)
	return idx
}
