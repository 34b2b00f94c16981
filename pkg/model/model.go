// Package model defines core data models for the query log.
// These models are storage-friendly records: domain, client and upstream
// strings live in interning tables and are referenced by integer id.
package model

import "time"

// QueryType enumerates the DNS query types tracked by the daemon.
type QueryType int

const (
	TypeA QueryType = iota + 1
	TypeAAAA
	TypeANY
	TypeSRV
	TypeSOA
	TypePTR
	TypeTXT

	// TypeMax bounds the valid range; it is not a real type.
	TypeMax
)

// String returns the RR type mnemonic.
func (t QueryType) String() string {
	switch t {
	case TypeA:
		return "A"
	case TypeAAAA:
		return "AAAA"
	case TypeANY:
		return "ANY"
	case TypeSRV:
		return "SRV"
	case TypeSOA:
		return "SOA"
	case TypePTR:
		return "PTR"
	case TypeTXT:
		return "TXT"
	}
	return "UNKNOWN"
}

// Valid reports whether t is within the recognized range.
func (t QueryType) Valid() bool {
	return t >= TypeA && t < TypeMax
}

// QueryStatus enumerates the outcome of a query.
type QueryStatus int

const (
	StatusUnknown QueryStatus = iota
	StatusGravity
	StatusForwarded
	StatusCache
	StatusWildcard
	StatusBlacklist
	StatusExternalBlockedIP
	StatusExternalBlockedNull
	StatusExternalBlockedNXRA
)

// String returns a short human-readable outcome name.
func (s QueryStatus) String() string {
	switch s {
	case StatusUnknown:
		return "unknown"
	case StatusGravity:
		return "gravity"
	case StatusForwarded:
		return "forwarded"
	case StatusCache:
		return "cached"
	case StatusWildcard:
		return "wildcard"
	case StatusBlacklist:
		return "blacklist"
	case StatusExternalBlockedIP:
		return "external-ip"
	case StatusExternalBlockedNull:
		return "external-null"
	case StatusExternalBlockedNXRA:
		return "external-nxra"
	}
	return "invalid"
}

// Valid reports whether s is within the recognized range.
func (s QueryStatus) Valid() bool {
	return s >= StatusUnknown && s <= StatusExternalBlockedNXRA
}

// Blocked reports whether s is one of the six blocking outcomes.
func (s QueryStatus) Blocked() bool {
	switch s {
	case StatusGravity, StatusWildcard, StatusBlacklist,
		StatusExternalBlockedIP, StatusExternalBlockedNull, StatusExternalBlockedNXRA:
		return true
	}
	return false
}

// PrivacyLevel controls how much query data is retained and persisted.
type PrivacyLevel int

const (
	PrivacyShowAll PrivacyLevel = iota
	PrivacyHideDomains
	PrivacyHideDomainsClients
	// PrivacyMaximum: individual records are never persisted nor counted.
	PrivacyMaximum
	// PrivacyNoStats: no persistence happens at all.
	PrivacyNoStats
)

// QueryRecord is a single in-memory query log entry. It is created by the
// collection pipeline and observed read-only by the persistence layer,
// which only ever sets StoreRowID.
type QueryRecord struct {
	Timestamp int64 // Unix seconds
	Type      QueryType
	Status    QueryStatus

	// Interning-table references, resolved via the query log.
	DomainID int
	ClientID int
	// ForwardID is -1 unless Status is StatusForwarded.
	ForwardID int

	PrivacyLevel PrivacyLevel

	// StoreRowID is 0 until the record has been persisted; afterwards it
	// holds the on-disk row id and the record is never written again.
	StoreRowID int64

	// Complete marks the record as finalized by the collector. Incomplete
	// very-recent records are deferred by the flush engine.
	Complete bool
}

// Time returns the record timestamp as time.Time.
func (q *QueryRecord) Time() time.Time {
	return time.Unix(q.Timestamp, 0)
}
