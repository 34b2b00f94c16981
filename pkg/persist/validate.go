package persist

import (
	"github.com/dnslogd/dnslogd/pkg/model"
	"github.com/dnslogd/dnslogd/pkg/store"
)

// epochFloor is the oldest timestamp accepted on reload: 01/01/2017 UTC.
// Anything older is a corrupt row.
const epochFloor = 1483228800

// verdict is the tagged accept/reject outcome for one stored row.
type verdict struct {
	ok     bool
	reason string
	// warn marks rejections that indicate a malformed row, as opposed
	// to rows dropped quietly by configuration (AAAA off, localhost).
	warn bool
}

func accept() verdict               { return verdict{ok: true} }
func drop(reason string) verdict    { return verdict{reason: reason} }
func rejectW(reason string) verdict { return verdict{reason: reason, warn: true} }

type validateOpts struct {
	now             int64
	analyzeAAAA     bool
	ignoreLocalhost bool
}

// validateRow checks a stored row against the rules a live record would
// have satisfied. It is pure: the reload scan loop stays free of inline
// branching and just dispatches on the verdict.
func validateRow(r store.Row, opt validateOpts) verdict {
	if r.Timestamp < epochFloor {
		return rejectW("timestamp before epoch floor")
	}
	if r.Timestamp > opt.now {
		return rejectW("timestamp in the future")
	}

	qtype := model.QueryType(r.Type)
	if !qtype.Valid() {
		return rejectW("type out of range")
	}
	if qtype == model.TypeAAAA && !opt.analyzeAAAA {
		return drop("AAAA analysis disabled")
	}

	status := model.QueryStatus(r.Status)
	if !status.Valid() {
		return rejectW("status out of range")
	}

	if !r.Domain.Valid {
		return rejectW("domain is null")
	}
	if !r.Client.Valid {
		return rejectW("client is null")
	}
	if opt.ignoreLocalhost && (r.Client.String == "127.0.0.1" || r.Client.String == "::1") {
		return drop("localhost client ignored")
	}

	if status == model.StatusForwarded && !r.Forward.Valid {
		return rejectW("forward destination missing for forwarded query")
	}
	return accept()
}
