package persist

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dnslogd/dnslogd/pkg/model"
	"github.com/dnslogd/dnslogd/pkg/store"
)

func validStr(s string) sql.NullString {
	return sql.NullString{String: s, Valid: true}
}

func TestValidateRow(t *testing.T) {
	now := time.Now().Unix()
	base := store.Row{
		ID:        1,
		Timestamp: now - 60,
		Type:      int(model.TypeA),
		Status:    int(model.StatusCache),
		Domain:    validStr("example.com"),
		Client:    validStr("10.0.0.1"),
	}
	opts := validateOpts{now: now, analyzeAAAA: true}

	tests := []struct {
		name string
		mod  func(*store.Row)
		opts validateOpts
		ok   bool
		warn bool
	}{
		{name: "valid row", mod: func(r *store.Row) {}, opts: opts, ok: true},
		{name: "before epoch floor", mod: func(r *store.Row) { r.Timestamp = epochFloor - 1 }, opts: opts, warn: true},
		{name: "future timestamp", mod: func(r *store.Row) { r.Timestamp = now + 10 }, opts: opts, warn: true},
		{name: "type below range", mod: func(r *store.Row) { r.Type = 0 }, opts: opts, warn: true},
		{name: "type above range", mod: func(r *store.Row) { r.Type = int(model.TypeMax) }, opts: opts, warn: true},
		{name: "status out of range", mod: func(r *store.Row) { r.Status = 99 }, opts: opts, warn: true},
		{name: "null domain", mod: func(r *store.Row) { r.Domain = sql.NullString{} }, opts: opts, warn: true},
		{name: "null client", mod: func(r *store.Row) { r.Client = sql.NullString{} }, opts: opts, warn: true},
		{
			name: "aaaa disabled",
			mod:  func(r *store.Row) { r.Type = int(model.TypeAAAA) },
			opts: validateOpts{now: now},
		},
		{
			name: "aaaa enabled",
			mod:  func(r *store.Row) { r.Type = int(model.TypeAAAA) },
			opts: opts,
			ok:   true,
		},
		{
			name: "loopback ignored",
			mod:  func(r *store.Row) { r.Client = validStr("127.0.0.1") },
			opts: validateOpts{now: now, analyzeAAAA: true, ignoreLocalhost: true},
		},
		{
			name: "loopback v6 ignored",
			mod:  func(r *store.Row) { r.Client = validStr("::1") },
			opts: validateOpts{now: now, analyzeAAAA: true, ignoreLocalhost: true},
		},
		{
			name: "loopback kept by default",
			mod:  func(r *store.Row) { r.Client = validStr("127.0.0.1") },
			opts: opts,
			ok:   true,
		},
		{
			name: "forwarded without destination",
			mod:  func(r *store.Row) { r.Status = int(model.StatusForwarded) },
			opts: opts,
			warn: true,
		},
		{
			name: "forwarded with destination",
			mod: func(r *store.Row) {
				r.Status = int(model.StatusForwarded)
				r.Forward = validStr("8.8.8.8")
			},
			opts: opts,
			ok:   true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			row := base
			tc.mod(&row)
			v := validateRow(row, tc.opts)
			assert.Equal(t, tc.ok, v.ok, "ok")
			assert.Equal(t, tc.warn, v.warn, "warn")
			if !tc.ok {
				assert.NotEmpty(t, v.reason)
			}
		})
	}
}
