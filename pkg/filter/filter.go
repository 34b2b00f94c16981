// Package filter provides display-filter functionality over persisted
// query rows using expr-lang/expr.
package filter

import (
	"fmt"

	"github.com/expr-lang/expr"

	"github.com/dnslogd/dnslogd/pkg/model"
	"github.com/dnslogd/dnslogd/pkg/store"
)

// RowEnv is the environment for expression evaluation. It maps friendly
// field names to persisted row data, e.g.
//
//	domain endsWith "example.com" && blocked
//	status == "forwarded" && client == "192.168.1.2"
type RowEnv struct {
	Timestamp int64  `expr:"timestamp"`
	Type      string `expr:"type"`
	Status    string `expr:"status"`
	Domain    string `expr:"domain"`
	Client    string `expr:"client"`
	Forward   string `expr:"forward"`

	Blocked   bool `expr:"blocked"`
	Forwarded bool `expr:"forwarded"`
	Cached    bool `expr:"cached"`
}

// Compile compiles a filter expression into a row predicate.
func Compile(src string) (func(store.Row) bool, error) {
	program, err := expr.Compile(src, expr.Env(RowEnv{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("failed to compile filter '%s': %w", src, err)
	}
	return func(r store.Row) bool {
		result, err := expr.Run(program, rowToEnv(r))
		if err != nil {
			return false
		}
		b, ok := result.(bool)
		return ok && b
	}, nil
}

func rowToEnv(r store.Row) RowEnv {
	status := model.QueryStatus(r.Status)
	return RowEnv{
		Timestamp: r.Timestamp,
		Type:      model.QueryType(r.Type).String(),
		Status:    status.String(),
		Domain:    r.Domain.String,
		Client:    r.Client.String,
		Forward:   r.Forward.String,
		Blocked:   status.Blocked(),
		Forwarded: status == model.StatusForwarded,
		Cached:    status == model.StatusCache,
	}
}
