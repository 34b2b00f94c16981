package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dnslogd/dnslogd/pkg/filter"
	"github.com/dnslogd/dnslogd/pkg/model"
	"github.com/dnslogd/dnslogd/pkg/store"
	"github.com/dnslogd/dnslogd/pkg/store/sqlite"
)

var (
	tailSince  time.Duration
	tailFilter string
	tailLimit  int
)

var tailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Show recent queries from the database",
	Long: `Show recent persisted queries, optionally filtered with an
expression, e.g.:

  dnslogd tail --filter 'blocked'
  dnslogd tail --filter 'domain endsWith "example.com"'
  dnslogd tail --filter 'status == "forwarded" && client == "10.0.0.2"'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		var match func(store.Row) bool
		if tailFilter != "" {
			if match, err = filter.Compile(tailFilter); err != nil {
				return err
			}
		}

		db := sqlite.New(sqlite.Config{Path: cfg.DBFile, Debug: cfg.Debug})
		if err := db.Open(); err != nil {
			return err
		}
		defer db.Close()

		rows, err := db.QueriesSince(time.Now().Add(-tailSince).Unix())
		if err != nil {
			return err
		}

		// Newest last; cap to the most recent matches.
		var out []store.Row
		for _, r := range rows {
			if match == nil || match(r) {
				out = append(out, r)
			}
		}
		if tailLimit > 0 && len(out) > tailLimit {
			out = out[len(out)-tailLimit:]
		}

		for _, r := range out {
			forward := "-"
			if r.Forward.Valid {
				forward = r.Forward.String
			}
			fmt.Printf("%s  %-5s %-13s %-15s %s  %s\n",
				time.Unix(r.Timestamp, 0).Format("2006-01-02 15:04:05"),
				model.QueryType(r.Type),
				model.QueryStatus(r.Status),
				r.Client.String,
				r.Domain.String,
				forward)
		}
		return nil
	},
}

func init() {
	tailCmd.Flags().DurationVar(&tailSince, "since", 24*time.Hour, "how far back to read")
	tailCmd.Flags().StringVarP(&tailFilter, "filter", "f", "", "filter expression")
	tailCmd.Flags().IntVarP(&tailLimit, "limit", "n", 50, "maximum rows to print (0 = all)")
}
