package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dnslogd/dnslogd/pkg/store"
	"github.com/dnslogd/dnslogd/pkg/store/sqlite"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show counters and properties from the query database",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		db := sqlite.New(sqlite.Config{Path: cfg.DBFile, Debug: cfg.Debug})
		if err := db.Open(); err != nil {
			return err
		}
		defer db.Close()

		fmt.Printf("Database:        %s (%.2f MB)\n", cfg.DBFile, db.FileSizeMB())
		fmt.Printf("Schema version:  %d\n", db.GetProperty(store.PropVersion))
		fmt.Printf("Stored queries:  %d\n", db.QueryCount())
		fmt.Printf("Total queries:   %d\n", db.GetCounter(store.CounterTotalQueries))
		fmt.Printf("Blocked queries: %d\n", db.GetCounter(store.CounterBlockedQueries))

		if ts := db.GetProperty(store.PropLastTimestamp); ts > 0 {
			fmt.Printf("Last flush:      %s\n", time.Unix(int64(ts), 0).Format(time.RFC3339))
		}
		if ts := db.GetProperty(store.PropFirstRun); ts > 0 {
			fmt.Printf("Counting since:  %s\n", time.Unix(int64(ts), 0).Format(time.RFC3339))
		}
		return nil
	},
}
