package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dnslogd/dnslogd/pkg/persist"
	"github.com/dnslogd/dnslogd/pkg/qlog"
	"github.com/dnslogd/dnslogd/pkg/store/sqlite"
)

var gcDays int

var gcCmd = &cobra.Command{
	Use:   "gc",
	Short: "Delete persisted queries past the retention window",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if gcDays > 0 {
			cfg.RetentionDays = gcDays
		}

		db := sqlite.New(sqlite.Config{Path: cfg.DBFile, Debug: cfg.Debug})
		svc := persist.New(db, qlog.New(), cfg)

		deleted, err := svc.Prune()
		if err != nil {
			return err
		}
		fmt.Printf("Deleted %d rows older than %d days\n", deleted, cfg.RetentionDays)
		return nil
	},
}

func init() {
	gcCmd.Flags().IntVar(&gcDays, "days", 0, "retention window in days (overrides config)")
}
