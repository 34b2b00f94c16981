// Package cmd provides the CLI commands for dnslogd using Cobra.
package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/dnslogd/dnslogd/pkg/config"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var (
	configFile string
	dbFile     string
	debugFlag  bool
)

var rootCmd = &cobra.Command{
	Use:   "dnslogd",
	Short: "DNS query logging daemon with long-term SQLite storage",
	Long: `dnslogd persists an in-memory DNS query log into a long-term
SQLite database: incremental batch flushing, schema migrations,
retention-based garbage collection and bulk reload at startup.

Examples:
  dnslogd run --config dnslogd.yml          # Run the persistence daemon
  dnslogd stats --db dnslogd.db             # Show stored counters
  dnslogd tail --filter 'blocked' -n 20     # Show recent blocked queries
  dnslogd gc --db dnslogd.db                # Delete rows past retention`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig resolves the effective configuration from the config file
// and command-line overrides.
func loadConfig() (config.Config, error) {
	cfg := config.Default()
	if configFile != "" {
		var err error
		if cfg, err = config.Load(configFile); err != nil {
			return cfg, err
		}
	}
	if dbFile != "" {
		cfg.DBFile = dbFile
	}
	if debugFlag {
		cfg.Debug = true
	}
	return cfg, nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "path to YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&dbFile, "db", "", "path to the query database (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "enable debug logging")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(tailCmd)
	rootCmd.AddCommand(gcCmd)
}
