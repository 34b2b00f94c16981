package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dnslogd/dnslogd/internal/app"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the query-log persistence daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return app.New(cfg).Run(ctx)
	},
}
