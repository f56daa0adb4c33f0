package main

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// resetTables order matters: child tables before the parents they reference.
var resetTables = []string{
	"ledger_outbox",
	"restaurant_activity",
	"ledger_entries",
	"payout_items",
	"payouts",
	"processor_events",
	"restaurants",
}

func newResetCmd() *cobra.Command {
	var iAmSure bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Truncate every ledger table (local/dev only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !iAmSure {
				return fmt.Errorf("refusing to reset without --i-am-sure")
			}

			logger, err := newQuietLogger()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			database, err := openDB(logger)
			if err != nil {
				return fmt.Errorf("connect to database: %w", err)
			}
			defer database.Close()

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			for _, table := range resetTables {
				if _, err := database.DB.ExecContext(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)); err != nil {
					return fmt.Errorf("truncate %s: %w", table, err)
				}
				color.Yellow("truncated %s", table)
			}

			color.Green("ledger reset complete")
			return nil
		},
	}

	cmd.Flags().BoolVar(&iAmSure, "i-am-sure", false, "required confirmation flag, this is destructive")
	return cmd
}
