package main

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/restaurantledger/settlement/internal/repository"
	"github.com/restaurantledger/settlement/shared/types"
	"github.com/spf13/cobra"
)

func newReconcileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile <event_id>",
		Short: "Check a processor event against its ledger postings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eventID := args[0]

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

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			eventRepo := repository.NewEventRepository(database.DB)
			ledgerRepo := repository.NewLedgerRepository(database.DB)

			event, err := eventRepo.GetByEventID(ctx, eventID)
			if err != nil {
				return fmt.Errorf("look up event %s: %w", eventID, err)
			}
			if event == nil {
				color.New(color.FgYellow).Printf("event %s not found\n", eventID)
				return nil
			}

			posted, err := ledgerRepo.ExistsForEvent(ctx, eventID)
			if err != nil {
				return fmt.Errorf("check ledger postings for %s: %w", eventID, err)
			}

			fmt.Printf("event         %s\n", event.EventID)
			fmt.Printf("type          %s\n", event.EventType)
			fmt.Printf("restaurant    %s\n", event.RestaurantID)
			if posted || event.EventType == types.EventTypePayoutPaid {
				color.New(color.FgGreen).Println("posted        yes")
				return nil
			}
			color.New(color.FgRed).Println("posted        no")
			return fmt.Errorf("event %s exists with no matching ledger entries: the posting transaction may have failed before commit", eventID)
		},
	}

	return cmd
}
