package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/restaurantledger/settlement/internal/service"
	"github.com/restaurantledger/settlement/shared/types"
	"github.com/spf13/cobra"
)

func newSeedEventsCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed-events",
		Short: "Load a batch of processor events through the same path the API uses",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read %s: %w", file, err)
			}

			var requests []types.ProcessorEventRequest
			if err := json.Unmarshal(raw, &requests); err != nil {
				return fmt.Errorf("parse %s: %w", file, err)
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

			processor := service.NewEventProcessor(database.DB, logger)

			var created, idempotent, failed int
			for _, req := range requests {
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				event, isNew, err := processor.Process(ctx, req)
				cancel()

				if err != nil {
					failed++
					color.Red("  %s  FAILED  %v", req.EventID, err)
					continue
				}
				if isNew {
					created++
					color.Green("  %s  CREATED  %s %d cents", event.EventID, event.EventType, event.AmountCents)
				} else {
					idempotent++
					color.Yellow("  %s  DUPLICATE (already processed)", event.EventID)
				}
			}

			fmt.Printf("\n%d created, %d idempotent, %d failed (of %d)\n", created, idempotent, failed, len(requests))
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "path to a JSON array of processor event requests")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
