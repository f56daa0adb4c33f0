package main

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/restaurantledger/settlement/internal/repository"
	"github.com/restaurantledger/settlement/internal/service"
	"github.com/spf13/cobra"
)

func newBalanceCmd() *cobra.Command {
	var currency string

	cmd := &cobra.Command{
		Use:   "balance <restaurant_id>",
		Short: "Print a restaurant's current derived balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			restaurantID := args[0]

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

			calculator := service.NewBalanceCalculator(repository.NewLedgerRepository(database.DB))

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			bal, err := calculator.GetBalance(ctx, restaurantID, currency)
			if err != nil {
				return err
			}

			sign := color.New(color.FgGreen)
			if bal.AvailableCents < 0 {
				sign = color.New(color.FgRed)
			}

			fmt.Printf("restaurant    %s\n", bal.RestaurantID)
			fmt.Printf("currency      %s\n", bal.Currency)
			sign.Printf("available     %d\n", bal.AvailableCents)
			fmt.Printf("pending       %d\n", bal.PendingCents)
			fmt.Printf("total         %d\n", bal.TotalCents)
			return nil
		},
	}

	cmd.Flags().StringVar(&currency, "currency", "PEN", "settlement currency")
	return cmd
}
