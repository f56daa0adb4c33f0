package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var dsnFlag string

func main() {
	root := &cobra.Command{
		Use:   "ledgerctl",
		Short: "Operator CLI for the settlement ledger",
	}

	root.PersistentFlags().StringVar(&dsnFlag, "dsn", "", "Postgres DSN (defaults to POSTGRES_* env vars)")
	_ = viper.BindPFlag("dsn", root.PersistentFlags().Lookup("dsn"))
	viper.SetEnvPrefix("LEDGERCTL")
	viper.AutomaticEnv()

	root.AddCommand(newSeedEventsCmd())
	root.AddCommand(newBalanceCmd())
	root.AddCommand(newResetCmd())
	root.AddCommand(newReconcileCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
