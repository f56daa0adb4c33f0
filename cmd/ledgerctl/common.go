package main

import (
	"github.com/restaurantledger/settlement/shared/config"
	"github.com/restaurantledger/settlement/shared/db"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// openDB loads config the same way the long-running binaries do, letting
// --dsn or LEDGERCTL_DSN override the discrete POSTGRES_* env vars.
func openDB(logger *zap.Logger) (*db.DB, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	dsn := cfg.GetPostgresDSN()
	if override := viper.GetString("dsn"); override != "" {
		dsn = override
	}

	return db.NewDB(dsn, logger)
}

func newQuietLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}
