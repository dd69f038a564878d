package main

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"rentfi-backend/internal/config"
	"rentfi-backend/internal/domain/collateral"
	"rentfi-backend/internal/domain/contract"
	"rentfi-backend/internal/domain/marketplace"
	"rentfi-backend/internal/infrastructure/db"
	"rentfi-backend/internal/observability"
)

func main() {
	_ = godotenv.Load()

	log := observability.NewLogger("migrate")

	rootCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Schema migration tool",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Create or update all tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			gdb, err := db.OpenGorm(cfg.MySQLDSN())
			if err != nil {
				return fmt.Errorf("mysql connect: %w", err)
			}
			err = gdb.AutoMigrate(
				&contract.Contract{},
				&collateral.GuarantorProperty{},
				&collateral.PropertyPledge{},
				&marketplace.Listing{},
				&marketplace.PurchaseIntent{},
			)
			if err != nil {
				return fmt.Errorf("automigrate: %w", err)
			}
			log.Info().Msg("schema up to date")
			return nil
		},
	}

	rootCmd.AddCommand(upCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}
}
