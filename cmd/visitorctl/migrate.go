package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kfd-o/mobile-firebase-backend/internal/config"
	"github.com/kfd-o/mobile-firebase-backend/internal/db"
)

func migrateCmd(cfg config.Config) *cobra.Command {
	var databaseURL string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pool, err := db.NewPool(cmd.Context(), databaseURL)
			if err != nil {
				return fmt.Errorf("connect: %w", err)
			}
			defer pool.Close()
			if err := db.Migrate(cmd.Context(), pool); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema applied")
			return nil
		},
	}
	cmd.Flags().StringVar(&databaseURL, "database-url", cfg.DatabaseURL, "postgres connection string")
	return cmd
}
