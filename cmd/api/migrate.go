package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"venuebook/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		db, err := database.Connect(cfg.Database, log)
		if err != nil {
			return err
		}
		if err := database.Migrate(db); err != nil {
			return err
		}
		log.Info("schema up to date", zap.Int("tables", len(database.Models())))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
