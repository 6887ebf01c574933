package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Alp4ka/sloth/blog"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the posts and categories tables",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		e := envFrom(cmd)

		db, err := openDB(e.cfg.Database, e.logger)
		if err != nil {
			return err
		}
		defer func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}()

		if err = db.WithContext(cmd.Context()).AutoMigrate(&blog.Post{}, &blog.Category{}); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}

		e.logger.WithField("driver", e.cfg.Database.Driver).Info("database migrated")

		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
