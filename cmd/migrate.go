package main

import (
	"context"
	"errors"
	"time"

	"todo-api/internal/database"
	"todo-api/internal/repository"
	"todo-api/pkg/logger"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		db := database.DB(ctx)
		if db == nil {
			return errors.New("database not available")
		}
		defer db.Close()
		return database.MigrateOrCreateSchema(ctx, db)
	},
}

var flushTokensCmd = &cobra.Command{
	Use:   "flush-expired-tokens",
	Short: "Delete blacklist entries whose tokens have expired",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		db := database.DB(ctx)
		if db == nil {
			return errors.New("database not available")
		}
		defer db.Close()
		n, err := repository.NewTokenBlacklistRepo(db).PurgeExpired(ctx, time.Now())
		if err != nil {
			return err
		}
		logger.Info(ctx, "Expired tokens flushed", "count", n)
		return nil
	},
}
