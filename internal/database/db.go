package database

import (
	"context"
	"sync"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"todo-api/internal/config"
	"todo-api/pkg/logger"
)

var (
	pool *sqlx.DB
	once sync.Once
)

// DB returns the global database connection pool (initialized on first use).
func DB(ctx context.Context) *sqlx.DB {
	once.Do(func() {
		cfg := config.Get()
		if cfg.DatabaseURL == "" {
			logger.Error(ctx, "DATABASE_URL is not set")
			return
		}
		db, err := sqlx.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			logger.Error(ctx, "Failed to open database", "error", err)
			return
		}
		db.SetMaxOpenConns(cfg.DBPoolSize)
		db.SetMaxIdleConns(cfg.DBPoolSize / 2)
		if err := db.PingContext(ctx); err != nil {
			logger.Error(ctx, "Database ping failed", "error", err)
			_ = db.Close()
			return
		}
		pool = db
		logger.Info(ctx, "Database pool initialized", "max_open", cfg.DBPoolSize)
	})
	return pool
}
