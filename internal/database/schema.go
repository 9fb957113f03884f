package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"todo-api/pkg/logger"
)

// schema is applied in order; every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            UUID PRIMARY KEY,
		email         VARCHAR(254) NOT NULL UNIQUE,
		username      VARCHAR(150) NOT NULL UNIQUE,
		first_name    VARCHAR(150) NOT NULL DEFAULT '',
		last_name     VARCHAR(150) NOT NULL DEFAULT '',
		password_hash VARCHAR(128) NOT NULL,
		is_active     BOOLEAN NOT NULL DEFAULT TRUE,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS token_blacklist (
		jti            UUID PRIMARY KEY,
		user_id        UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		expires_at     TIMESTAMPTZ NOT NULL,
		blacklisted_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS todos (
		id           UUID PRIMARY KEY,
		user_id      UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name         VARCHAR(500) NOT NULL,
		description  TEXT NOT NULL DEFAULT '',
		completed    BOOLEAN NOT NULL DEFAULT FALSE,
		order_index  INTEGER NOT NULL DEFAULT 0,
		priority     VARCHAR(10) NOT NULL DEFAULT 'medium' CHECK (priority IN ('low', 'medium', 'high')),
		due_date     TIMESTAMPTZ NULL,
		completed_at TIMESTAMPTZ NULL,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_todos_user_order ON todos (user_id, order_index, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_todos_user_due ON todos (user_id, due_date)`,
	`CREATE TABLE IF NOT EXISTS categories (
		id         UUID PRIMARY KEY,
		user_id    UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name       VARCHAR(100) NOT NULL,
		color      VARCHAR(7) NOT NULL DEFAULT '#3B82F6',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT uk_categories_user_name UNIQUE (user_id, name)
	)`,
	`CREATE TABLE IF NOT EXISTS todo_categories (
		id          BIGSERIAL PRIMARY KEY,
		todo_id     UUID NOT NULL REFERENCES todos(id) ON DELETE CASCADE,
		category_id UUID NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT uk_todo_categories_pair UNIQUE (todo_id, category_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_todo_categories_category ON todo_categories (category_id)`,
}

// MigrateOrCreateSchema creates all tables and indexes in one transaction.
func MigrateOrCreateSchema(ctx context.Context, db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("migrate: database not available")
	}
	err := WithTx(ctx, db, func(tx *sqlx.Tx) error {
		for i, stmt := range schema {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("schema statement %d: %w", i+1, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	logger.Info(ctx, "Schema ensured", "statements", len(schema))
	return nil
}
