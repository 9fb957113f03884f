package repository

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

// TokenBlacklistRepo records revoked refresh tokens by jti.
type TokenBlacklistRepo struct{ DB *sqlx.DB }

func NewTokenBlacklistRepo(db *sqlx.DB) *TokenBlacklistRepo { return &TokenBlacklistRepo{DB: db} }

// Add blacklists a token; adding the same jti twice is a no-op.
func (r *TokenBlacklistRepo) Add(ctx context.Context, jti, userID string, expiresAt time.Time) error {
	_, err := execSq(ctx, r.DB, psql.Insert("token_blacklist").
		Columns("jti", "user_id", "expires_at").
		Values(jti, userID, expiresAt).
		Suffix("ON CONFLICT (jti) DO NOTHING"))
	if err != nil {
		logFailure(ctx, "BlacklistToken", err, "user_id", userID)
		return fmt.Errorf("blacklist token: %w", err)
	}
	return nil
}

// Contains reports whether the jti has been revoked.
func (r *TokenBlacklistRepo) Contains(ctx context.Context, jti string) (bool, error) {
	if !isUUID(jti) {
		return false, nil
	}
	var exists bool
	err := getSq(ctx, r.DB, &exists, psql.Select("1").From("token_blacklist").
		Where(sq.Eq{"jti": jti}).
		Prefix("SELECT EXISTS (").Suffix(")"))
	if err != nil {
		logFailure(ctx, "CheckBlacklist", err)
		return false, fmt.Errorf("check blacklist: %w", err)
	}
	return exists, nil
}

// PurgeExpired removes entries whose token could no longer be used anyway.
func (r *TokenBlacklistRepo) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	n, err := execSq(ctx, r.DB, psql.Delete("token_blacklist").Where(sq.Lt{"expires_at": now}))
	if err != nil {
		logFailure(ctx, "PurgeBlacklist", err)
		return 0, fmt.Errorf("purge blacklist: %w", err)
	}
	return n, nil
}
