package repository

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"todo-api/internal/apperr"
	"todo-api/internal/models"
)

const userColumns = "id, email, username, first_name, last_name, password_hash, is_active, created_at, updated_at"

// UserRepo persists accounts.
type UserRepo struct{ DB *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{DB: db} }

func userConflict(err error) error {
	mapped := apperr.FromPostgres(err, "A user with these details already exists.")
	conflict, ok := mapped.(*apperr.Error)
	if !ok {
		return mapped
	}
	switch apperr.Constraint(err) {
	case "users_email_key":
		conflict.Message = "A user with this email already exists."
		conflict.WithField("email", "A user with this email already exists.")
	case "users_username_key":
		conflict.Message = "A user with this username already exists."
		conflict.WithField("username", "A user with this username already exists.")
	}
	return conflict
}

// Create inserts u, assigning its id and timestamps.
func (r *UserRepo) Create(ctx context.Context, u *models.User) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	now := time.Now()
	u.CreatedAt, u.UpdatedAt = now, now
	_, err := execSq(ctx, r.DB, psql.Insert("users").
		Columns("id", "email", "username", "first_name", "last_name", "password_hash", "is_active", "created_at", "updated_at").
		Values(u.ID, u.Email, u.Username, u.FirstName, u.LastName, u.PasswordHash, u.IsActive, u.CreatedAt, u.UpdatedAt))
	if err != nil {
		if mapped := userConflict(err); apperr.Is(mapped, apperr.KindConflict) {
			return mapped
		}
		logFailure(ctx, "CreateUser", err)
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *UserRepo) getBy(ctx context.Context, col string, val string) (*models.User, error) {
	var u models.User
	err := getSq(ctx, r.DB, &u, psql.Select(userColumns).From("users").Where(sq.Eq{col: val}))
	if isNoRows(err) {
		return nil, apperr.NotFound("User not found.")
	}
	if err != nil {
		logFailure(ctx, "GetUser", err, "by", col)
		return nil, fmt.Errorf("get user by %s: %w", col, err)
	}
	return &u, nil
}

// GetByEmail looks up an account by its normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getBy(ctx, "email", email)
}

// GetByID looks up an account by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	if !isUUID(id) {
		return nil, apperr.NotFound("User not found.")
	}
	return r.getBy(ctx, "id", id)
}

// UpdateProfile writes the present profile fields and returns the stored account.
func (r *UserRepo) UpdateProfile(ctx context.Context, id string, p models.ProfileUpdate) (*models.User, error) {
	if !isUUID(id) {
		return nil, apperr.NotFound("User not found.")
	}
	set := map[string]interface{}{"updated_at": time.Now()}
	if p.FirstName != nil {
		set["first_name"] = *p.FirstName
	}
	if p.LastName != nil {
		set["last_name"] = *p.LastName
	}
	if p.Username != nil {
		set["username"] = *p.Username
	}
	var u models.User
	err := getSq(ctx, r.DB, &u, psql.Update("users").SetMap(set).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING "+userColumns))
	if isNoRows(err) {
		return nil, apperr.NotFound("User not found.")
	}
	if err != nil {
		if mapped := userConflict(err); apperr.Is(mapped, apperr.KindConflict) {
			return nil, mapped
		}
		logFailure(ctx, "UpdateProfile", err, "user_id", id)
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return &u, nil
}

// UpdatePassword stores a new password hash.
func (r *UserRepo) UpdatePassword(ctx context.Context, id, hash string) error {
	n, err := execSq(ctx, r.DB, psql.Update("users").
		Set("password_hash", hash).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": id}))
	if err != nil {
		logFailure(ctx, "UpdatePassword", err, "user_id", id)
		return fmt.Errorf("update password: %w", err)
	}
	if n == 0 {
		return apperr.NotFound("User not found.")
	}
	return nil
}
