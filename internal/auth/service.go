// Package auth is the user directory: registration, login, profile and password
// management on top of bcrypt credentials and JWT token pairs.
package auth

import (
	"context"
	"strings"

	"todo-api/internal/apperr"
	"todo-api/internal/models"
	"todo-api/internal/validate"
	"todo-api/pkg/logger"
)

// UserStore persists accounts. Lookups of unknown users return an apperr NotFound error.
type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	UpdateProfile(ctx context.Context, id string, p models.ProfileUpdate) (*models.User, error)
	UpdatePassword(ctx context.Context, id, hash string) error
}

// Service implements the account operations.
type Service struct {
	Users      UserStore
	Tokens     *TokenService
	BcryptCost int
}

func NewService(users UserStore, tokens *TokenService, bcryptCost int) *Service {
	return &Service{Users: users, Tokens: tokens, BcryptCost: bcryptCost}
}

// Registration is the sign-up form.
type Registration struct {
	Email           string `json:"email" binding:"required,email,max=254"`
	Username        string `json:"username" binding:"required,notblank,max=150"`
	FirstName       string `json:"first_name" binding:"max=150"`
	LastName        string `json:"last_name" binding:"max=150"`
	Password        string `json:"password" binding:"required"`
	PasswordConfirm string `json:"password_confirm" binding:"required,eqfield=Password"`
}

// Register validates the form, creates the account and issues a token pair.
func (s *Service) Register(ctx context.Context, r Registration) (*models.User, models.TokenPair, error) {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Username = strings.TrimSpace(r.Username)

	verr := apperr.Validation("Registration data is invalid.")
	if err := validate.Struct(r); err != nil && !verr.AddFieldErrors(err) {
		return nil, models.TokenPair{}, apperr.Internal(err)
	}
	if _, seen := verr.Fields["password"]; !seen {
		if problems := ValidateStrength(r.Password, r.Email, r.Username, r.FirstName, r.LastName); len(problems) > 0 {
			verr.WithField("password", strings.Join(problems, " "))
		}
	}
	if len(verr.Fields) > 0 {
		return nil, models.TokenPair{}, verr
	}

	hash, err := HashPassword(r.Password, s.BcryptCost)
	if err != nil {
		return nil, models.TokenPair{}, apperr.Internal(err)
	}
	u := &models.User{
		Email:        r.Email,
		Username:     r.Username,
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		PasswordHash: hash,
		IsActive:     true,
	}
	if err := s.Users.Create(ctx, u); err != nil {
		return nil, models.TokenPair{}, err
	}
	pair, err := s.Tokens.IssuePair(u.ID)
	if err != nil {
		return nil, models.TokenPair{}, err
	}
	logger.Info(ctx, "User registered", "user_id", u.ID)
	return u, pair, nil
}

// Login authenticates by email and password and issues a fresh token pair.
func (s *Service) Login(ctx context.Context, email, password string) (*models.User, models.TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, models.TokenPair{}, apperr.Validation("Email and password are required.")
	}
	u, err := s.Users.GetByEmail(ctx, email)
	if apperr.Is(err, apperr.KindNotFound) {
		return nil, models.TokenPair{}, apperr.Authentication("Invalid credentials.")
	}
	if err != nil {
		return nil, models.TokenPair{}, err
	}
	if !VerifyPassword(u.PasswordHash, password) {
		return nil, models.TokenPair{}, apperr.Authentication("Invalid credentials.")
	}
	if !u.IsActive {
		return nil, models.TokenPair{}, apperr.Authentication("This account is disabled.")
	}
	pair, err := s.Tokens.IssuePair(u.ID)
	if err != nil {
		return nil, models.TokenPair{}, err
	}
	return u, pair, nil
}

// Logout blacklists the caller's refresh token. Any failure is reported as one generic error.
func (s *Service) Logout(ctx context.Context, userID, refresh string) error {
	if strings.TrimSpace(refresh) == "" {
		return apperr.Validation("Logout failed.")
	}
	if err := s.Tokens.Revoke(ctx, refresh, userID); err != nil {
		logger.Debug(ctx, "Refresh token revoke failed", "error", err)
		return apperr.Validation("Logout failed.")
	}
	return nil
}

// RefreshAccess issues a new access token for a live refresh token.
func (s *Service) RefreshAccess(ctx context.Context, refresh string) (string, error) {
	if strings.TrimSpace(refresh) == "" {
		return "", apperr.Validation("Refresh token is required.").WithField("refresh", "This field is required.")
	}
	return s.Tokens.Refresh(ctx, refresh)
}

// Authenticate resolves an access token to an active user.
func (s *Service) Authenticate(ctx context.Context, access string) (*models.User, error) {
	id, err := s.Tokens.ParseAccess(access)
	if err != nil {
		return nil, err
	}
	u, err := s.Users.GetByID(ctx, id)
	if apperr.Is(err, apperr.KindNotFound) {
		return nil, apperr.Authentication("User not found.")
	}
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, apperr.Authentication("User is inactive.")
	}
	return u, nil
}

// Profile returns the caller's account.
func (s *Service) Profile(ctx context.Context, userID string) (*models.User, error) {
	return s.Users.GetByID(ctx, userID)
}

// UpdateProfile changes first_name, last_name and username.
func (s *Service) UpdateProfile(ctx context.Context, userID string, p models.ProfileUpdate) (*models.User, error) {
	if p.Username != nil {
		name := strings.TrimSpace(*p.Username)
		p.Username = &name
	}
	if err := validate.Struct(p); err != nil {
		verr := apperr.Validation("Profile data is invalid.")
		if !verr.AddFieldErrors(err) {
			return nil, apperr.Internal(err)
		}
		return nil, verr
	}
	return s.Users.UpdateProfile(ctx, userID, p)
}

// PasswordChange is the change-password form.
type PasswordChange struct {
	OldPassword     string `json:"old_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" binding:"required,eqfield=NewPassword"`
}

// ChangePassword verifies the old password and stores a hash of the new one.
func (s *Service) ChangePassword(ctx context.Context, userID string, pc PasswordChange) error {
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	verr := apperr.Validation("Password change is invalid.")
	if err := validate.Struct(pc); err != nil && !verr.AddFieldErrors(err) {
		return apperr.Internal(err)
	}
	if _, seen := verr.Fields["old_password"]; !seen && !VerifyPassword(u.PasswordHash, pc.OldPassword) {
		verr.WithField("old_password", "Current password is incorrect.")
	}
	if _, seen := verr.Fields["new_password"]; !seen {
		if problems := ValidateStrength(pc.NewPassword, u.Email, u.Username, u.FirstName, u.LastName); len(problems) > 0 {
			verr.WithField("new_password", strings.Join(problems, " "))
		}
	}
	if len(verr.Fields) > 0 {
		return verr
	}
	hash, err := HashPassword(pc.NewPassword, s.BcryptCost)
	if err != nil {
		return apperr.Internal(err)
	}
	if err := s.Users.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}
	logger.Info(ctx, "Password changed", "user_id", userID)
	return nil
}
