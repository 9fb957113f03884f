package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"todo-api/internal/apperr"
	"todo-api/internal/models"
)

// TokenType distinguishes access from refresh credentials.
type TokenType string

const (
	AccessToken  TokenType = "access"
	RefreshToken TokenType = "refresh"
)

// Claims are the JWT claims of both token types. Subject is the user id, ID the jti.
type Claims struct {
	TokenType TokenType `json:"token_type"`
	jwt.RegisteredClaims
}

// Blacklist stores revoked refresh tokens by jti.
type Blacklist interface {
	Add(ctx context.Context, jti, userID string, expiresAt time.Time) error
	Contains(ctx context.Context, jti string) (bool, error)
}

var errInvalidToken = apperr.Authentication("Token is invalid or expired.")

// TokenService issues, validates and revokes HS256 token pairs.
type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	blacklist  Blacklist
	now        func() time.Time
}

func NewTokenService(secret string, accessTTL, refreshTTL time.Duration, bl Blacklist) *TokenService {
	return &TokenService{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		blacklist:  bl,
		now:        time.Now,
	}
}

// IssuePair returns a fresh access and refresh token for the user.
func (s *TokenService) IssuePair(userID string) (models.TokenPair, error) {
	access, err := s.issue(userID, AccessToken, s.accessTTL)
	if err != nil {
		return models.TokenPair{}, err
	}
	refresh, err := s.issue(userID, RefreshToken, s.refreshTTL)
	if err != nil {
		return models.TokenPair{}, err
	}
	return models.TokenPair{Access: access, Refresh: refresh}, nil
}

// IssueAccess signs a single access token.
func (s *TokenService) IssueAccess(userID string) (string, error) {
	return s.issue(userID, AccessToken, s.accessTTL)
}

func (s *TokenService) issue(userID string, typ TokenType, ttl time.Duration) (string, error) {
	if len(s.secret) == 0 {
		return "", apperr.Internal(errors.New("jwt secret is not configured"))
	}
	now := s.now()
	claims := Claims{
		TokenType: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", apperr.Internal(fmt.Errorf("sign %s token: %w", typ, err))
	}
	return signed, nil
}

func (s *TokenService) parse(token string, want TokenType) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, errInvalidToken
	}
	if claims.TokenType != want || claims.Subject == "" || claims.ID == "" {
		return nil, errInvalidToken
	}
	return claims, nil
}

// ParseAccess validates an access token and returns its user id.
func (s *TokenService) ParseAccess(token string) (string, error) {
	c, err := s.parse(token, AccessToken)
	if err != nil {
		return "", err
	}
	return c.Subject, nil
}

// ParseRefresh validates a refresh token, including the blacklist, and returns its claims.
func (s *TokenService) ParseRefresh(ctx context.Context, token string) (*Claims, error) {
	c, err := s.parse(token, RefreshToken)
	if err != nil {
		return nil, err
	}
	revoked, err := s.blacklist.Contains(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, apperr.Authentication("Token is blacklisted.")
	}
	return c, nil
}

// Refresh exchanges a live refresh token for a new access token. The refresh token is not rotated.
func (s *TokenService) Refresh(ctx context.Context, refresh string) (string, error) {
	c, err := s.ParseRefresh(ctx, refresh)
	if err != nil {
		return "", err
	}
	return s.IssueAccess(c.Subject)
}

// Revoke blacklists a refresh token belonging to userID.
func (s *TokenService) Revoke(ctx context.Context, refresh, userID string) error {
	c, err := s.ParseRefresh(ctx, refresh)
	if err != nil {
		return err
	}
	if c.Subject != userID {
		return errInvalidToken
	}
	return s.blacklist.Add(ctx, c.ID, c.Subject, c.ExpiresAt.Time)
}
