package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"todo-api/internal/apperr"
	"todo-api/internal/models"
	"todo-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

const (
	userKey   = "user"
	userIDKey = "user_id"
)

// Authenticator resolves a bearer access token to an active user.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*models.User, error)
}

// AuthMiddleware rejects requests without a valid access token for an active user.
// On success the user is stored under "user" and its id under "user_id".
func AuthMiddleware(a Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		auth := c.GetHeader("Authorization")
		const prefix = "Bearer "
		if auth == "" || !strings.HasPrefix(auth, prefix) {
			logger.Debug(ctx, "Missing or invalid Authorization header")
			abortUnauthorized(c, "Authentication credentials were not provided.")
			return
		}
		tokenStr := strings.TrimSpace(auth[len(prefix):])
		user, err := a.Authenticate(ctx, tokenStr)
		if err != nil {
			var e *apperr.Error
			if errors.As(err, &e) && e.Kind == apperr.KindAuthentication {
				logger.Debug(ctx, "Access token rejected", "error", err)
				abortUnauthorized(c, e.Message)
				return
			}
			logger.Error(ctx, "Authentication lookup failed", "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":   apperr.KindInternal.String(),
				"message": "internal server error",
			})
			return
		}
		c.Set(userKey, user)
		c.Set(userIDKey, user.ID)
		c.Request = c.Request.WithContext(logger.WithUserID(ctx, user.ID))
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.Header("WWW-Authenticate", `Bearer realm="api"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":   apperr.KindAuthentication.String(),
		"message": msg,
	})
}

// CurrentUser returns the authenticated user set by AuthMiddleware.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	u, _ := v.(*models.User)
	return u
}

// UserID returns the authenticated user's id, or "" outside AuthMiddleware.
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}
