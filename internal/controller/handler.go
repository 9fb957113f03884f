package controller

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"todo-api/internal/apperr"
	"todo-api/internal/auth"
	"todo-api/internal/middleware"
	"todo-api/internal/models"
	"todo-api/internal/query"
	"todo-api/internal/validate"
	"todo-api/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Accounts is the user directory.
type Accounts interface {
	Register(ctx context.Context, r auth.Registration) (*models.User, models.TokenPair, error)
	Login(ctx context.Context, email, password string) (*models.User, models.TokenPair, error)
	Logout(ctx context.Context, userID, refresh string) error
	RefreshAccess(ctx context.Context, refresh string) (string, error)
	Profile(ctx context.Context, userID string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID string, p models.ProfileUpdate) (*models.User, error)
	ChangePassword(ctx context.Context, userID string, pc auth.PasswordChange) error
}

// TodoStore is the owner-scoped todo persistence.
type TodoStore interface {
	List(ctx context.Context, f query.TodoFilter, page query.Page) ([]models.Todo, int, error)
	Get(ctx context.Context, userID, id string) (*models.Todo, error)
	Create(ctx context.Context, userID string, in models.TodoInput) (*models.Todo, error)
	Update(ctx context.Context, userID, id string, p models.TodoPatch) (*models.Todo, error)
	Toggle(ctx context.Context, userID, id string) (*models.Todo, error)
	Delete(ctx context.Context, userID, id string) error
	Reorder(ctx context.Context, userID string, orders []models.TodoOrder) (int64, error)
	BulkUpdate(ctx context.Context, userID string, ids []string, action models.BulkAction) (int64, error)
	ClearCompleted(ctx context.Context, userID string) (int64, error)
}

// CategoryStore is the owner-scoped category persistence.
type CategoryStore interface {
	List(ctx context.Context, userID string) ([]models.Category, error)
	Get(ctx context.Context, userID, id string) (*models.Category, error)
	Create(ctx context.Context, userID string, in models.CategoryInput) (*models.Category, error)
	Update(ctx context.Context, userID, id string, in models.CategoryInput) (*models.Category, error)
	Delete(ctx context.Context, userID, id string) error
}

// StatsService computes and caches per-user stats.
type StatsService interface {
	Get(ctx context.Context, userID string) (*models.Stats, error)
	Invalidate(ctx context.Context, userID string)
}

// EventPublisher sends todo activity events.
type EventPublisher interface {
	PublishTodoEvent(ctx context.Context, ev models.TodoEvent) error
}

// Handler serves the JSON API.
type Handler struct {
	Accounts    Accounts
	Todos       TodoStore
	Categories  CategoryStore
	Stats       StatsService
	Events      EventPublisher
	Location    *time.Location
	PageSize    int
	MaxPageSize int
	Now         func() time.Time
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func (h *Handler) location() *time.Location {
	if h.Location != nil {
		return h.Location
	}
	return time.UTC
}

func statusOf(k apperr.Kind) int {
	switch k {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindAuthentication:
		return http.StatusUnauthorized
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// respondError writes the error body for err; anything that is not an *apperr.Error is a 500.
func respondError(c *gin.Context, err error) {
	ctx := c.Request.Context()
	var e *apperr.Error
	if !errors.As(err, &e) || e.Kind == apperr.KindInternal {
		if ctx.Err() != nil && isContextErr(err) {
			c.Status(499)
			return
		}
		logger.Error(ctx, "Request failed", "error", err, "path", c.FullPath())
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   apperr.KindInternal.String(),
			"message": "A server error occurred.",
		})
		return
	}
	body := gin.H{"error": e.Kind.String(), "message": e.Message}
	if len(e.Fields) > 0 {
		body["details"] = e.Fields
	}
	c.JSON(statusOf(e.Kind), body)
}

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		validate.Register(v)
	}
}

// bind decodes the JSON body into dst with gin's binding, which also checks the binding tags.
func bind(c *gin.Context, dst interface{}, msg string) error {
	return bindError(c.ShouldBindJSON(dst), msg)
}

// bindStrict is bind that also rejects keys dst does not declare.
func bindStrict(c *gin.Context, dst interface{}, msg string) error {
	dec := json.NewDecoder(c.Request.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return bindError(err, msg)
	}
	return bindError(binding.Validator.ValidateStruct(dst), msg)
}

// bindError maps a decode or validation failure to a 400 with per-field details.
func bindError(err error, msg string) error {
	if err == nil {
		return nil
	}
	verr := apperr.Validation(msg)
	if verr.AddFieldErrors(err) {
		return verr
	}
	if errors.Is(err, io.EOF) {
		return apperr.Validation("Request body is required.")
	}
	return apperr.Validation("Invalid JSON body.").WithField("body", err.Error())
}

// emit drops the caller's cached stats and publishes an activity event.
func (h *Handler) emit(c *gin.Context, action string, ids []string, count int64, detail string) {
	ctx := c.Request.Context()
	userID := middleware.UserID(c)
	if h.Stats != nil {
		h.Stats.Invalidate(ctx, userID)
	}
	if h.Events == nil {
		return
	}
	err := h.Events.PublishTodoEvent(ctx, models.TodoEvent{
		Action:     action,
		UserID:     userID,
		IDs:        ids,
		Count:      count,
		Detail:     detail,
		OccurredAt: h.now().UTC(),
	})
	if err != nil {
		logger.Warn(ctx, "Publish todo event failed", "error", err, "action", action)
	}
}
