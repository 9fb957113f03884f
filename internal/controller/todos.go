package controller

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"todo-api/internal/apperr"
	"todo-api/internal/middleware"
	"todo-api/internal/models"
	"todo-api/internal/query"

	"github.com/gin-gonic/gin"
)

// todoFields are the optional todo attributes shared by every write.
type todoFields struct {
	Description *string             `json:"description"`
	Completed   *bool               `json:"completed"`
	Priority    *models.Priority    `json:"priority" binding:"omitempty,oneof=low medium high"`
	DueDate     models.NullableTime `json:"due_date"`
	OrderIndex  *int                `json:"order_index"`
	CategoryIDs []string            `json:"category_ids"`
}

// todoBody is the create and PUT payload: name is required.
type todoBody struct {
	Name string `json:"name" binding:"required,notblank,max=500"`
	todoFields
}

// todoPatchBody is the PATCH payload: only present fields change.
type todoPatchBody struct {
	Name *string `json:"name" binding:"omitempty,notblank,max=500"`
	todoFields
}

func (b *todoBody) input() models.TodoInput {
	in := models.TodoInput{
		Name:        strings.TrimSpace(b.Name),
		Priority:    models.PriorityMedium,
		DueDate:     b.DueDate.Ptr(),
		OrderIndex:  b.OrderIndex,
		CategoryIDs: b.CategoryIDs,
	}
	if b.Description != nil {
		in.Description = *b.Description
	}
	if b.Completed != nil {
		in.Completed = *b.Completed
	}
	if b.Priority != nil {
		in.Priority = *b.Priority
	}
	return in
}

func (f *todoFields) patch(name *string) models.TodoPatch {
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		name = &trimmed
	}
	return models.TodoPatch{
		Name:        name,
		Description: f.Description,
		Completed:   f.Completed,
		Priority:    f.Priority,
		DueDate:     f.DueDate,
		CategoryIDs: f.CategoryIDs,
	}
}

// ListTodos returns one page of the caller's todos after filters, search and ordering.
func (h *Handler) ListTodos(c *gin.Context) {
	ctx := c.Request.Context()
	params := c.Request.URL.Query()
	f, err := query.ParseTodoFilter(middleware.UserID(c), params, h.now(), h.location())
	if err != nil {
		respondError(c, err)
		return
	}
	page, err := query.ParsePage(params, h.PageSize, h.MaxPageSize)
	if err != nil {
		respondError(c, err)
		return
	}
	todos, total, err := h.Todos.List(ctx, f, page)
	if err != nil {
		respondError(c, err)
		return
	}
	if todos == nil {
		todos = []models.Todo{}
	}
	c.JSON(http.StatusOK, gin.H{
		"count":     total,
		"page":      page.Number,
		"page_size": page.Size,
		"results":   todos,
	})
}

// CreateTodo adds a todo for the caller.
func (h *Handler) CreateTodo(c *gin.Context) {
	var body todoBody
	if err := bind(c, &body, "Todo data is invalid."); err != nil {
		respondError(c, err)
		return
	}
	todo, err := h.Todos.Create(c.Request.Context(), middleware.UserID(c), body.input())
	if err != nil {
		respondError(c, err)
		return
	}
	h.emit(c, models.EventTodoCreated, []string{todo.ID}, 1, "")
	c.JSON(http.StatusCreated, todo)
}

// GetTodo returns one of the caller's todos.
func (h *Handler) GetTodo(c *gin.Context) {
	todo, err := h.Todos.Get(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, todo)
}

// ReplaceTodo is PUT: name must be present, other absent fields keep their values.
func (h *Handler) ReplaceTodo(c *gin.Context) {
	var body todoBody
	if err := bind(c, &body, "Todo data is invalid."); err != nil {
		respondError(c, err)
		return
	}
	h.updateTodo(c, body.patch(&body.Name))
}

// PatchTodo is PATCH: only present fields change.
func (h *Handler) PatchTodo(c *gin.Context) {
	var body todoPatchBody
	if err := bind(c, &body, "Todo data is invalid."); err != nil {
		respondError(c, err)
		return
	}
	h.updateTodo(c, body.patch(body.Name))
}

func (h *Handler) updateTodo(c *gin.Context, p models.TodoPatch) {
	todo, err := h.Todos.Update(c.Request.Context(), middleware.UserID(c), c.Param("id"), p)
	if err != nil {
		respondError(c, err)
		return
	}
	h.emit(c, models.EventTodoUpdated, []string{todo.ID}, 1, "")
	c.JSON(http.StatusOK, todo)
}

// DeleteTodo removes one of the caller's todos.
func (h *Handler) DeleteTodo(c *gin.Context) {
	id := c.Param("id")
	if err := h.Todos.Delete(c.Request.Context(), middleware.UserID(c), id); err != nil {
		respondError(c, err)
		return
	}
	h.emit(c, models.EventTodoDeleted, []string{id}, 1, "")
	c.Status(http.StatusNoContent)
}

// ToggleTodo flips the completed flag.
func (h *Handler) ToggleTodo(c *gin.Context) {
	todo, err := h.Todos.Toggle(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	h.emit(c, models.EventTodoToggled, []string{todo.ID}, 1, strconv.FormatBool(todo.Completed))
	c.JSON(http.StatusOK, todo)
}

// ReorderTodos applies {"todo_orders": [{"id", "order_index"}]} in one write.
// order_index may be a JSON number or a numeric string; ids the caller does not own are skipped.
func (h *Handler) ReorderTodos(c *gin.Context) {
	var body struct {
		TodoOrders []map[string]interface{} `json:"todo_orders" binding:"required"`
	}
	if err := bind(c, &body, "Reorder data is invalid."); err != nil {
		respondError(c, err)
		return
	}
	orders, err := parseTodoOrders(body.TodoOrders)
	if err != nil {
		respondError(c, err)
		return
	}
	n, err := h.Todos.Reorder(c.Request.Context(), middleware.UserID(c), orders)
	if err != nil {
		respondError(c, err)
		return
	}
	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	h.emit(c, models.EventTodosReordered, ids, n, "")
	c.JSON(http.StatusOK, gin.H{"message": "Todos reordered successfully.", "count": n})
}

func parseTodoOrders(items []map[string]interface{}) ([]models.TodoOrder, error) {
	orders := make([]models.TodoOrder, 0, len(items))
	for i, item := range items {
		rawID, hasID := item["id"]
		rawIdx, hasIdx := item["order_index"]
		if !hasID || !hasIdx || rawID == nil {
			return nil, apperr.Validation("Reorder data is invalid.").
				WithField(fmt.Sprintf("todo_orders[%d]", i), "Each entry needs id and order_index.")
		}
		idx, ok := coerceInt(rawIdx)
		if !ok {
			return nil, apperr.Validation("Reorder data is invalid.").
				WithField(fmt.Sprintf("todo_orders[%d].order_index", i), "A valid integer is required.")
		}
		orders = append(orders, models.TodoOrder{ID: fmt.Sprint(rawID), OrderIndex: idx})
	}
	return orders, nil
}

func coerceInt(v interface{}) (int, bool) {
	switch x := v.(type) {
	case float64:
		if x != math.Trunc(x) || math.Abs(x) > math.MaxInt32 {
			return 0, false
		}
		return int(x), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(x))
		if err != nil || n > math.MaxInt32 || n < math.MinInt32 {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

// BulkUpdateTodos applies one action to the caller's todos among todo_ids.
func (h *Handler) BulkUpdateTodos(c *gin.Context) {
	var body struct {
		TodoIDs []string          `json:"todo_ids" binding:"required,dive,uuid"`
		Action  models.BulkAction `json:"action" binding:"required,oneof=complete incomplete delete"`
	}
	if err := bind(c, &body, "Bulk update data is invalid."); err != nil {
		respondError(c, err)
		return
	}
	n, err := h.Todos.BulkUpdate(c.Request.Context(), middleware.UserID(c), body.TodoIDs, body.Action)
	if err != nil {
		respondError(c, err)
		return
	}
	h.emit(c, models.EventTodosBulkUpdated, body.TodoIDs, n, string(body.Action))
	var msg string
	switch body.Action {
	case models.BulkComplete:
		msg = fmt.Sprintf("%d todos marked as completed.", n)
	case models.BulkIncomplete:
		msg = fmt.Sprintf("%d todos marked as incomplete.", n)
	default:
		msg = fmt.Sprintf("%d todos deleted.", n)
	}
	c.JSON(http.StatusOK, gin.H{"message": msg, "count": n})
}

// ClearCompleted deletes every completed todo of the caller.
func (h *Handler) ClearCompleted(c *gin.Context) {
	n, err := h.Todos.ClearCompleted(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	h.emit(c, models.EventTodosCleared, nil, n, "")
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("%d completed todos deleted.", n), "count": n})
}

// GetStats returns the caller's aggregate counts.
func (h *Handler) GetStats(c *gin.Context) {
	s, err := h.Stats.Get(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}
