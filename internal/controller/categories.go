package controller

import (
	"net/http"
	"strings"

	"todo-api/internal/middleware"
	"todo-api/internal/models"

	"github.com/gin-gonic/gin"
)

// categoryBody is the create and PUT payload.
type categoryBody struct {
	Name  string  `json:"name" binding:"required,notblank,max=100"`
	Color *string `json:"color" binding:"omitempty,hexcolor,len=7"`
}

// categoryPatchBody is the PATCH payload.
type categoryPatchBody struct {
	Name  *string `json:"name" binding:"omitempty,notblank,max=100"`
	Color *string `json:"color" binding:"omitempty,hexcolor,len=7"`
}

func categoryInput(name, color *string) models.CategoryInput {
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		name = &trimmed
	}
	return models.CategoryInput{Name: name, Color: color}
}

// ListCategories returns the caller's categories, newest first.
func (h *Handler) ListCategories(c *gin.Context) {
	cats, err := h.Categories.List(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if cats == nil {
		cats = []models.Category{}
	}
	c.JSON(http.StatusOK, cats)
}

// CreateCategory adds a category; a duplicate name for the caller is a conflict.
func (h *Handler) CreateCategory(c *gin.Context) {
	var body categoryBody
	if err := bind(c, &body, "Category data is invalid."); err != nil {
		respondError(c, err)
		return
	}
	cat, err := h.Categories.Create(c.Request.Context(), middleware.UserID(c), categoryInput(&body.Name, body.Color))
	if err != nil {
		respondError(c, err)
		return
	}
	h.emit(c, models.EventCategoryChanged, []string{cat.ID}, 1, "created")
	c.JSON(http.StatusCreated, cat)
}

// GetCategory returns one of the caller's categories.
func (h *Handler) GetCategory(c *gin.Context) {
	cat, err := h.Categories.Get(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cat)
}

// ReplaceCategory is PUT and requires name.
func (h *Handler) ReplaceCategory(c *gin.Context) {
	var body categoryBody
	if err := bind(c, &body, "Category data is invalid."); err != nil {
		respondError(c, err)
		return
	}
	h.updateCategory(c, categoryInput(&body.Name, body.Color))
}

// PatchCategory is PATCH.
func (h *Handler) PatchCategory(c *gin.Context) {
	var body categoryPatchBody
	if err := bind(c, &body, "Category data is invalid."); err != nil {
		respondError(c, err)
		return
	}
	h.updateCategory(c, categoryInput(body.Name, body.Color))
}

func (h *Handler) updateCategory(c *gin.Context, in models.CategoryInput) {
	cat, err := h.Categories.Update(c.Request.Context(), middleware.UserID(c), c.Param("id"), in)
	if err != nil {
		respondError(c, err)
		return
	}
	h.emit(c, models.EventCategoryChanged, []string{cat.ID}, 1, "updated")
	c.JSON(http.StatusOK, cat)
}

// DeleteCategory removes a category and its todo associations; the todos stay.
func (h *Handler) DeleteCategory(c *gin.Context) {
	id := c.Param("id")
	if err := h.Categories.Delete(c.Request.Context(), middleware.UserID(c), id); err != nil {
		respondError(c, err)
		return
	}
	h.emit(c, models.EventCategoryDeleted, []string{id}, 1, "")
	c.Status(http.StatusNoContent)
}
