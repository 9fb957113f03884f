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

const categoryColumns = "c.id, c.user_id, c.name, c.color, c.created_at, c.updated_at"

const categoryTodoCount = "(SELECT COUNT(*) FROM todo_categories tc WHERE tc.category_id = c.id) AS todo_count"

var errCategoryNotFound = apperr.NotFound("Category not found.")

// CategoryRepo persists categories.
type CategoryRepo struct {
	DB  *sqlx.DB
	now func() time.Time
}

func NewCategoryRepo(db *sqlx.DB) *CategoryRepo { return &CategoryRepo{DB: db, now: time.Now} }

func categoryConflict(err error) error {
	mapped := apperr.FromPostgres(err, "A category with this name already exists.")
	if conflict, ok := mapped.(*apperr.Error); ok {
		return conflict.WithField("name", "A category with this name already exists.")
	}
	return mapped
}

func (r *CategoryRepo) withCount() sq.SelectBuilder {
	return psql.Select(categoryColumns, "COUNT(tc.id) AS todo_count").
		From("categories c").
		LeftJoin("todo_categories tc ON tc.category_id = c.id").
		GroupBy("c.id")
}

// List returns the caller's categories, newest first, with their todo counts.
func (r *CategoryRepo) List(ctx context.Context, userID string) ([]models.Category, error) {
	out := []models.Category{}
	err := selectSq(ctx, r.DB, &out, r.withCount().
		Where(sq.Eq{"c.user_id": userID}).
		OrderBy("c.created_at DESC", "c.id ASC"))
	if err != nil {
		logFailure(ctx, "ListCategories", err, "user_id", userID)
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return out, nil
}

// Get returns one of the caller's categories with its todo count.
func (r *CategoryRepo) Get(ctx context.Context, userID, id string) (*models.Category, error) {
	if !isUUID(id) {
		return nil, errCategoryNotFound
	}
	var c models.Category
	err := getSq(ctx, r.DB, &c, r.withCount().Where(sq.Eq{"c.id": id, "c.user_id": userID}))
	if isNoRows(err) {
		return nil, errCategoryNotFound
	}
	if err != nil {
		logFailure(ctx, "GetCategory", err, "category_id", id)
		return nil, fmt.Errorf("get category: %w", err)
	}
	return &c, nil
}

// Create inserts a category for the caller. Name must be set; color defaults to DefaultCategoryColor.
func (r *CategoryRepo) Create(ctx context.Context, userID string, in models.CategoryInput) (*models.Category, error) {
	now := r.now()
	c := models.Category{
		ID:        uuid.New().String(),
		UserID:    userID,
		Color:     models.DefaultCategoryColor,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if in.Name != nil {
		c.Name = *in.Name
	}
	if in.Color != nil {
		c.Color = *in.Color
	}
	_, err := execSq(ctx, r.DB, psql.Insert("categories").
		Columns("id", "user_id", "name", "color", "created_at", "updated_at").
		Values(c.ID, c.UserID, c.Name, c.Color, c.CreatedAt, c.UpdatedAt))
	if err != nil {
		if mapped := categoryConflict(err); apperr.Is(mapped, apperr.KindConflict) {
			return nil, mapped
		}
		logFailure(ctx, "CreateCategory", err, "user_id", userID)
		return nil, fmt.Errorf("create category: %w", err)
	}
	// A new category has no todos yet.
	zero := 0
	c.TodoCount = &zero
	return &c, nil
}

// Update writes the present fields of one of the caller's categories.
func (r *CategoryRepo) Update(ctx context.Context, userID, id string, in models.CategoryInput) (*models.Category, error) {
	if !isUUID(id) {
		return nil, errCategoryNotFound
	}
	set := map[string]interface{}{"updated_at": r.now()}
	if in.Name != nil {
		set["name"] = *in.Name
	}
	if in.Color != nil {
		set["color"] = *in.Color
	}
	var c models.Category
	err := getSq(ctx, r.DB, &c, psql.Update("categories c").SetMap(set).
		Where(sq.Eq{"c.id": id, "c.user_id": userID}).
		Suffix("RETURNING "+categoryColumns+", "+categoryTodoCount))
	if isNoRows(err) {
		return nil, errCategoryNotFound
	}
	if err != nil {
		if mapped := categoryConflict(err); apperr.Is(mapped, apperr.KindConflict) {
			return nil, mapped
		}
		logFailure(ctx, "UpdateCategory", err, "category_id", id)
		return nil, fmt.Errorf("update category: %w", err)
	}
	return &c, nil
}

// Delete removes one of the caller's categories. Its todo associations go with it; the todos stay.
func (r *CategoryRepo) Delete(ctx context.Context, userID, id string) error {
	if !isUUID(id) {
		return errCategoryNotFound
	}
	n, err := execSq(ctx, r.DB, psql.Delete("categories").Where(sq.Eq{"id": id, "user_id": userID}))
	if err != nil {
		logFailure(ctx, "DeleteCategory", err, "category_id", id)
		return fmt.Errorf("delete category: %w", err)
	}
	if n == 0 {
		return errCategoryNotFound
	}
	return nil
}
