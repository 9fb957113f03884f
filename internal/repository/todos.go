package repository

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"todo-api/internal/apperr"
	"todo-api/internal/database"
	"todo-api/internal/models"
	"todo-api/internal/query"
)

const todoColumns = "t.id, t.user_id, t.name, t.description, t.completed, t.order_index, t.priority, " +
	"t.due_date, t.completed_at, t.created_at, t.updated_at"

var errTodoNotFound = apperr.NotFound("Todo not found.")

// TodoRepo persists todos and their category associations.
type TodoRepo struct {
	DB  *sqlx.DB
	now func() time.Time
}

func NewTodoRepo(db *sqlx.DB) *TodoRepo { return &TodoRepo{DB: db, now: time.Now} }

// List returns one page of the caller's todos matching f, and the total number of matches.
func (r *TodoRepo) List(ctx context.Context, f query.TodoFilter, page query.Page) ([]models.Todo, int, error) {
	var total int
	if err := getSq(ctx, r.DB, &total, psql.Select("COUNT(*)").From("todos t").Where(f.Where())); err != nil {
		logFailure(ctx, "CountTodos", err, "user_id", f.UserID)
		return nil, 0, fmt.Errorf("count todos: %w", err)
	}
	if err := page.CheckInRange(total); err != nil {
		return nil, 0, err
	}

	todos := []models.Todo{}
	err := selectSq(ctx, r.DB, &todos, psql.Select(todoColumns).From("todos t").
		Where(f.Where()).
		OrderBy(f.OrderBy()...).
		Limit(uint64(page.Size)).
		Offset(page.Offset()))
	if err != nil {
		logFailure(ctx, "ListTodos", err, "user_id", f.UserID)
		return nil, 0, fmt.Errorf("list todos: %w", err)
	}
	if err := loadCategories(ctx, r.DB, f.UserID, todos); err != nil {
		return nil, 0, err
	}
	return todos, total, nil
}

// Get returns one of the caller's todos with its categories.
func (r *TodoRepo) Get(ctx context.Context, userID, id string) (*models.Todo, error) {
	t, err := getTodo(ctx, r.DB, userID, id, false)
	if err != nil {
		return nil, err
	}
	todos := []models.Todo{*t}
	if err := loadCategories(ctx, r.DB, userID, todos); err != nil {
		return nil, err
	}
	return &todos[0], nil
}

// Create inserts a todo for the caller. Without an explicit order index the todo goes
// after the caller's current maximum.
func (r *TodoRepo) Create(ctx context.Context, userID string, in models.TodoInput) (*models.Todo, error) {
	now := r.now()
	t := models.Todo{
		ID:          uuid.New().String(),
		UserID:      userID,
		Name:        in.Name,
		Description: in.Description,
		Completed:   in.Completed,
		Priority:    in.Priority,
		DueDate:     in.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if t.Priority == "" {
		t.Priority = models.PriorityMedium
	}
	t.ApplyCompletion(nil, now)

	err := database.WithTx(ctx, r.DB, func(tx *sqlx.Tx) error {
		if in.OrderIndex != nil {
			t.OrderIndex = *in.OrderIndex
		} else {
			err := getSq(ctx, tx, &t.OrderIndex, psql.Select("COALESCE(MAX(order_index), 0) + 1").
				From("todos").
				Where(sq.Eq{"user_id": userID}))
			if err != nil {
				return fmt.Errorf("next order index: %w", err)
			}
		}
		_, err := execSq(ctx, tx, psql.Insert("todos").
			Columns("id", "user_id", "name", "description", "completed", "order_index", "priority",
				"due_date", "completed_at", "created_at", "updated_at").
			Values(t.ID, t.UserID, t.Name, t.Description, t.Completed, t.OrderIndex, string(t.Priority),
				t.DueDate, t.CompletedAt, t.CreatedAt, t.UpdatedAt))
		if err != nil {
			return fmt.Errorf("insert todo: %w", err)
		}
		return attachCategories(ctx, tx, t.ID, userID, in.CategoryIDs, now)
	})
	if err != nil {
		logFailure(ctx, "CreateTodo", err, "user_id", userID)
		return nil, err
	}

	todos := []models.Todo{t}
	if err := loadCategories(ctx, r.DB, userID, todos); err != nil {
		return nil, err
	}
	return &todos[0], nil
}

// Update applies p to one of the caller's todos. A non-nil p.CategoryIDs replaces the
// todo's categories wholesale.
func (r *TodoRepo) Update(ctx context.Context, userID, id string, p models.TodoPatch) (*models.Todo, error) {
	return r.save(ctx, userID, id, p.Apply, p.CategoryIDs)
}

// Toggle flips the completed flag of one of the caller's todos.
func (r *TodoRepo) Toggle(ctx context.Context, userID, id string) (*models.Todo, error) {
	return r.save(ctx, userID, id, func(t *models.Todo) { t.Completed = !t.Completed }, nil)
}

// save is the single-row write path: lock, mutate, keep completed_at in step, store.
func (r *TodoRepo) save(ctx context.Context, userID, id string, mutate func(*models.Todo), categoryIDs []string) (*models.Todo, error) {
	var saved models.Todo
	err := database.WithTx(ctx, r.DB, func(tx *sqlx.Tx) error {
		t, err := getTodo(ctx, tx, userID, id, true)
		if err != nil {
			return err
		}
		now := r.now()
		prev := t.Completed
		mutate(t)
		t.ApplyCompletion(&prev, now)
		t.UpdatedAt = now

		_, err = execSq(ctx, tx, psql.Update("todos").
			Set("name", t.Name).
			Set("description", t.Description).
			Set("completed", t.Completed).
			Set("priority", string(t.Priority)).
			Set("due_date", t.DueDate).
			Set("completed_at", t.CompletedAt).
			Set("updated_at", t.UpdatedAt).
			Where(sq.Eq{"id": t.ID, "user_id": userID}))
		if err != nil {
			return fmt.Errorf("update todo: %w", err)
		}

		if categoryIDs != nil {
			if _, err := execSq(ctx, tx, psql.Delete("todo_categories").Where(sq.Eq{"todo_id": t.ID})); err != nil {
				return fmt.Errorf("clear todo categories: %w", err)
			}
			if err := attachCategories(ctx, tx, t.ID, userID, categoryIDs, now); err != nil {
				return err
			}
		}
		saved = *t
		return nil
	})
	if err != nil {
		if !apperr.Is(err, apperr.KindNotFound) {
			logFailure(ctx, "SaveTodo", err, "user_id", userID, "todo_id", id)
		}
		return nil, err
	}

	todos := []models.Todo{saved}
	if err := loadCategories(ctx, r.DB, userID, todos); err != nil {
		return nil, err
	}
	return &todos[0], nil
}

// Delete removes one of the caller's todos.
func (r *TodoRepo) Delete(ctx context.Context, userID, id string) error {
	if !isUUID(id) {
		return errTodoNotFound
	}
	n, err := execSq(ctx, r.DB, psql.Delete("todos").Where(sq.Eq{"id": id, "user_id": userID}))
	if err != nil {
		logFailure(ctx, "DeleteTodo", err, "todo_id", id)
		return fmt.Errorf("delete todo: %w", err)
	}
	if n == 0 {
		return errTodoNotFound
	}
	return nil
}

// Reorder sets order_index for every listed todo the caller owns in one statement.
// Unknown, foreign or malformed ids are skipped; for a repeated id the last entry wins.
// updated_at is left unchanged.
func (r *TodoRepo) Reorder(ctx context.Context, userID string, orders []models.TodoOrder) (int64, error) {
	last := make(map[string]int, len(orders))
	var ids []string
	for _, o := range orders {
		if !isUUID(o.ID) {
			continue
		}
		if _, seen := last[o.ID]; !seen {
			ids = append(ids, o.ID)
		}
		last[o.ID] = o.OrderIndex
	}
	if len(ids) == 0 {
		return 0, nil
	}

	c := sq.Case("id")
	for _, id := range ids {
		c = c.When(sq.Expr("?::uuid", id), sq.Expr("?::int", last[id]))
	}
	n, err := execSq(ctx, r.DB, psql.Update("todos").
		Set("order_index", c).
		Where(sq.Eq{"user_id": userID, "id": ids}))
	if err != nil {
		logFailure(ctx, "ReorderTodos", err, "user_id", userID)
		return 0, fmt.Errorf("reorder todos: %w", err)
	}
	return n, nil
}

// BulkUpdate applies action to the caller's todos among ids and returns the affected count.
// complete and incomplete write completed and completed_at directly for every matched row,
// without the single-row transition, so re-completing a todo moves its completed_at to now.
func (r *TodoRepo) BulkUpdate(ctx context.Context, userID string, ids []string, action models.BulkAction) (int64, error) {
	ids = validIDs(ids)
	if len(ids) == 0 {
		return 0, nil
	}
	owned := sq.Eq{"user_id": userID, "id": ids}

	var b sq.Sqlizer
	switch action {
	case models.BulkComplete:
		b = psql.Update("todos").Set("completed", true).Set("completed_at", r.now()).Where(owned)
	case models.BulkIncomplete:
		b = psql.Update("todos").Set("completed", false).Set("completed_at", nil).Where(owned)
	case models.BulkDelete:
		b = psql.Delete("todos").Where(owned)
	default:
		return 0, apperr.Validation("Invalid action.").WithField("action", "must be one of complete, incomplete, delete")
	}
	n, err := execSq(ctx, r.DB, b)
	if err != nil {
		logFailure(ctx, "BulkUpdateTodos", err, "user_id", userID, "action", string(action))
		return 0, fmt.Errorf("bulk %s: %w", action, err)
	}
	return n, nil
}

// ClearCompleted deletes all of the caller's completed todos.
func (r *TodoRepo) ClearCompleted(ctx context.Context, userID string) (int64, error) {
	n, err := execSq(ctx, r.DB, psql.Delete("todos").Where(sq.Eq{"user_id": userID, "completed": true}))
	if err != nil {
		logFailure(ctx, "ClearCompleted", err, "user_id", userID)
		return 0, fmt.Errorf("clear completed: %w", err)
	}
	return n, nil
}

func getTodo(ctx context.Context, q sqlx.QueryerContext, userID, id string, forUpdate bool) (*models.Todo, error) {
	if !isUUID(id) {
		return nil, errTodoNotFound
	}
	b := psql.Select(todoColumns).From("todos t").Where(sq.Eq{"t.id": id, "t.user_id": userID})
	if forUpdate {
		b = b.Suffix("FOR UPDATE")
	}
	var t models.Todo
	err := getSq(ctx, q, &t, b)
	if isNoRows(err) {
		return nil, errTodoNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get todo: %w", err)
	}
	return &t, nil
}

// attachCategories links the todo to every id that names a category owned by userID.
// Other ids are ignored.
func attachCategories(ctx context.Context, e sqlx.ExecerContext, todoID, userID string, categoryIDs []string, now time.Time) error {
	ids := validIDs(categoryIDs)
	if len(ids) == 0 {
		return nil
	}
	_, err := e.ExecContext(ctx, `INSERT INTO todo_categories (todo_id, category_id, created_at)
		SELECT $1, c.id, $2 FROM categories c
		WHERE c.user_id = $3 AND c.id = ANY($4::uuid[])
		ON CONFLICT (todo_id, category_id) DO NOTHING`,
		todoID, now, userID, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("attach categories: %w", err)
	}
	return nil
}

type todoCategoryRow struct {
	TodoID string `db:"todo_id"`
	models.Category
}

// loadCategories fills Categories on every todo in place.
func loadCategories(ctx context.Context, q sqlx.QueryerContext, userID string, todos []models.Todo) error {
	if len(todos) == 0 {
		return nil
	}
	ids := make([]string, len(todos))
	index := make(map[string]int, len(todos))
	for i := range todos {
		ids[i] = todos[i].ID
		index[todos[i].ID] = i
		todos[i].Categories = []models.Category{}
	}

	var rows []todoCategoryRow
	err := selectSq(ctx, q, &rows, psql.Select("tc.todo_id", "c.id", "c.user_id", "c.name", "c.color", "c.created_at", "c.updated_at").
		From("todo_categories tc").
		Join("categories c ON c.id = tc.category_id").
		Where(sq.Expr("tc.todo_id = ANY(?::uuid[])", pq.Array(ids))).
		Where(sq.Eq{"c.user_id": userID}).
		OrderBy("c.name ASC"))
	if err != nil {
		logFailure(ctx, "LoadTodoCategories", err, "user_id", userID)
		return fmt.Errorf("load todo categories: %w", err)
	}
	for _, row := range rows {
		if i, ok := index[row.TodoID]; ok {
			todos[i].Categories = append(todos[i].Categories, row.Category)
		}
	}
	return nil
}
