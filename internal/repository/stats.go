package repository

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"todo-api/internal/models"
)

// StatsRepo runs the aggregate queries behind the stats endpoint.
type StatsRepo struct{ DB *sqlx.DB }

func NewStatsRepo(db *sqlx.DB) *StatsRepo { return &StatsRepo{DB: db} }

// TodoCounts counts the caller's todos in a single pass.
func (r *StatsRepo) TodoCounts(ctx context.Context, userID string, now, todayStart, weekStart time.Time) (models.TodoCounts, error) {
	var c models.TodoCounts
	err := getSq(ctx, r.DB, &c, psql.Select(
		"COUNT(*) AS total",
		"COUNT(*) FILTER (WHERE completed) AS completed",
	).
		Column(sq.Expr("COUNT(*) FILTER (WHERE due_date < ? AND NOT completed) AS overdue", now)).
		Column(sq.Expr("COUNT(*) FILTER (WHERE completed AND completed_at >= ?) AS today_completed", todayStart)).
		Column(sq.Expr("COUNT(*) FILTER (WHERE completed AND completed_at >= ?) AS week_completed", weekStart)).
		From("todos").
		Where(sq.Eq{"user_id": userID}))
	if err != nil {
		logFailure(ctx, "TodoCounts", err, "user_id", userID)
		return models.TodoCounts{}, fmt.Errorf("todo counts: %w", err)
	}
	return c, nil
}

type categoryCountRow struct {
	Name      string `db:"name"`
	Total     int64  `db:"total"`
	Completed int64  `db:"completed"`
}

// CategoryCounts returns totals for every category the caller owns, including empty ones.
func (r *StatsRepo) CategoryCounts(ctx context.Context, userID string) (map[string]models.CategoryStats, error) {
	var rows []categoryCountRow
	err := selectSq(ctx, r.DB, &rows, psql.Select(
		"c.name",
		"COUNT(t.id) AS total",
		"COUNT(t.id) FILTER (WHERE t.completed) AS completed",
	).
		From("categories c").
		LeftJoin("todo_categories tc ON tc.category_id = c.id").
		LeftJoin("todos t ON t.id = tc.todo_id").
		Where(sq.Eq{"c.user_id": userID}).
		GroupBy("c.id", "c.name").
		OrderBy("c.name"))
	if err != nil {
		logFailure(ctx, "CategoryCounts", err, "user_id", userID)
		return nil, fmt.Errorf("category counts: %w", err)
	}
	out := make(map[string]models.CategoryStats, len(rows))
	for _, row := range rows {
		out[row.Name] = models.CategoryStats{
			Total:     row.Total,
			Completed: row.Completed,
			Pending:   row.Total - row.Completed,
		}
	}
	return out, nil
}
