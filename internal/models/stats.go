package models

// Stats is the aggregate view over one user's todos.
type Stats struct {
	TotalTodos      int64                    `json:"total_todos"`
	CompletedTodos  int64                    `json:"completed_todos"`
	PendingTodos    int64                    `json:"pending_todos"`
	CompletionRate  float64                  `json:"completion_rate"`
	OverdueTodos    int64                    `json:"overdue_todos"`
	TodayCompleted  int64                    `json:"today_completed"`
	WeekCompleted   int64                    `json:"week_completed"`
	CategoriesStats map[string]CategoryStats `json:"categories_stats"`
}

// CategoryStats counts the todos tagged with one category.
type CategoryStats struct {
	Total     int64 `json:"total"`
	Completed int64 `json:"completed"`
	Pending   int64 `json:"pending"`
}

// TodoCounts are the raw counters Stats is derived from.
type TodoCounts struct {
	Total          int64 `db:"total"`
	Completed      int64 `db:"completed"`
	Overdue        int64 `db:"overdue"`
	TodayCompleted int64 `db:"today_completed"`
	WeekCompleted  int64 `db:"week_completed"`
}
