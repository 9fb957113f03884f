package models

import "time"

// Todo activity actions published to the event topic.
const (
	EventTodoCreated      = "todo.created"
	EventTodoUpdated      = "todo.updated"
	EventTodoDeleted      = "todo.deleted"
	EventTodoToggled      = "todo.toggled"
	EventTodosReordered   = "todos.reordered"
	EventTodosBulkUpdated = "todos.bulk_updated"
	EventTodosCleared     = "todos.cleared"
	EventCategoryChanged  = "category.changed"
	EventCategoryDeleted  = "category.deleted"
)

// TodoEvent is the message payload for Kafka.
type TodoEvent struct {
	Action     string    `json:"action"`
	UserID     string    `json:"user_id"`
	IDs        []string  `json:"ids,omitempty"`
	Count      int64     `json:"count,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
