package models

import "time"

// DefaultCategoryColor is used when a category is created without a color.
const DefaultCategoryColor = "#3B82F6"

// Category groups todos; names are unique per owner.
type Category struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"-" db:"user_id"`
	Name      string    `json:"name" db:"name"`
	Color     string    `json:"color" db:"color"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
	TodoCount *int      `json:"todo_count,omitempty" db:"todo_count"`
}

// CategoryInput carries the fields accepted on create/update; nil keeps the current value.
type CategoryInput struct {
	Name  *string
	Color *string
}
