package models

import (
	"bytes"
	"encoding/json"
	"time"
)

// Priority is the urgency of a todo.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Todo represents a todo item owned by one user.
type Todo struct {
	ID          string     `json:"id" db:"id"`
	UserID      string     `json:"-" db:"user_id"`
	Name        string     `json:"name" db:"name"`
	Description string     `json:"description" db:"description"`
	Completed   bool       `json:"completed" db:"completed"`
	OrderIndex  int        `json:"order_index" db:"order_index"`
	Priority    Priority   `json:"priority" db:"priority"`
	DueDate     *time.Time `json:"due_date" db:"due_date"`
	CompletedAt *time.Time `json:"completed_at" db:"completed_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
	Categories  []Category `json:"categories" db:"-"`
}

// ApplyCompletion keeps CompletedAt in step with Completed for single-row saves.
// prev is the completed flag as last persisted, nil for a row that does not exist yet.
// Bulk writes set both columns directly and do not go through here.
func (t *Todo) ApplyCompletion(prev *bool, now time.Time) {
	changed := prev == nil || *prev != t.Completed
	switch {
	case t.Completed && changed:
		ts := now
		t.CompletedAt = &ts
	case !t.Completed && changed:
		t.CompletedAt = nil
	}
}

// TodoInput carries the fields accepted when creating a todo.
type TodoInput struct {
	Name        string
	Description string
	Completed   bool
	Priority    Priority
	DueDate     *time.Time
	OrderIndex  *int
	CategoryIDs []string
}

// TodoPatch carries an update; nil fields are left untouched.
// CategoryIDs == nil keeps the associations, a non-nil slice replaces them wholesale.
type TodoPatch struct {
	Name        *string
	Description *string
	Completed   *bool
	Priority    *Priority
	DueDate     NullableTime
	CategoryIDs []string
}

// Apply copies the present fields of p onto t.
func (p TodoPatch) Apply(t *Todo) {
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.DueDate.Set {
		if p.DueDate.Valid {
			d := p.DueDate.Time
			t.DueDate = &d
		} else {
			t.DueDate = nil
		}
	}
}

// NullableTime distinguishes an absent JSON field (Set=false) from an explicit null (Set=true, Valid=false).
type NullableTime struct {
	Set   bool
	Valid bool
	Time  time.Time
}

// UnmarshalJSON is only called when the key is present in the document.
func (n *NullableTime) UnmarshalJSON(b []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		n.Valid = false
		return nil
	}
	if err := json.Unmarshal(b, &n.Time); err != nil {
		return err
	}
	n.Valid = true
	return nil
}

// Ptr returns the time as a pointer, nil when unset or null.
func (n NullableTime) Ptr() *time.Time {
	if !n.Set || !n.Valid {
		return nil
	}
	t := n.Time
	return &t
}

// TodoOrder is one entry of a reorder request after validation.
type TodoOrder struct {
	ID         string
	OrderIndex int
}

// BulkAction is the operation applied by a bulk update.
type BulkAction string

const (
	BulkComplete   BulkAction = "complete"
	BulkIncomplete BulkAction = "incomplete"
	BulkDelete     BulkAction = "delete"
)

// Valid reports whether a is a supported bulk action.
func (a BulkAction) Valid() bool {
	switch a {
	case BulkComplete, BulkIncomplete, BulkDelete:
		return true
	}
	return false
}
