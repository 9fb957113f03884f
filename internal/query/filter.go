// Package query turns list parameters into owner-scoped, composable SQL predicates.
//
// Every TodoFilter starts from "t.user_id = caller" and each present parameter adds one
// independent predicate, so the order in which parameters arrive never matters.
// The todos table is always aliased as t.
package query

import (
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"todo-api/internal/apperr"
	"todo-api/internal/models"
)

// DateLayout is the accepted format for calendar-date parameters.
const DateLayout = "2006-01-02"

// TodoFilter holds the parsed list criteria for one caller.
type TodoFilter struct {
	UserID string

	Completed  *bool
	Priority   *models.Priority
	CategoryID *string

	DueDate    *time.Time
	DueDateGTE *time.Time
	DueDateLTE *time.Time

	CreatedAt    *time.Time
	CreatedAtGTE *time.Time
	CreatedAtLTE *time.Time

	Overdue     bool
	DueToday    bool
	DueThisWeek bool

	Search   []string
	Ordering []OrderField

	Now      time.Time
	Location *time.Location
}

// NewTodoFilter returns an unfiltered, user-scoped filter.
func NewTodoFilter(userID string, now time.Time, loc *time.Location) TodoFilter {
	if loc == nil {
		loc = time.UTC
	}
	return TodoFilter{UserID: userID, Now: now, Location: loc}
}

// ParseTodoFilter reads filter, search and ordering parameters from v.
// Malformed values yield a validation error; absent ones are ignored.
func ParseTodoFilter(userID string, v url.Values, now time.Time, loc *time.Location) (TodoFilter, error) {
	f := NewTodoFilter(userID, now, loc)
	verr := apperr.Validation("Invalid filter parameters.")

	if b, ok, err := boolParam(v, "completed"); err != nil {
		verr.WithField("completed", err.Error())
	} else if ok {
		f.Completed = &b
	}

	if s := strings.TrimSpace(v.Get("priority")); s != "" {
		p := models.Priority(s)
		if !p.Valid() {
			verr.WithField("priority", "must be one of low, medium, high")
		} else {
			f.Priority = &p
		}
	}

	if s := strings.TrimSpace(v.Get("category")); s != "" {
		if _, err := uuid.Parse(s); err != nil {
			verr.WithField("category", "must be a valid UUID")
		} else {
			f.CategoryID = &s
		}
	}

	dates := []struct {
		name string
		dst  **time.Time
	}{
		{"due_date", &f.DueDate},
		{"due_date_gte", &f.DueDateGTE},
		{"due_date_lte", &f.DueDateLTE},
		{"created_at", &f.CreatedAt},
		{"created_at_gte", &f.CreatedAtGTE},
		{"created_at_lte", &f.CreatedAtLTE},
	}
	for _, d := range dates {
		s := strings.TrimSpace(v.Get(d.name))
		if s == "" {
			continue
		}
		t, err := time.Parse(DateLayout, s)
		if err != nil {
			verr.WithField(d.name, "must be a date in YYYY-MM-DD format")
			continue
		}
		*d.dst = &t
	}

	flags := []struct {
		name string
		dst  *bool
	}{
		{"overdue", &f.Overdue},
		{"due_today", &f.DueToday},
		{"due_this_week", &f.DueThisWeek},
	}
	for _, fl := range flags {
		b, ok, err := boolParam(v, fl.name)
		if err != nil {
			verr.WithField(fl.name, err.Error())
			continue
		}
		*fl.dst = ok && b
	}

	if len(verr.Fields) > 0 {
		return TodoFilter{}, verr
	}

	f.Search = SearchTerms(v.Get("search"))
	f.Ordering = ParseOrdering(v.Get("ordering"))
	return f, nil
}

var errNotBool = errors.New("must be true or false")

func boolParam(v url.Values, name string) (value bool, present bool, err error) {
	s := strings.TrimSpace(v.Get(name))
	if s == "" {
		return false, false, nil
	}
	b, perr := strconv.ParseBool(s)
	if perr != nil {
		return false, false, errNotBool
	}
	return b, true, nil
}

// SearchTerms splits a search string on whitespace and commas.
func SearchTerms(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
}

// Today is the caller's current calendar date in the configured location.
func (f TodoFilter) Today() time.Time {
	n := f.Now.In(f.Location)
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, time.UTC)
}

// WeekBounds returns Monday and Sunday of the current week as calendar dates.
func (f TodoFilter) WeekBounds() (time.Time, time.Time) {
	today := f.Today()
	offset := (int(today.Weekday()) + 6) % 7
	monday := today.AddDate(0, 0, -offset)
	return monday, monday.AddDate(0, 0, 6)
}

// localDate renders a timestamptz column as a calendar date in the filter's location.
func (f TodoFilter) localDate(col string, op string, d time.Time) sq.Sqlizer {
	return sq.Expr("("+col+" AT TIME ZONE ?)::date "+op+" ?::date", f.Location.String(), d.Format(DateLayout))
}

// Where builds the conjunction of every present predicate.
func (f TodoFilter) Where() sq.And {
	w := sq.And{sq.Eq{"t.user_id": f.UserID}}

	if f.Completed != nil {
		w = append(w, sq.Eq{"t.completed": *f.Completed})
	}
	if f.Priority != nil {
		w = append(w, sq.Eq{"t.priority": string(*f.Priority)})
	}
	if f.CategoryID != nil {
		// A category owned by someone else resolves to no rows.
		w = append(w, sq.Expr(`EXISTS (SELECT 1 FROM todo_categories tc JOIN categories c ON c.id = tc.category_id
			WHERE tc.todo_id = t.id AND c.id = ? AND c.user_id = ?)`, *f.CategoryID, f.UserID))
	}

	if f.DueDate != nil {
		w = append(w, f.localDate("t.due_date", "=", *f.DueDate))
	}
	if f.DueDateGTE != nil {
		w = append(w, f.localDate("t.due_date", ">=", *f.DueDateGTE))
	}
	if f.DueDateLTE != nil {
		w = append(w, f.localDate("t.due_date", "<=", *f.DueDateLTE))
	}
	if f.CreatedAt != nil {
		w = append(w, f.localDate("t.created_at", "=", *f.CreatedAt))
	}
	if f.CreatedAtGTE != nil {
		w = append(w, f.localDate("t.created_at", ">=", *f.CreatedAtGTE))
	}
	if f.CreatedAtLTE != nil {
		w = append(w, f.localDate("t.created_at", "<=", *f.CreatedAtLTE))
	}

	if f.Overdue {
		w = append(w, sq.Lt{"t.due_date": f.Now}, sq.Eq{"t.completed": false})
	}
	if f.DueToday {
		w = append(w, f.localDate("t.due_date", "=", f.Today()))
	}
	if f.DueThisWeek {
		monday, sunday := f.WeekBounds()
		w = append(w, f.localDate("t.due_date", ">=", monday), f.localDate("t.due_date", "<=", sunday))
	}

	for _, term := range f.Search {
		pattern := "%" + escapeLike(term) + "%"
		w = append(w, sq.Or{
			sq.ILike{"t.name": pattern},
			sq.ILike{"t.description": pattern},
		})
	}
	return w
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
