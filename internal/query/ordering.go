package query

import (
	"net/url"
	"strconv"
	"strings"

	"todo-api/internal/apperr"
)

// OrderField is one ORDER BY term requested by the caller.
type OrderField struct {
	Field string
	Desc  bool
}

// orderable maps public field names to SQL expressions.
var orderable = map[string]string{
	"created_at":  "t.created_at",
	"updated_at":  "t.updated_at",
	"due_date":    "t.due_date",
	"order_index": "t.order_index",
	"priority":    "CASE t.priority WHEN 'low' THEN 0 WHEN 'medium' THEN 1 ELSE 2 END",
}

// DefaultOrdering lists by manual order, newest first within the same index.
var DefaultOrdering = []OrderField{
	{Field: "order_index"},
	{Field: "created_at", Desc: true},
}

// ParseOrdering reads a comma separated list such as "-due_date,priority".
// Unknown fields are dropped; an empty result means the default ordering.
func ParseOrdering(s string) []OrderField {
	var out []OrderField
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		desc := strings.HasPrefix(part, "-")
		name := strings.TrimPrefix(part, "-")
		if _, ok := orderable[name]; !ok {
			continue
		}
		out = append(out, OrderField{Field: name, Desc: desc})
	}
	return out
}

// OrderBy returns ORDER BY expressions for the filter, falling back to DefaultOrdering.
// t.id is appended so pagination is stable.
func (f TodoFilter) OrderBy() []string {
	fields := f.Ordering
	if len(fields) == 0 {
		fields = DefaultOrdering
	}
	out := make([]string, 0, len(fields)+1)
	for _, o := range fields {
		expr := orderable[o.Field]
		if o.Desc {
			expr += " DESC"
		} else {
			expr += " ASC"
		}
		out = append(out, expr)
	}
	return append(out, "t.id ASC")
}

// Page is a 1-based page request.
type Page struct {
	Number int
	Size   int
}

// Offset is the number of rows skipped before this page.
func (p Page) Offset() uint64 {
	return uint64(p.Number-1) * uint64(p.Size)
}

// ParsePage reads page and page_size. A malformed page is a not-found error;
// a malformed or oversized page_size falls back to the default or the maximum.
func ParsePage(v url.Values, defaultSize, maxSize int) (Page, error) {
	p := Page{Number: 1, Size: defaultSize}
	if s := strings.TrimSpace(v.Get("page")); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return Page{}, apperr.NotFound("Invalid page.")
		}
		p.Number = n
	}
	if s := strings.TrimSpace(v.Get("page_size")); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			p.Size = n
		}
	}
	if maxSize > 0 && p.Size > maxSize {
		p.Size = maxSize
	}
	if p.Size < 1 {
		p.Size = 1
	}
	return p, nil
}

// CheckInRange reports a not-found error when a page beyond the first has no rows.
func (p Page) CheckInRange(total int) error {
	pages := 0
	if total > 0 {
		pages = (total-1)/p.Size + 1
	}
	if p.Number > pages && p.Number > 1 {
		return apperr.NotFound("Invalid page.")
	}
	return nil
}
