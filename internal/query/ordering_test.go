package query

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"todo-api/internal/apperr"
)

func TestDefaultOrdering(t *testing.T) {
	f := NewTodoFilter(owner, now, nil)
	assert.Equal(t, []string{"t.order_index ASC", "t.created_at DESC", "t.id ASC"}, f.OrderBy())
}

func TestParseOrdering(t *testing.T) {
	f := NewTodoFilter(owner, now, nil)
	f.Ordering = ParseOrdering("-due_date, priority ,password,-nope")
	assert.Equal(t, []string{
		"t.due_date DESC",
		"CASE t.priority WHEN 'low' THEN 0 WHEN 'medium' THEN 1 ELSE 2 END ASC",
		"t.id ASC",
	}, f.OrderBy())

	assert.Empty(t, ParseOrdering("unknown"))
	assert.Empty(t, ParseOrdering(""))
}

func TestParsePage(t *testing.T) {
	p, err := ParsePage(url.Values{}, 20, 100)
	require.NoError(t, err)
	assert.Equal(t, Page{Number: 1, Size: 20}, p)
	assert.Equal(t, uint64(0), p.Offset())

	p, err = ParsePage(url.Values{"page": {"3"}, "page_size": {"500"}}, 20, 100)
	require.NoError(t, err)
	assert.Equal(t, Page{Number: 3, Size: 100}, p)
	assert.Equal(t, uint64(200), p.Offset())

	p, err = ParsePage(url.Values{"page_size": {"abc"}}, 20, 100)
	require.NoError(t, err)
	assert.Equal(t, 20, p.Size)

	_, err = ParsePage(url.Values{"page": {"0"}}, 20, 100)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestPageInRange(t *testing.T) {
	assert.NoError(t, Page{Number: 1, Size: 10}.CheckInRange(0))
	assert.NoError(t, Page{Number: 2, Size: 10}.CheckInRange(11))
	assert.Error(t, Page{Number: 2, Size: 10}.CheckInRange(10))
	assert.NoError(t, Page{Number: 3, Size: 10}.CheckInRange(21))
	assert.Error(t, Page{Number: 4, Size: 10}.CheckInRange(21))
}

func TestHugePageIsNotFound(t *testing.T) {
	p, err := ParsePage(url.Values{"page": {"9223372036854775807"}, "page_size": {"50"}}, 20, 100)
	require.NoError(t, err)
	err = p.CheckInRange(10)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	assert.Equal(t, uint64(40), Page{Number: 3, Size: 20}.Offset())
}
