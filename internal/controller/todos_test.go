package controller

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"todo-api/internal/models"
)

func TestCreateTodo(t *testing.T) {
	env := newTestEnv()

	w := env.do(http.MethodPost, "/todos", "token-u1", `{"name":"  Buy milk  ","description":"2L"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "Buy milk", body["name"])
	assert.Equal(t, "medium", body["priority"])
	assert.Equal(t, false, body["completed"])
	assert.Nil(t, body["completed_at"])

	assert.Equal(t, []string{"u1"}, env.stats.invalidated)
	require.Len(t, env.events.events, 1)
	assert.Equal(t, models.EventTodoCreated, env.events.events[0].Action)
	assert.Equal(t, "u1", env.events.events[0].UserID)
}

func TestCreateCompletedTodoStampsCompletedAt(t *testing.T) {
	env := newTestEnv()
	w := env.do(http.MethodPost, "/todos", "token-u1", `{"name":"done already","completed":true,"priority":"high"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["completed"])
	assert.NotNil(t, body["completed_at"])
}

func TestCreateTodoValidation(t *testing.T) {
	env := newTestEnv()
	cases := map[string]string{
		"name":     `{"description":"no name"}`,
		"priority": `{"name":"x","priority":"urgent"}`,
	}
	for field, payload := range cases {
		w := env.do(http.MethodPost, "/todos", "token-u1", payload)
		require.Equal(t, http.StatusBadRequest, w.Code, payload)
		details, ok := decode(t, w)["details"].(map[string]interface{})
		require.True(t, ok)
		assert.Contains(t, details, field)
	}

	w := env.do(http.MethodPost, "/todos", "token-u1", fmt.Sprintf(`{"name":%q}`, strings.Repeat("a", 501)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = env.do(http.MethodPost, "/todos", "token-u1", `{"name":"   "}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, map[string]interface{}{"name": "This field may not be blank."}, decode(t, w)["details"])

	w = env.do(http.MethodPost, "/todos", "token-u1", `{"name":"x","completed":"yes"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = env.do(http.MethodPost, "/todos", "token-u1", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Request body is required.", decode(t, w)["message"])
	assert.Empty(t, env.events.events)
}

func TestPatchTodoValidatesPresentFieldsOnly(t *testing.T) {
	env := newTestEnv()
	todo := env.todos.seed("u1", "keep", false)

	w := env.do(http.MethodPatch, "/todos/"+todo.ID, "token-u1", `{"priority":"urgent"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, `"urgent" is not a valid choice.`, decode(t, w)["details"].(map[string]interface{})["priority"])

	w = env.do(http.MethodPatch, "/todos/"+todo.ID, "token-u1", `{"name":""}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodPatch, "/todos/"+todo.ID, "token-u1", `{"priority":"low"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "keep", decode(t, w)["name"])
}

func TestListTodos(t *testing.T) {
	env := newTestEnv()
	env.todos.seed("u1", "first", false)
	env.todos.seed("u1", "second", true)
	env.todos.seed("u2", "foreign", false)

	w := env.do(http.MethodGet, "/todos?completed=true&ordering=-priority&page_size=500", "token-u1", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.EqualValues(t, 2, body["count"])
	assert.EqualValues(t, 1, body["page"])
	assert.EqualValues(t, 100, body["page_size"])
	assert.Len(t, body["results"], 2)

	require.NotNil(t, env.todos.lastFilter.Completed)
	assert.True(t, *env.todos.lastFilter.Completed)
	assert.Equal(t, "u1", env.todos.lastFilter.UserID)
	assert.Equal(t, testNow, env.todos.lastFilter.Now)
}

func TestListTodosRejectsBadParams(t *testing.T) {
	env := newTestEnv()
	for _, q := range []string{"completed=maybe", "category=not-a-uuid", "due_date=18/10/2026", "priority=urgent"} {
		w := env.do(http.MethodGet, "/todos?"+q, "token-u1", "")
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
	}
	w := env.do(http.MethodGet, "/todos?page=zero", "token-u1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListEmptyIsArray(t *testing.T) {
	env := newTestEnv()
	w := env.do(http.MethodGet, "/todos", "token-u1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"results":[]`)
}

func TestForeignTodoLooksMissing(t *testing.T) {
	env := newTestEnv()
	foreign := env.todos.seed("u2", "secret", false)
	missing := uuid.New().String()

	for _, id := range []string{foreign.ID, missing} {
		for _, req := range []struct{ method, path, body string }{
			{http.MethodGet, "/todos/" + id, ""},
			{http.MethodPatch, "/todos/" + id, `{"name":"mine now"}`},
			{http.MethodPatch, "/todos/" + id + "/toggle", ""},
			{http.MethodDelete, "/todos/" + id, ""},
		} {
			w := env.do(req.method, req.path, "token-u1", req.body)
			assert.Equal(t, http.StatusNotFound, w.Code, req.method+" "+req.path)
			assert.Equal(t, "not_found", decode(t, w)["error"])
		}
	}
	assert.Equal(t, "secret", env.todos.rows[foreign.ID].Name)
}

func TestUpdateTodo(t *testing.T) {
	env := newTestEnv()
	todo := env.todos.seed("u1", "draft", false)

	w := env.do(http.MethodPatch, "/todos/"+todo.ID, "token-u1", `{"completed":true}`)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "draft", body["name"])
	assert.NotNil(t, body["completed_at"])

	w = env.do(http.MethodPut, "/todos/"+todo.ID, "token-u1", `{"completed":false}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodPut, "/todos/"+todo.ID, "token-u1", `{"name":"final","completed":false,"due_date":null}`)
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	assert.Equal(t, "final", body["name"])
	assert.Nil(t, body["completed_at"])
}

func TestToggleTodo(t *testing.T) {
	env := newTestEnv()
	todo := env.todos.seed("u1", "flip", false)

	w := env.do(http.MethodPatch, "/todos/"+todo.ID+"/toggle", "token-u1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["completed"])

	w = env.do(http.MethodPatch, "/todos/"+todo.ID+"/toggle", "token-u1", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, false, body["completed"])
	assert.Nil(t, body["completed_at"])
	assert.Equal(t, "false", env.events.events[1].Detail)
}

func TestDeleteTodo(t *testing.T) {
	env := newTestEnv()
	todo := env.todos.seed("u1", "gone", false)
	w := env.do(http.MethodDelete, "/todos/"+todo.ID, "token-u1", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, env.todos.rows)
}

func TestReorderTodos(t *testing.T) {
	env := newTestEnv()
	a := env.todos.seed("u1", "A", false)
	b := env.todos.seed("u1", "B", false)
	foreign := env.todos.seed("u2", "C", false)

	payload := fmt.Sprintf(`{"todo_orders":[{"id":%q,"order_index":5},{"id":%q,"order_index":"2"},{"id":%q,"order_index":0}]}`,
		a.ID, b.ID, foreign.ID)
	w := env.do(http.MethodPost, "/todos/reorder", "token-u1", payload)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.EqualValues(t, 2, decode(t, w)["count"])
	assert.Equal(t, []models.TodoOrder{{ID: a.ID, OrderIndex: 5}, {ID: b.ID, OrderIndex: 2}, {ID: foreign.ID, OrderIndex: 0}},
		env.todos.lastOrders)

	w = env.do(http.MethodGet, "/todos", "token-u1", "")
	results := decode(t, w)["results"].([]interface{})
	require.Len(t, results, 2)
	assert.Equal(t, "B", results[0].(map[string]interface{})["name"])
	assert.Equal(t, "A", results[1].(map[string]interface{})["name"])
	assert.Equal(t, 3, foreign.OrderIndex)
}

func TestReorderRejectsNonIntegerIndex(t *testing.T) {
	env := newTestEnv()
	id := uuid.New().String()
	for _, payload := range []string{
		`{}`,
		fmt.Sprintf(`{"todo_orders":[{"id":%q,"order_index":"first"}]}`, id),
		fmt.Sprintf(`{"todo_orders":[{"id":%q,"order_index":1.5}]}`, id),
		fmt.Sprintf(`{"todo_orders":[{"id":%q}]}`, id),
		`{"todo_orders":[{"order_index":1}]}`,
	} {
		w := env.do(http.MethodPost, "/todos/reorder", "token-u1", payload)
		assert.Equal(t, http.StatusBadRequest, w.Code, payload)
	}
	assert.Nil(t, env.todos.lastOrders)
}

func TestBulkUpdate(t *testing.T) {
	env := newTestEnv()
	var ids []string
	for i := 0; i < 3; i++ {
		ids = append(ids, env.todos.seed("u1", fmt.Sprintf("t%d", i), false).ID)
	}
	foreign := env.todos.seed("u2", "keep", false)
	ids = append(ids, foreign.ID)
	idsJSON := fmt.Sprintf(`[%q,%q,%q,%q]`, ids[0], ids[1], ids[2], ids[3])

	w := env.do(http.MethodPost, "/todos/bulk-update", "token-u1", `{"todo_ids":`+idsJSON+`,"action":"complete"}`)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.EqualValues(t, 3, body["count"])
	assert.Equal(t, "3 todos marked as completed.", body["message"])
	assert.False(t, foreign.Completed)

	w = env.do(http.MethodPost, "/todos/bulk-update", "token-u1", `{"todo_ids":`+idsJSON+`,"action":"delete"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 3, decode(t, w)["count"])
	assert.Len(t, env.todos.rows, 1)
	assert.Contains(t, env.todos.rows, foreign.ID)

	last := env.events.events[len(env.events.events)-1]
	assert.Equal(t, models.EventTodosBulkUpdated, last.Action)
	assert.Equal(t, "delete", last.Detail)
	assert.EqualValues(t, 3, last.Count)
}

func TestBulkUpdateValidation(t *testing.T) {
	env := newTestEnv()
	id := uuid.New().String()
	for _, payload := range []string{
		fmt.Sprintf(`{"todo_ids":[%q],"action":"archive"}`, id),
		`{"todo_ids":["nope"],"action":"delete"}`,
		`{"action":"delete"}`,
	} {
		w := env.do(http.MethodPost, "/todos/bulk-update", "token-u1", payload)
		assert.Equal(t, http.StatusBadRequest, w.Code, payload)
	}

	w := env.do(http.MethodPost, "/todos/bulk-update", "token-u1", fmt.Sprintf(`{"todo_ids":[%q,"nope"],"action":"archive"}`, id))
	require.Equal(t, http.StatusBadRequest, w.Code)
	details := decode(t, w)["details"].(map[string]interface{})
	assert.Equal(t, "Must be a valid UUID.", details["todo_ids[1]"])
	assert.Equal(t, `"archive" is not a valid choice.`, details["action"])
	assert.NotContains(t, details, "todo_ids[0]")
}

func TestClearCompleted(t *testing.T) {
	env := newTestEnv()
	env.todos.seed("u1", "done", true)
	env.todos.seed("u1", "done too", true)
	env.todos.seed("u1", "open", false)
	env.todos.seed("u2", "other done", true)

	w := env.do(http.MethodDelete, "/todos/clear-completed", "token-u1", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.EqualValues(t, 2, body["count"])
	assert.Equal(t, "2 completed todos deleted.", body["message"])
	assert.Len(t, env.todos.rows, 2)
}

func TestStats(t *testing.T) {
	env := newTestEnv()
	w := env.do(http.MethodGet, "/todos/stats", "token-u1", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.EqualValues(t, 50, body["completion_rate"])
	assert.EqualValues(t, 4, body["total_todos"])
}

func TestPublishFailureDoesNotFailRequest(t *testing.T) {
	env := newTestEnv()
	env.events.err = errBoom
	w := env.do(http.MethodPost, "/todos", "token-u1", `{"name":"still saved"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, []string{"u1"}, env.stats.invalidated)
}
