package controller

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"todo-api/internal/models"
)

func TestCategoryLifecycle(t *testing.T) {
	env := newTestEnv()

	w := env.do(http.MethodPost, "/categories", "token-u1", `{"name":"Work"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)
	assert.Equal(t, models.DefaultCategoryColor, created["color"])
	id := created["id"].(string)

	w = env.do(http.MethodPut, "/categories/"+id, "token-u1", `{"name":"Office","color":"#10b981"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "#10b981", decode(t, w)["color"])

	w = env.do(http.MethodGet, "/categories", "token-u1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"Office"`)

	w = env.do(http.MethodGet, "/categories/"+id, "token-u2", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(http.MethodDelete, "/categories/"+id, "token-u1", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	actions := make([]string, 0, len(env.events.events))
	for _, ev := range env.events.events {
		actions = append(actions, ev.Action)
	}
	assert.Equal(t, []string{models.EventCategoryChanged, models.EventCategoryChanged, models.EventCategoryDeleted}, actions)
}

func TestCategoryValidation(t *testing.T) {
	env := newTestEnv()
	for _, payload := range []string{
		`{}`,
		`{"name":""}`,
		`{"name":"x","color":"blue"}`,
		`{"name":"x","color":"#12345"}`,
		`{"name":"` + strings.Repeat("a", 101) + `"}`,
	} {
		w := env.do(http.MethodPost, "/categories", "token-u1", payload)
		assert.Equal(t, http.StatusBadRequest, w.Code, payload)
	}
	assert.Empty(t, env.categories.rows)

	w := env.do(http.MethodPost, "/categories", "token-u1", `{"name":"x","color":"#abc"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Ensure this field has exactly 7 characters.", decode(t, w)["details"].(map[string]interface{})["color"])
}

func TestPatchCategoryKeepsName(t *testing.T) {
	env := newTestEnv()
	w := env.do(http.MethodPost, "/categories", "token-u1", `{"name":" Errands ","color":"#F59E0B"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := decode(t, w)["id"].(string)

	w = env.do(http.MethodPatch, "/categories/"+id, "token-u1", `{"color":"#0ea5e9"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "Errands", body["name"])
	assert.Equal(t, "#0ea5e9", body["color"])

	w = env.do(http.MethodPut, "/categories/"+id, "token-u1", `{"color":"#0ea5e9"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDuplicateCategoryNameConflicts(t *testing.T) {
	env := newTestEnv()
	w := env.do(http.MethodPost, "/categories", "token-u1", `{"name":"Home"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(http.MethodPost, "/categories", "token-u1", `{"name":" Home "}`)
	require.Equal(t, http.StatusConflict, w.Code)
	body := decode(t, w)
	assert.Equal(t, "conflict", body["error"])
	assert.Contains(t, body["details"], "name")

	w = env.do(http.MethodPost, "/categories", "token-u2", `{"name":"Home"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
}
