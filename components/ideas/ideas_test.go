package ideas

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/yanizio/larder/internal/component"
	"github.com/yanizio/larder/internal/fieldedit"
	"github.com/yanizio/larder/internal/nocodb/nocodbtest"
	"github.com/yanizio/larder/internal/record"
	"github.com/yanizio/larder/internal/store"
	"github.com/yanizio/larder/internal/view"
	"github.com/yanizio/larder/internal/web"
)

const (
	ideasTable   = "tbl_ideas"
	recipesTable = "tbl_recipes"
)

func setup(t *testing.T) (*nocodbtest.Server, http.Handler) {
	t.Helper()
	srv := nocodbtest.New(t)
	log := zaptest.NewLogger(t).Sugar()
	ideas := store.New(srv.Client(), record.Ideas(ideasTable), log)
	recipes := store.New(srv.Client(), record.Recipes(recipesTable), log)

	views := view.New(view.Options{}, log)
	views.Register(fieldedit.Component, fieldedit.Templates())

	r := chi.NewRouter()
	component.Mount(r, views, nil, New(ideas, recipes, views, log))
	return srv, r
}

func serve(h http.Handler, r *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func htmx(r *http.Request) *http.Request {
	r.Header.Set("HX-Request", "true")
	return r
}

func postForm(path string, v url.Values) *http.Request {
	r := httptest.NewRequest(http.MethodPost, path, strings.NewReader(v.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r
}

func TestIndex(t *testing.T) {
	srv, h := setup(t)
	srv.Seed(ideasTable, map[string]any{"Title": "Laksa", "Notes": "**spicy**"})
	srv.Seed(ideasTable, map[string]any{"Title": "Gnocchi"})

	w := serve(h, httptest.NewRequest(http.MethodGet, "/ideas/", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Laksa")
	assert.Contains(t, body, "<strong>spicy</strong>")
	assert.Contains(t, body, `hx-get="/ideas/edit_field/2/Title"`)
	assert.Contains(t, body, `hx-post="/ideas/move_to_recipes/1"`)
}

func TestIndex_UpstreamDown(t *testing.T) {
	srv, h := setup(t)
	srv.Fail(http.MethodGet, ideasTable, http.StatusServiceUnavailable)

	w := serve(h, httptest.NewRequest(http.MethodGet, "/ideas/", nil))
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "Failed to retrieve ideas.")
}

func TestSearch(t *testing.T) {
	srv, h := setup(t)
	srv.Seed(ideasTable, map[string]any{"Title": "Fish tacos", "Meal": "Dinner"})
	srv.Seed(ideasTable, map[string]any{"Title": "Fish pie"})

	r := htmx(httptest.NewRequest(http.MethodGet, "/ideas/search?idea-search="+url.QueryEscape("fish dinner"), nil))
	w := serve(h, r)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Fish tacos")
	assert.NotContains(t, w.Body.String(), "Fish pie")
	assert.True(t, strings.HasPrefix(strings.TrimSpace(w.Body.String()), "<tbody"))
}

func TestAddIdea(t *testing.T) {
	_, h := setup(t)
	for _, m := range []string{http.MethodGet, http.MethodPost} {
		w := serve(h, httptest.NewRequest(m, "/ideas/add_idea", nil))
		assert.Equal(t, http.StatusOK, w.Code, m)
		assert.Contains(t, w.Body.String(), `action="/ideas/save_new_idea"`, m)
	}
}

func TestSaveNewIdea(t *testing.T) {
	srv, h := setup(t)

	w := serve(h, postForm("/ideas/save_new_idea", url.Values{"title": {"Ramen"}, "core": {"Pork"}}))
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/ideas/", w.Header().Get("Location"))

	row, ok := srv.Row(ideasTable, 1)
	require.True(t, ok)
	assert.Equal(t, "Ramen", row["Title"])
	assert.Equal(t, "Pork", row["Core"])
	assert.Equal(t, "-", row["Meal"])
}

func TestSaveNewIdea_Failures(t *testing.T) {
	srv, h := setup(t)

	w := serve(h, postForm("/ideas/save_new_idea", url.Values{"meal": {"Lunch"}}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Title is required.")

	srv.Fail(http.MethodPost, ideasTable, http.StatusBadRequest)
	w = serve(h, postForm("/ideas/save_new_idea", url.Values{"title": {"Ramen"}}))
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "Failed to save the idea.")
	assert.Equal(t, 0, srv.Count(ideasTable))
}

func TestDelete(t *testing.T) {
	srv, h := setup(t)
	srv.Seed(ideasTable, map[string]any{"Title": "Laksa"})

	w := serve(h, htmx(httptest.NewRequest(http.MethodDelete, "/ideas/delete/1", nil)))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "true", w.Header().Get("HX-Refresh"))
	assert.Equal(t, 0, srv.Count(ideasTable))

	w = serve(h, httptest.NewRequest(http.MethodDelete, "/ideas/delete/1", nil))
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestMoveToRecipes(t *testing.T) {
	srv, h := setup(t)
	srv.Seed(recipesTable, map[string]any{"Title": "Existing"})
	srv.Seed(ideasTable, map[string]any{"Title": "Laksa", "Core": "Noodles", "Notes": "coconut"})

	w := serve(h, htmx(httptest.NewRequest(http.MethodPost, "/ideas/move_to_recipes/1", nil)))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/recipe/2", w.Header().Get("HX-Location"))

	row, ok := srv.Row(recipesTable, 2)
	require.True(t, ok)
	assert.Equal(t, "Laksa", row["Title"])
	assert.Equal(t, "coconut", row["Notes"])
	assert.Equal(t, 0, srv.Count(ideasTable))
}

func TestMoveToRecipes_Failures(t *testing.T) {
	tests := []struct {
		name    string
		fail    func(*nocodbtest.Server)
		status  int
		message string
		ideas   int
		recipes int
	}{
		{
			name:    "missing idea",
			fail:    func(s *nocodbtest.Server) { s.Clear() },
			status:  http.StatusNotFound,
			message: "Failed to fetch the idea",
		},
		{
			name:    "create rejected",
			fail:    func(s *nocodbtest.Server) { s.Fail(http.MethodPost, recipesTable, http.StatusBadRequest) },
			status:  http.StatusBadGateway,
			message: "Failed to create new recipe",
			ideas:   1,
		},
		{
			name:    "delete fails",
			fail:    func(s *nocodbtest.Server) { s.Fail(http.MethodDelete, ideasTable, http.StatusInternalServerError) },
			status:  http.StatusBadGateway,
			message: "Failed to delete the original idea",
			ideas:   1,
			recipes: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, h := setup(t)
			id := 1
			if tt.ideas > 0 {
				srv.Seed(ideasTable, map[string]any{"Title": "Laksa"})
			} else {
				id = 7
			}
			tt.fail(srv)

			w := serve(h, htmx(httptest.NewRequest(http.MethodPost, "/ideas/move_to_recipes/"+strconv.Itoa(id), nil)))
			assert.Equal(t, tt.status, w.Code)
			assert.Empty(t, w.Header().Get("HX-Location"))

			var env web.Envelope
			require.NoError(t, json.NewDecoder(w.Body).Decode(&env))
			assert.Equal(t, tt.message, env.Error)
			assert.Equal(t, tt.ideas, srv.Count(ideasTable))
			assert.Equal(t, tt.recipes, srv.Count(recipesTable))
		})
	}
}
