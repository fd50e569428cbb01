package store

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/yanizio/larder/internal/nocodb/nocodbtest"
	"github.com/yanizio/larder/internal/record"
)

const (
	recipesTable = "tbl_recipes"
	ideasTable   = "tbl_ideas"
)

type fixture struct {
	srv     *nocodbtest.Server
	recipes *Repository
	ideas   *Repository
}

func setup(t *testing.T) fixture {
	t.Helper()
	srv := nocodbtest.New(t)
	api := srv.Client()
	log := zaptest.NewLogger(t).Sugar()
	return fixture{
		srv:     srv,
		recipes: New(api, record.Recipes(recipesTable), log),
		ideas:   New(api, record.Ideas(ideasTable), log),
	}
}

func sharedOf(r record.Record) map[string]any { return record.Project(r, record.Shared) }

func TestRepository_ListAndSearch(t *testing.T) {
	fx := setup(t)
	fx.srv.Seed(recipesTable, map[string]any{"Title": "Chicken Soup"})
	fx.srv.Seed(recipesTable, map[string]any{"Title": "Beef Stew", "Meal": "soup night"})
	ctx := context.Background()

	all, err := fx.recipes.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Unknown", all[0].Source, "missing columns read as sentinel")

	got, err := fx.recipes.Search(ctx, "chicken soup")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Chicken Soup", got[0].Title)
}

func TestRepository_ReadFailureIsUnavailable(t *testing.T) {
	fx := setup(t)
	id := fx.srv.Seed(recipesTable, map[string]any{"Title": "Soup"})
	fx.srv.Fail(http.MethodGet, recipesTable, http.StatusInternalServerError)
	ctx := context.Background()

	_, err := fx.recipes.List(ctx)
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)

	_, err = fx.recipes.Search(ctx, "soup")
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)

	_, err = fx.recipes.Get(ctx, id)
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestRepository_GetMissingIsNotFound(t *testing.T) {
	fx := setup(t)

	_, err := fx.recipes.Get(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrUpstreamUnavailable)
}

func TestRepository_CreateThenGet(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()

	in := record.Record{
		ID:          123, // ignored
		Title:       "Shakshuka",
		Meal:        "Brunch",
		Core:        "Eggs",
		Source:      "Family",
		Notes:       "Use ripe tomatoes",
		Ingredients: `<p>eggs</p><script>x()</script>`,
	}
	created, err := fx.recipes.Create(ctx, in)
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.NotEqual(t, 123, created.ID)

	got, err := fx.recipes.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, sharedOf(in), sharedOf(got))
	assert.Equal(t, "<p>eggs</p>", got.Ingredients, "rich fields are sanitized before storage")

	row, _ := fx.srv.Row(recipesTable, created.ID)
	assert.NotContains(t, row, "Photo")
}

func TestRepository_CreateRejected(t *testing.T) {
	fx := setup(t)
	fx.srv.Fail(http.MethodPost, ideasTable, http.StatusBadRequest)

	_, err := fx.ideas.Create(context.Background(), record.Record{Title: "Tacos"})
	assert.ErrorIs(t, err, ErrUpstreamRejected)
}

func TestRepository_UpdateField(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()
	id := fx.srv.Seed(recipesTable, map[string]any{
		"Title": "Old", "Meal": "Dinner", "Core": "Beef", "Source": "Book", "Notes": "n",
	})

	before, err := fx.recipes.Get(ctx, id)
	require.NoError(t, err)

	_, err = fx.recipes.UpdateField(ctx, id, "Title", "X")
	require.NoError(t, err)

	after, err := fx.recipes.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "X", after.Title)
	assert.Equal(t, id, after.ID)

	before.Title = "X"
	assert.Equal(t, before, after, "all other fields unchanged")
}

func TestRepository_UpdateFieldErrors(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()
	id := fx.srv.Seed(ideasTable, map[string]any{"Title": "Tacos"})

	_, err := fx.ideas.UpdateField(ctx, id, "Method", "x")
	assert.ErrorIs(t, err, ErrInvalidField)

	_, err = fx.ideas.UpdateField(ctx, id, "Id", "7")
	assert.ErrorIs(t, err, ErrInvalidField)

	_, err = fx.ideas.UpdateField(ctx, 404, "Title", "x")
	assert.ErrorIs(t, err, ErrNotFound)

	fx.srv.Fail(http.MethodPatch, ideasTable, http.StatusInternalServerError)
	_, err = fx.ideas.UpdateField(ctx, id, "Title", "x")
	assert.ErrorIs(t, err, ErrUpstreamRejected)
}

func TestRepository_UpdateRichField(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()
	id := fx.srv.Seed(recipesTable, map[string]any{"Title": "Bread"})

	html, err := fx.recipes.UpdateRichField(ctx, id, "Method", "1. knead\n2. bake<script>evil()</script>")
	require.NoError(t, err)
	assert.Contains(t, string(html), "<ol>")
	assert.NotContains(t, string(html), "script")

	got, err := fx.recipes.Get(ctx, id)
	require.NoError(t, err)
	assert.False(t, strings.Contains(got.Method, "<ol>"), "stored form stays raw markup")
	assert.NotContains(t, got.Method, "script")

	_, err = fx.recipes.UpdateRichField(ctx, id, "Title", "x")
	assert.ErrorIs(t, err, ErrInvalidField)
}

func TestRepository_RichTextRoundTrip(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()
	notes := "Fish & chips\n\n> serve hot, oven < 200C"

	created, err := fx.ideas.Create(ctx, record.Record{Title: "Chippy", Notes: notes})
	require.NoError(t, err)
	got, err := fx.ideas.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, notes, got.Notes)

	id := fx.srv.Seed(recipesTable, map[string]any{"Title": "Pie"})
	method := "> quoted\n\nA & B < C"
	html, err := fx.recipes.UpdateRichField(ctx, id, "Method", method)
	require.NoError(t, err)
	assert.Contains(t, string(html), "<blockquote>")

	row, _ := fx.srv.Row(recipesTable, id)
	assert.Equal(t, method, row["Method"])
}

func TestRepository_UpdateFieldSanitizesRichFields(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()
	id := fx.srv.Seed(recipesTable, map[string]any{"Title": "Bread"})

	rec, err := fx.recipes.UpdateField(ctx, id, "Method", `<img src=x onerror=alert(1)><script>x()</script>knead & bake`)
	require.NoError(t, err)
	assert.NotContains(t, rec.Method, "onerror")
	assert.NotContains(t, rec.Method, "script")
	assert.Contains(t, rec.Method, "knead & bake")

	row, _ := fx.srv.Row(recipesTable, id)
	assert.Equal(t, rec.Method, row["Method"])

	rec, err = fx.recipes.UpdateField(ctx, id, "Title", "<b>Bread</b> & butter")
	require.NoError(t, err)
	assert.Equal(t, "<b>Bread</b> & butter", rec.Title, "plain fields are stored as typed")
}

func TestRepository_Delete(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()
	id := fx.srv.Seed(ideasTable, map[string]any{"Title": "Tacos"})

	require.NoError(t, fx.ideas.Delete(ctx, id))
	_, err := fx.ideas.Get(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, fx.ideas.Delete(ctx, id), ErrUpstreamRejected)
}
