package nocodb_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanizio/larder/internal/nocodb"
	"github.com/yanizio/larder/internal/nocodb/nocodbtest"
)

func TestClient_RoundTrip(t *testing.T) {
	srv := nocodbtest.New(t)
	c := srv.Client()
	ctx := context.Background()

	id, err := c.Create(ctx, "tbl", map[string]any{"Title": "Soup"})
	require.NoError(t, err)
	assert.Equal(t, 1, id)

	row, err := c.Get(ctx, "tbl", id)
	require.NoError(t, err)
	assert.JSONEq(t, `"Soup"`, string(row["Title"]))

	require.NoError(t, c.Update(ctx, "tbl", map[string]any{"Id": id, "Title": "Stew"}))
	rows, err := c.List(ctx, "tbl")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.JSONEq(t, `"Stew"`, string(rows[0]["Title"]))

	require.NoError(t, c.Delete(ctx, "tbl", id))
	assert.Equal(t, 0, srv.Count("tbl"))
}

func TestClient_StatusErrors(t *testing.T) {
	srv := nocodbtest.New(t)
	c := srv.Client()
	ctx := context.Background()

	_, err := c.Get(ctx, "tbl", 42)
	require.Error(t, err)
	assert.True(t, nocodb.IsNotFound(err))

	srv.Fail(http.MethodGet, "tbl", http.StatusBadGateway)
	_, err = c.List(ctx, "tbl")
	assert.Equal(t, http.StatusBadGateway, nocodb.StatusCode(err))
	assert.False(t, nocodb.IsNotFound(err))
}

func TestClient_SendsToken(t *testing.T) {
	var got string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get(nocodb.TokenHeader)
		_, _ = w.Write([]byte(`{"list":[]}`))
	}))
	defer ts.Close()

	c := nocodb.New(nocodb.Options{BaseURL: ts.URL + "/", Token: "s3cret"})
	_, err := c.List(context.Background(), "tbl")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", got)
	assert.Equal(t, ts.URL, c.BaseURL())
}

func TestClient_WrongTokenIsStatusError(t *testing.T) {
	srv := nocodbtest.New(t)
	c := nocodb.New(nocodb.Options{BaseURL: srv.URL, Token: "nope"})

	_, err := c.List(context.Background(), "tbl")
	assert.Equal(t, http.StatusUnauthorized, nocodb.StatusCode(err))
}

func TestClient_UpdateNeedsID(t *testing.T) {
	c := nocodb.New(nocodb.Options{BaseURL: "http://127.0.0.1:1"})
	assert.Error(t, c.Update(context.Background(), "tbl", map[string]any{"Title": "x"}))
}

func TestClient_Upload(t *testing.T) {
	srv := nocodbtest.New(t)
	c := srv.Client()

	out, err := c.Upload(context.Background(), nocodb.Upload{
		Path:     "download/noco/tbl/soup.jpg",
		Filename: "soup.jpg",
		Mimetype: "image/jpeg",
		Size:     4,
		Body:     bytes.NewReader([]byte("jpeg")),
	})
	require.NoError(t, err)

	var meta []map[string]any
	require.NoError(t, json.Unmarshal(out, &meta))
	require.Len(t, meta, 1)
	assert.Equal(t, "download/noco/tbl/soup.jpg", meta[0]["path"])

	ups := srv.Uploads()
	require.Len(t, ups, 1)
	assert.Equal(t, "soup.jpg", ups[0].Title)
	assert.Equal(t, int64(4), ups[0].Size)
	assert.Equal(t, []byte("jpeg"), ups[0].Data)
}
