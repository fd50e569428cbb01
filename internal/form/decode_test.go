package form

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type newIdea struct {
	Title string `form:"title" validate:"required"`
	Meal  string `form:"meal"`
	Notes string `form:"notes"`
	skip  string
}

func post(values url.Values) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(values.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r
}

func TestDecode(t *testing.T) {
	var in newIdea
	err := Decode(post(url.Values{"title": {"  Pho  "}, "notes": {"broth"}}), &in)
	require.NoError(t, err)
	assert.Equal(t, "Pho", in.Title)
	assert.Equal(t, "", in.Meal)
	assert.Equal(t, "broth", in.Notes)
	assert.Equal(t, "", in.skip)
}

func TestDecode_Missing(t *testing.T) {
	var in newIdea
	err := Decode(post(url.Values{"title": {"   "}}), &in)

	require.ErrorIs(t, err, ErrMissing)
	var inv *Invalid
	require.True(t, errors.As(err, &inv))
	assert.True(t, inv.Has("title"))
	assert.Equal(t, "Title is required.", inv.Fields[0].Message)
}

func TestDecode_Multipart(t *testing.T) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("title", "Tart"))
	fw, err := mw.CreateFormFile("photo", "tart.png")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("png"))
	require.NoError(t, mw.Close())

	r := httptest.NewRequest(http.MethodPost, "/", &body)
	r.Header.Set("Content-Type", mw.FormDataContentType())

	var in newIdea
	require.NoError(t, Decode(r, &in))
	assert.Equal(t, "Tart", in.Title)
	_, fh, err := r.FormFile("photo")
	require.NoError(t, err)
	assert.Equal(t, "tart.png", fh.Filename)
}

func TestDecode_NeedsStructPointer(t *testing.T) {
	var in newIdea
	assert.Error(t, Decode(post(url.Values{}), in))
}
