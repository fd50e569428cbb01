package store

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// smallest valid PNG header is enough for mime sniffing.
var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func TestAttachPhoto_Linked(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()
	id := fx.srv.Seed(recipesTable, map[string]any{"Title": "Tart"})

	att, err := fx.recipes.AttachPhoto(ctx, id, bytes.NewReader(pngBytes), "../My Tart (1).png")
	require.NoError(t, err)

	ups := fx.srv.Uploads()
	require.Len(t, ups, 1)
	assert.Equal(t, "My_Tart_1.png", ups[0].Title)
	assert.Equal(t, "download/noco/"+recipesTable+"/My_Tart_1.png", ups[0].Path)
	assert.Equal(t, "image/png", ups[0].Mimetype)
	assert.Equal(t, int64(len(pngBytes)), ups[0].Size)

	got, err := fx.recipes.Get(ctx, id)
	require.NoError(t, err)
	require.Len(t, got.Photo, 1)
	p := got.Photo[0]
	assert.Equal(t, att, p)
	assert.Equal(t, ups[0].Path, p.Path)
	assert.Equal(t, ups[0].Title, p.Title)
	assert.Equal(t, ups[0].Mimetype, p.Mimetype)
	assert.Equal(t, ups[0].Size, p.Size)
}

func TestAttachPhoto_ReplacesExisting(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()
	id := fx.srv.Seed(recipesTable, map[string]any{"Title": "Tart"})

	_, err := fx.recipes.AttachPhoto(ctx, id, bytes.NewReader(pngBytes), "a.png")
	require.NoError(t, err)
	_, err = fx.recipes.AttachPhoto(ctx, id, bytes.NewReader(pngBytes), "b.png")
	require.NoError(t, err)

	got, err := fx.recipes.Get(ctx, id)
	require.NoError(t, err)
	require.Len(t, got.Photo, 1)
	assert.Equal(t, "b.png", got.Photo[0].Title)
}

func TestAttachPhoto_UploadFails(t *testing.T) {
	fx := setup(t)
	id := fx.srv.Seed(recipesTable, map[string]any{"Title": "Tart"})
	fx.srv.Fail(http.MethodPost, "storage", http.StatusInternalServerError)

	_, err := fx.recipes.AttachPhoto(context.Background(), id, bytes.NewReader(pngBytes), "a.png")

	var ae *AttachError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, NoPhoto, ae.Stage)
	assert.ErrorIs(t, err, ErrUploadFailed)
}

func TestAttachPhoto_LinkFailsLeavesOrphan(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()
	id := fx.srv.Seed(recipesTable, map[string]any{"Title": "Tart"})
	fx.srv.Fail(http.MethodPatch, recipesTable, http.StatusInternalServerError)

	_, err := fx.recipes.AttachPhoto(ctx, id, bytes.NewReader(pngBytes), "a.png")

	var ae *AttachError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, Uploaded, ae.Stage)
	assert.Equal(t, "a.png", ae.Attachment.Title)
	assert.ErrorIs(t, err, ErrUpstreamRejected)

	assert.Len(t, fx.srv.Uploads(), 1, "file stays in storage")
	got, err := fx.recipes.Get(ctx, id)
	require.NoError(t, err)
	assert.False(t, got.HasPhoto())
}

func TestAttachPhoto_IdeasHaveNoPhoto(t *testing.T) {
	fx := setup(t)

	_, err := fx.ideas.AttachPhoto(context.Background(), 1, bytes.NewReader(pngBytes), "a.png")
	assert.ErrorIs(t, err, ErrInvalidField)
	assert.Empty(t, fx.srv.Uploads())
}

func TestSafeFilename(t *testing.T) {
	tests := map[string]string{
		"photo.jpg":            "photo.jpg",
		`C:\Users\me\pic.JPG`:  "pic.JPG",
		"../../etc/passwd":     "passwd",
		"my  summer  pie.jpeg": "my_summer_pie.jpeg",
		"...":                  "photo.png",
		"crème brûlée.png":     "crme_brle.png",
	}
	for in, want := range tests {
		assert.Equal(t, want, SafeFilename(in, ".png"), in)
	}
}
