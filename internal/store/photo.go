package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/yanizio/larder/internal/metrics"
	"github.com/yanizio/larder/internal/nocodb"
	"github.com/yanizio/larder/internal/record"
)

// AttachStage is how far a photo attach got: NoPhoto → Uploaded → Linked.
// Uploaded is terminal when linking fails; the stored file stays orphaned.
type AttachStage int

const (
	NoPhoto AttachStage = iota
	Uploaded
	Linked
)

func (s AttachStage) String() string {
	switch s {
	case NoPhoto:
		return "no_photo"
	case Uploaded:
		return "uploaded"
	case Linked:
		return "linked"
	}
	return fmt.Sprintf("AttachStage(%d)", int(s))
}

// AttachError reports an attach that stopped before Linked.  Attachment is
// set when Stage is Uploaded.
type AttachError struct {
	Stage      AttachStage
	RecordID   int
	Attachment record.Attachment
	Err        error
}

func (e *AttachError) Error() string {
	if e.Stage == Uploaded {
		return fmt.Sprintf("attach photo to %d: %s stored but not linked: %v", e.RecordID, e.Attachment.Path, e.Err)
	}
	return fmt.Sprintf("attach photo to %d: %v", e.RecordID, e.Err)
}

func (e *AttachError) Unwrap() error { return e.Err }

// AttachPhoto uploads content to object storage, then links the returned
// attachment as the record's single Photo entry.
func (r *Repository) AttachPhoto(ctx context.Context, id int, content io.Reader, filename string) (record.Attachment, error) {
	att, err := r.attachPhoto(ctx, id, content, filename)

	stage := Linked
	var ae *AttachError
	switch {
	case errors.As(err, &ae):
		stage = ae.Stage
	case err != nil:
		stage = NoPhoto
	}
	metrics.AttachOutcomes.WithLabelValues(stage.String()).Inc()
	return att, err
}

func (r *Repository) attachPhoto(ctx context.Context, id int, content io.Reader, filename string) (record.Attachment, error) {
	if !r.desc.Photo {
		return record.Attachment{}, fmt.Errorf("%w: %s have no photo column", ErrInvalidField, r.desc.Name)
	}

	data, err := io.ReadAll(content)
	if err != nil {
		return record.Attachment{}, &AttachError{Stage: NoPhoto, RecordID: id, Err: fmt.Errorf("%w: read: %w", ErrUploadFailed, err)}
	}
	mt := mimetype.Detect(data)
	mime, _, _ := strings.Cut(mt.String(), ";")
	name := SafeFilename(filename, mt.Extension())

	// Phase 1: upload.
	raw, err := r.api.Upload(ctx, nocodb.Upload{
		Path:     StoragePath(r.desc.Table, name),
		Filename: name,
		Mimetype: mime,
		Size:     int64(len(data)),
		Body:     bytes.NewReader(data),
	})
	if err != nil {
		return record.Attachment{}, &AttachError{Stage: NoPhoto, RecordID: id, Err: fmt.Errorf("%w: %w", ErrUploadFailed, err)}
	}
	atts, err := record.DecodeAttachments(raw)
	if err != nil || len(atts) == 0 {
		return record.Attachment{}, &AttachError{Stage: NoPhoto, RecordID: id, Err: fmt.Errorf("%w: no attachment metadata in response", ErrUploadFailed)}
	}
	att := atts[0]

	// Phase 2: link.
	body := map[string]any{
		record.IDColumn:    id,
		record.PhotoColumn: []record.Attachment{att},
	}
	if err := r.api.Update(ctx, r.desc.Table, body); err != nil {
		r.log.Warnw("photo uploaded but not linked", "id", id, "path", att.Path, "err", err)
		return att, &AttachError{
			Stage:      Uploaded,
			RecordID:   id,
			Attachment: att,
			Err:        fmt.Errorf("%w: %w", ErrUpstreamRejected, err),
		}
	}

	r.log.Infow("photo linked", "id", id, "path", att.Path, "size", att.Size)
	return att, nil
}

// StoragePath is the object-storage key for an uploaded file.
func StoragePath(table, filename string) string {
	return "download/noco/" + table + "/" + filename
}
