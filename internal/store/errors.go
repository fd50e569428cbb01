package store

import (
	"errors"

	"github.com/yanizio/larder/internal/record"
)

var (
	// ErrUpstreamUnavailable is returned when a read from the tabular API
	// fails for any reason other than a missing record.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrUpstreamRejected is returned when the tabular API refuses a write.
	ErrUpstreamRejected = errors.New("upstream rejected the write")
	// ErrNotFound is returned when the API answers 404 for a record id.
	ErrNotFound = errors.New("record not found")
	// ErrUploadFailed is returned when the storage API refuses a file.
	ErrUploadFailed = errors.New("upload failed")
	// ErrInvalidField is returned for a field name the collection does not
	// carry, or for a rich-text edit of a plain field.
	ErrInvalidField = record.ErrInvalidField
)
