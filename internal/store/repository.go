// internal/store/repository.go
//
// Record Repository: the only path between the application and the hosted
// tabular store.
//
// Context
// -------
// One Repository serves one collection, described by a record.Descriptor.
// Recipes and ideas each get their own instance over the same API client.
// The repository holds no cache.  Every operation is a blocking round trip
// bound to the caller's context, and nothing is retried.
//
// Known limitation
// ----------------
// UpdateField reads the whole record, changes one field, and PATCHes the
// whole record back.  Two people editing different fields of the same
// record at once can overwrite each other's change.  There is no version
// column to guard against this.
//
// Notes
// -----
// • Reads map failures to ErrUpstreamUnavailable (or ErrNotFound on 404),
//   writes map them to ErrUpstreamRejected.
// • Move and AttachPhoto live in move.go and photo.go.
// • Oxford commas, two spaces after periods.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"

	"go.uber.org/zap"

	"github.com/yanizio/larder/internal/nocodb"
	"github.com/yanizio/larder/internal/record"
	"github.com/yanizio/larder/internal/richtext"
)

// API is the subset of the NocoDB client the repository needs.
type API interface {
	List(ctx context.Context, table string) ([]nocodb.Row, error)
	Get(ctx context.Context, table string, id int) (nocodb.Row, error)
	Create(ctx context.Context, table string, fields map[string]any) (int, error)
	Update(ctx context.Context, table string, fields map[string]any) error
	Delete(ctx context.Context, table string, ids ...int) error
	Upload(ctx context.Context, up nocodb.Upload) (json.RawMessage, error)
}

// Repository mediates reads and writes for one collection.
type Repository struct {
	api  API
	desc record.Descriptor
	log  *zap.SugaredLogger
}

// New returns a Repository for desc.  log may be nil.
func New(api API, desc record.Descriptor, log *zap.SugaredLogger) *Repository {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Repository{
		api:  api,
		desc: desc,
		log:  log.With("collection", desc.Name),
	}
}

// Descriptor returns the collection descriptor.
func (r *Repository) Descriptor() record.Descriptor { return r.desc }

/*──────────────────────────── reads ────────────────────────────────────────*/

// List fetches the whole collection.
func (r *Repository) List(ctx context.Context) ([]record.Record, error) {
	rows, err := r.api.List(ctx, r.desc.Table)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w: %w", r.desc.Name, ErrUpstreamUnavailable, err)
	}
	out := make([]record.Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, r.desc.Decode(row))
	}
	r.log.Debugw("records listed", "count", len(out))
	return out, nil
}

// Get fetches one record.  A 404 yields ErrNotFound; every other failure
// yields ErrUpstreamUnavailable.
func (r *Repository) Get(ctx context.Context, id int) (record.Record, error) {
	row, err := r.fetch(ctx, id)
	if err != nil {
		return record.Record{}, err
	}
	return r.desc.Decode(row), nil
}

// fetch returns the raw row with Get's error mapping.
func (r *Repository) fetch(ctx context.Context, id int) (nocodb.Row, error) {
	row, err := r.api.Get(ctx, r.desc.Table, id)
	if err != nil {
		if nocodb.IsNotFound(err) {
			return nil, fmt.Errorf("%s %d: %w", r.desc.Singular, id, ErrNotFound)
		}
		return nil, fmt.Errorf("get %s %d: %w: %w", r.desc.Singular, id, ErrUpstreamUnavailable, err)
	}
	return row, nil
}

// Search lists the collection and filters it in memory.
func (r *Repository) Search(ctx context.Context, query string) ([]record.Record, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	return record.Search(all, query), nil
}

/*──────────────────────────── writes ───────────────────────────────────────*/

// Create inserts rec (its ID and Photo are ignored) and returns it with the
// id the API assigned.  Rich fields are sanitized before they are sent.
func (r *Repository) Create(ctx context.Context, rec record.Record) (record.Record, error) {
	rec.ID = 0
	rec.Photo = nil
	for _, f := range r.desc.Rich {
		v, _ := rec.Value(f)
		_ = rec.Set(f, richtext.Sanitize(v))
	}

	id, err := r.api.Create(ctx, r.desc.Table, r.desc.Payload(rec))
	if err != nil {
		return record.Record{}, fmt.Errorf("create %s: %w: %w", r.desc.Singular, ErrUpstreamRejected, err)
	}
	rec.ID = id
	r.log.Infow("record created", "id", id, "title", rec.Title)
	return rec, nil
}

// UpdateField overwrites one field and writes the whole record back.  A
// rich field is sanitized first, as UpdateRichField does.
func (r *Repository) UpdateField(ctx context.Context, id int, name, value string) (record.Record, error) {
	f, err := r.desc.Lookup(name)
	if err != nil {
		return record.Record{}, err
	}
	if r.desc.IsRich(f) {
		value = richtext.Sanitize(value)
	}
	return r.update(ctx, id, f, value)
}

// UpdateRichField sanitizes raw, stores it in a rich field, and returns the
// display HTML of the stored value.
func (r *Repository) UpdateRichField(ctx context.Context, id int, name, raw string) (template.HTML, error) {
	f, err := r.desc.Lookup(name)
	if err != nil {
		return "", err
	}
	if !r.desc.IsRich(f) {
		return "", fmt.Errorf("%w: %q is not a rich-text field", ErrInvalidField, name)
	}

	rec, err := r.update(ctx, id, f, richtext.Sanitize(raw))
	if err != nil {
		return "", err
	}
	stored, _ := rec.Value(f)
	return richtext.Render(stored), nil
}

func (r *Repository) update(ctx context.Context, id int, f record.Field, value string) (record.Record, error) {
	rec, err := r.Get(ctx, id)
	if err != nil {
		return record.Record{}, err
	}
	if err := rec.Set(f, value); err != nil {
		return record.Record{}, err
	}
	if err := r.api.Update(ctx, r.desc.Table, r.desc.Full(rec)); err != nil {
		return record.Record{}, fmt.Errorf("update %s %d %s: %w: %w", r.desc.Singular, id, f, ErrUpstreamRejected, err)
	}
	r.log.Infow("record field updated", "id", id, "field", string(f))
	return rec, nil
}

// Delete removes one record.
func (r *Repository) Delete(ctx context.Context, id int) error {
	if err := r.api.Delete(ctx, r.desc.Table, id); err != nil {
		return fmt.Errorf("delete %s %d: %w: %w", r.desc.Singular, id, ErrUpstreamRejected, err)
	}
	r.log.Infow("record deleted", "id", id)
	return nil
}
