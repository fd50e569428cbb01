// internal/fieldedit/fieldedit.go
//
// Inline field editing shared by every collection.
//
// Context
// -------
// A record page shows each field in display mode.  Clicking it swaps in an
// edit fragment (htmx GET), submitting posts the new value and swaps the
// display fragment back.  Rich fields (markdown) use a textarea and render
// to HTML on display.  The same six endpoints serve recipes and ideas; only
// the repository and the URL prefix differ.
//
//	GET  {base}/edit_field/{id}/{field}
//	POST {base}/update_field/{id}/{field}          form: value
//	GET  {base}/display_field/{id}/{field}
//	GET  {base}/edit_rich_field/{id}/{field}
//	POST {base}/update_rich_field/{id}/{field}     form: value
//	GET  {base}/display_rich_field/{id}/{field}
//
// An unknown or non-editable field name answers 400 with the JSON error
// envelope.
//
// Notes
// -----
// • Oxford commas, two spaces after periods.
package fieldedit

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/yanizio/larder/internal/record"
	"github.com/yanizio/larder/internal/richtext"
	"github.com/yanizio/larder/internal/store"
	"github.com/yanizio/larder/internal/view"
	"github.com/yanizio/larder/internal/web"
)

// Component is the view slot the fragments are registered under.
const Component = "fields"

//go:embed templates/*.html
var templatesFS embed.FS

// Templates returns the fragment templates.
func Templates() fs.FS {
	sub, _ := fs.Sub(templatesFS, "templates")
	return sub
}

// Handlers edits fields of one collection.
type Handlers struct {
	repo  *store.Repository
	views *view.Engine
	base  string
	log   *zap.SugaredLogger
}

// New returns Handlers whose fragments post back under base ("" or
// "/ideas").
func New(repo *store.Repository, views *view.Engine, base string, log *zap.SugaredLogger) *Handlers {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Handlers{repo: repo, views: views, base: base, log: log}
}

// Fragment is the data every field template receives.
type Fragment struct {
	Base  string
	ID    int
	Field string
	Value string
	HTML  template.HTML
}

// Routes adds the six endpoints to r.
func (h *Handlers) Routes(r chi.Router) {
	r.Get("/edit_field/{id}/{field}", h.show("edit_field", false))
	r.Get("/display_field/{id}/{field}", h.show("display_field", false))
	r.Post("/update_field/{id}/{field}", h.update)

	r.Get("/edit_rich_field/{id}/{field}", h.show("edit_rich_field", true))
	r.Get("/display_rich_field/{id}/{field}", h.show("display_rich_field", true))
	r.Post("/update_rich_field/{id}/{field}", h.updateRich)
}

/*──────────────────────────── handlers ─────────────────────────────────────*/

func (h *Handlers) show(tpl string, rich bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, f, err := h.target(r, rich)
		if err != nil {
			web.Error(w, r, h.log, "Invalid field request", err)
			return
		}
		rec, err := h.repo.Get(r.Context(), id)
		if err != nil {
			web.Error(w, r, h.log, "Failed to retrieve "+h.repo.Descriptor().Singular, err)
			return
		}
		v, _ := rec.Value(f)

		frag := Fragment{Base: h.base, ID: id, Field: string(f), Value: v}
		if rich {
			frag.HTML = richtext.Render(v)
		}
		h.render(w, r, tpl, frag)
	}
}

func (h *Handlers) update(w http.ResponseWriter, r *http.Request) {
	id, f, err := h.target(r, false)
	if err != nil {
		web.Error(w, r, h.log, "Invalid field request", err)
		return
	}
	rec, err := h.repo.UpdateField(r.Context(), id, string(f), r.FormValue("value"))
	if err != nil {
		web.Error(w, r, h.log, "Failed to update "+string(f), err)
		return
	}
	v, _ := rec.Value(f)
	h.render(w, r, "display_field", Fragment{Base: h.base, ID: id, Field: string(f), Value: v})
}

func (h *Handlers) updateRich(w http.ResponseWriter, r *http.Request) {
	id, f, err := h.target(r, true)
	if err != nil {
		web.Error(w, r, h.log, "Invalid field request", err)
		return
	}
	html, err := h.repo.UpdateRichField(r.Context(), id, string(f), r.FormValue("value"))
	if err != nil {
		web.Error(w, r, h.log, "Failed to update "+string(f), err)
		return
	}
	h.render(w, r, "display_rich_field", Fragment{Base: h.base, ID: id, Field: string(f), HTML: html})
}

/*──────────────────────────── helpers ──────────────────────────────────────*/

// target parses {id} and {field}.  rich requires a rich-text field.
func (h *Handlers) target(r *http.Request, rich bool) (int, record.Field, error) {
	id, err := web.ID(r, "id")
	if err != nil {
		return 0, "", err
	}
	desc := h.repo.Descriptor()
	f, err := desc.Lookup(chi.URLParam(r, "field"))
	if err != nil {
		return 0, "", err
	}
	if rich && !desc.IsRich(f) {
		return 0, "", store.ErrInvalidField
	}
	return id, f, nil
}

func (h *Handlers) render(w http.ResponseWriter, r *http.Request, tpl string, frag Fragment) {
	if err := h.views.Fragment(w, Component, tpl, frag); err != nil {
		web.Error(w, r, h.log, "Failed to render field", err)
	}
}
