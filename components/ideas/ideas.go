// components/ideas/ideas.go
//
// Ideas component – the holding pen for dishes not yet written up.
//
// Routes (mounted at “/ideas”)
// ----------------------------
//
//	GET    /ideas/                        table of every idea, inline edit
//	GET    /ideas/add_idea                create form (POST renders it too)
//	POST   /ideas/save_new_idea           create, then back to the table
//	GET    /ideas/search?idea-search=     multi-keyword filter (htmx rows)
//	DELETE /ideas/delete/{id}             delete, then HX-Refresh
//	POST   /ideas/move_to_recipes/{id}    promote, HX-Location to the recipe
//	…      /ideas/edit_field etc.         see internal/fieldedit
//
// Context
// -------
// An idea carries the shared columns only (Title, Meal, Core, Source, and
// Notes) and never a photo.  Promotion is the Move saga in internal/store;
// a half-finished move is reported with the stage it stopped at.
//
// Notes
// -----
// • Oxford commas, two spaces after periods.
//
//------------------------------------------------------------------------------

package ideas

import (
	"embed"
	"errors"
	"html/template"
	"io/fs"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/yanizio/larder/internal/component"
	"github.com/yanizio/larder/internal/fieldedit"
	"github.com/yanizio/larder/internal/form"
	"github.com/yanizio/larder/internal/record"
	"github.com/yanizio/larder/internal/richtext"
	"github.com/yanizio/larder/internal/store"
	"github.com/yanizio/larder/internal/view"
	"github.com/yanizio/larder/internal/web"
)

var _ component.Component = (*Component)(nil)

//go:embed templates/*.html
var templatesFS embed.FS

// Prefix is the mount point of every idea route.
const Prefix = "/ideas"

// Component serves the idea collection.
type Component struct {
	ideas   *store.Repository
	recipes *store.Repository
	views   *view.Engine
	fields  *fieldedit.Handlers
	log     *zap.SugaredLogger
}

// New wires the component.  recipes is the promotion target.
func New(ideas, recipes *store.Repository, views *view.Engine, log *zap.SugaredLogger) *Component {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	log = log.With("component", "ideas")
	return &Component{
		ideas:   ideas,
		recipes: recipes,
		views:   views,
		fields:  fieldedit.New(ideas, views, Prefix, log),
		log:     log,
	}
}

// Name returns the canonical component key.
func (c *Component) Name() string { return "ideas" }

// Templates returns the embedded page templates.
func (c *Component) Templates() fs.FS {
	sub, _ := fs.Sub(templatesFS, "templates")
	return sub
}

// Routes adds the idea endpoints under Prefix.
func (c *Component) Routes(r chi.Router) {
	r.Route(Prefix, func(r chi.Router) {
		r.Get("/", c.index)
		r.Get("/add_idea", c.addIdea)
		r.Post("/add_idea", c.addIdea)
		r.Post("/save_new_idea", c.saveNewIdea)
		r.Get("/search", c.search)
		r.Delete("/delete/{id}", c.delete)
		r.Post("/move_to_recipes/{id}", c.moveToRecipes)

		c.fields.Routes(r)
	})
}

/*──────────────────────────── view models ──────────────────────────────────*/

type row struct {
	ID    int
	Cells []template.HTML
}

type listPage struct {
	Columns []record.Field
	Rows    []row
	Query   string
	Error   string
}

type addPage struct {
	Form   newIdea
	Errors []form.ErrorField
	Error  string
}

type newIdea struct {
	Title  string `form:"title" validate:"required"`
	Meal   string `form:"meal"`
	Core   string `form:"core"`
	Source string `form:"source"`
	Notes  string `form:"notes"`
}

/*──────────────────────────── browse ───────────────────────────────────────*/

func (c *Component) index(w http.ResponseWriter, r *http.Request) {
	all, err := c.ideas.List(r.Context())
	if err != nil {
		c.log.Errorw("list ideas failed", "err", err)
		c.page(w, r, web.Status(err), "index", listPage{
			Columns: c.ideas.Descriptor().Fields,
			Error:   "Failed to retrieve ideas.",
		})
		return
	}
	data, err := c.list(all, "")
	if err != nil {
		web.Error(w, r, c.log, "Failed to render ideas", err)
		return
	}
	c.page(w, r, http.StatusOK, "index", data)
}

func (c *Component) search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("idea-search")
	found, err := c.ideas.Search(r.Context(), q)
	if err != nil {
		web.Error(w, r, c.log, "Failed to retrieve ideas", err)
		return
	}
	data, err := c.list(found, q)
	if err != nil {
		web.Error(w, r, c.log, "Failed to render ideas", err)
		return
	}
	if web.IsHTMX(r) {
		c.fragment(w, r, "search", data)
		return
	}
	c.page(w, r, http.StatusOK, "index", data)
}

// list pre-renders the inline display fragment of every cell.
func (c *Component) list(recs []record.Record, q string) (listPage, error) {
	desc := c.ideas.Descriptor()
	data := listPage{Columns: desc.Fields, Query: q, Rows: make([]row, 0, len(recs))}
	for _, rec := range recs {
		rw := row{ID: rec.ID}
		for _, f := range desc.Fields {
			v, _ := rec.Value(f)
			frag := fieldedit.Fragment{Base: Prefix, ID: rec.ID, Field: string(f), Value: v}
			tpl := "display_field"
			if desc.IsRich(f) {
				tpl = "display_rich_field"
				frag.HTML = richtext.Render(v)
			}
			html, err := c.views.String(fieldedit.Component, tpl, frag)
			if err != nil {
				return listPage{}, err
			}
			rw.Cells = append(rw.Cells, html)
		}
		data.Rows = append(data.Rows, rw)
	}
	return data, nil
}

/*──────────────────────────── create ───────────────────────────────────────*/

func (c *Component) addIdea(w http.ResponseWriter, r *http.Request) {
	c.page(w, r, http.StatusOK, "add_idea", addPage{})
}

func (c *Component) saveNewIdea(w http.ResponseWriter, r *http.Request) {
	var in newIdea
	if err := form.Decode(r, &in); err != nil {
		data := addPage{Form: in, Error: "Please fill in the required fields."}
		var inv *form.Invalid
		if errors.As(err, &inv) {
			data.Errors = inv.Fields
		}
		c.page(w, r, http.StatusBadRequest, "add_idea", data)
		return
	}

	rec := c.ideas.Descriptor().New()
	for f, v := range map[record.Field]string{
		record.Title:  in.Title,
		record.Meal:   in.Meal,
		record.Core:   in.Core,
		record.Source: in.Source,
		record.Notes:  in.Notes,
	} {
		if v != "" {
			_ = rec.Set(f, v)
		}
	}

	if _, err := c.ideas.Create(r.Context(), rec); err != nil {
		c.log.Errorw("create idea failed", "err", err)
		c.page(w, r, web.Status(err), "add_idea", addPage{
			Form:  in,
			Error: "Failed to save the idea.  Please try again.",
		})
		return
	}
	web.Redirect(w, r, Prefix+"/")
}

/*──────────────────────────── delete / move ────────────────────────────────*/

func (c *Component) delete(w http.ResponseWriter, r *http.Request) {
	id, err := web.ID(r, "id")
	if err != nil {
		web.Error(w, r, c.log, "Invalid idea id", err)
		return
	}
	if err := c.ideas.Delete(r.Context(), id); err != nil {
		web.Error(w, r, c.log, "Failed to delete idea", err)
		return
	}
	web.Refresh(w, r, Prefix+"/")
}

func (c *Component) moveToRecipes(w http.ResponseWriter, r *http.Request) {
	id, err := web.ID(r, "id")
	if err != nil {
		web.Error(w, r, c.log, "Invalid idea id", err)
		return
	}

	newID, err := store.Move(r.Context(), id, c.ideas, c.recipes)
	if err != nil {
		web.Error(w, r, c.log, moveMessage(err), err)
		return
	}
	c.log.Infow("idea moved to recipes", "idea", id, "recipe", newID)
	web.Locate(w, r, "/recipe/"+strconv.Itoa(newID))
}

// moveMessage names the step the move stopped at.
func moveMessage(err error) string {
	var me *store.MoveError
	if !errors.As(err, &me) {
		return "Failed to move the idea"
	}
	switch me.Stage {
	case store.MoveFetchFailed:
		return "Failed to fetch the idea"
	case store.MoveCreateFailed:
		return "Failed to create new recipe"
	case store.MoveDuplicated:
		return "Failed to delete the original idea"
	}
	return "Failed to move the idea"
}

/*──────────────────────────── helpers ──────────────────────────────────────*/

func (c *Component) page(w http.ResponseWriter, r *http.Request, code int, name string, data any) {
	if err := c.views.PageStatus(w, code, c.Name(), name, data); err != nil {
		web.Error(w, r, c.log, "Failed to render page", err)
	}
}

func (c *Component) fragment(w http.ResponseWriter, r *http.Request, name string, data any) {
	if err := c.views.Fragment(w, c.Name(), name, data); err != nil {
		web.Error(w, r, c.log, "Failed to render fragment", err)
	}
}
