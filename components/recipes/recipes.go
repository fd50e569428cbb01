// components/recipes/recipes.go
//
// Recipes component – browse, search, view, create, edit, photo, delete.
//
// Routes (mounted at “/”)
// -----------------------
//
//	GET    /                              index of every recipe
//	GET    /search?search=                multi-keyword filter (htmx results)
//	GET    /recipe/{id}                   detail page
//	GET    /upload_photo_field/{id}       photo upload fragment
//	POST   /save_photo/{id}               multipart “photo” → attach
//	GET    /create_recipe                 create form
//	POST   /save_new_recipe               create, optional photo
//	DELETE /delete/{id}                   delete, then back to index
//	…      /edit_field etc.               see internal/fieldedit
//
// Pages fall back to an error render when the upstream fails; fragments
// and actions answer with the JSON error envelope.
//
//------------------------------------------------------------------------------

package recipes

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

// Compile-time assertion: *Component satisfies component.Component.
var _ component.Component = (*Component)(nil)

//go:embed templates/*.html
var templatesFS embed.FS

// MaxUpload bounds a photo request body.
const MaxUpload = 32 << 20

// Component serves the recipe collection.
type Component struct {
	repo   *store.Repository
	views  *view.Engine
	fields *fieldedit.Handlers
	log    *zap.SugaredLogger
}

// New wires the component.  log may be nil.
func New(repo *store.Repository, views *view.Engine, log *zap.SugaredLogger) *Component {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	log = log.With("component", "recipes")
	return &Component{
		repo:   repo,
		views:  views,
		fields: fieldedit.New(repo, views, "", log),
		log:    log,
	}
}

/*────────────────── component.Component methods ───────────────────────────*/

// Name returns the canonical component key.
func (c *Component) Name() string { return "recipes" }

// Templates returns the embedded page templates.
func (c *Component) Templates() fs.FS {
	sub, _ := fs.Sub(templatesFS, "templates")
	return sub
}

// Routes adds the recipe endpoints.
func (c *Component) Routes(r chi.Router) {
	r.Get("/", c.index)
	r.Get("/search", c.search)
	r.Get("/recipe/{id}", c.recipe)

	r.Get("/upload_photo_field/{id}", c.uploadPhotoField)
	r.Post("/save_photo/{id}", c.savePhoto)

	r.Get("/create_recipe", c.createRecipe)
	r.Post("/save_new_recipe", c.saveNewRecipe)
	r.Delete("/delete/{id}", c.delete)

	c.fields.Routes(r)
}

/*──────────────────────────── view models ──────────────────────────────────*/

type listPage struct {
	Recipes []record.Record
	Query   string
	Error   string
}

type fieldView struct {
	Label string
	HTML  template.HTML
}

type detailPage struct {
	Recipe record.Record
	Fields []fieldView
	Rich   []fieldView
}

type createPage struct {
	Form   newRecipe
	Errors []form.ErrorField
	Error  string
}

// newRecipe is the create form.  Only the title is mandatory.
type newRecipe struct {
	Title       string `form:"title" validate:"required"`
	Meal        string `form:"meal"`
	Core        string `form:"core"`
	Source      string `form:"source"`
	LeftOvers   string `form:"leftovers"`
	Notes       string `form:"notes"`
	Ingredients string `form:"ingredients"`
	Method      string `form:"method"`
}

/*──────────────────────────── browse ───────────────────────────────────────*/

func (c *Component) index(w http.ResponseWriter, r *http.Request) {
	all, err := c.repo.List(r.Context())
	if err != nil {
		c.log.Errorw("list recipes failed", "err", err)
		c.page(w, r, web.Status(err), "index", listPage{Error: "Failed to retrieve recipes."})
		return
	}
	c.page(w, r, http.StatusOK, "index", listPage{Recipes: all})
}

func (c *Component) search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("search")
	found, err := c.repo.Search(r.Context(), q)
	if err != nil {
		web.Error(w, r, c.log, "Failed to retrieve recipes", err)
		return
	}
	data := listPage{Recipes: found, Query: q}
	if web.IsHTMX(r) {
		c.fragment(w, r, "results", data)
		return
	}
	c.page(w, r, http.StatusOK, "index", data)
}

func (c *Component) recipe(w http.ResponseWriter, r *http.Request) {
	id, err := web.ID(r, "id")
	if err != nil {
		web.Error(w, r, c.log, "Invalid recipe id", err)
		return
	}
	rec, err := c.repo.Get(r.Context(), id)
	if err != nil {
		web.Error(w, r, c.log, "Failed to retrieve recipe", err)
		return
	}

	data := detailPage{Recipe: rec}
	desc := c.repo.Descriptor()
	for _, f := range desc.Fields {
		v, _ := rec.Value(f)
		frag := fieldedit.Fragment{ID: id, Field: string(f), Value: v}
		tpl := "display_field"
		if desc.IsRich(f) {
			tpl = "display_rich_field"
			frag.HTML = richtext.Render(v)
		}
		html, err := c.views.String(fieldedit.Component, tpl, frag)
		if err != nil {
			web.Error(w, r, c.log, "Failed to render recipe", err)
			return
		}
		if desc.IsRich(f) {
			data.Rich = append(data.Rich, fieldView{Label: string(f), HTML: html})
		} else {
			data.Fields = append(data.Fields, fieldView{Label: string(f), HTML: html})
		}
	}
	c.page(w, r, http.StatusOK, "recipe", data)
}

/*──────────────────────────── photo ────────────────────────────────────────*/

func (c *Component) uploadPhotoField(w http.ResponseWriter, r *http.Request) {
	id, err := web.ID(r, "id")
	if err != nil {
		web.Error(w, r, c.log, "Invalid recipe id", err)
		return
	}
	c.fragment(w, r, "upload_photo_field", map[string]int{"ID": id})
}

func (c *Component) savePhoto(w http.ResponseWriter, r *http.Request) {
	id, err := web.ID(r, "id")
	if err != nil {
		web.Error(w, r, c.log, "Invalid recipe id", err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxUpload)
	file, fh, err := r.FormFile("photo")
	if err != nil {
		c.log.Warnw("save photo without file", "id", id, "err", err)
		web.JSON(w, http.StatusBadRequest, web.Envelope{Error: "No file uploaded", StatusCode: http.StatusBadRequest})
		return
	}
	defer file.Close()
	if fh.Filename == "" {
		web.JSON(w, http.StatusBadRequest, web.Envelope{Error: "No file selected", StatusCode: http.StatusBadRequest})
		return
	}

	if _, err := c.repo.AttachPhoto(r.Context(), id, file, fh.Filename); err != nil {
		web.Error(w, r, c.log, attachMessage(err), err)
		return
	}
	web.Redirect(w, r, recipeURL(id))
}

// attachMessage names the phase that failed.
func attachMessage(err error) string {
	var ae *store.AttachError
	if errors.As(err, &ae) && ae.Stage == store.Uploaded {
		return "Failed to update record with photo"
	}
	return "Failed to upload photo"
}

/*──────────────────────────── create / delete ──────────────────────────────*/

func (c *Component) createRecipe(w http.ResponseWriter, r *http.Request) {
	c.page(w, r, http.StatusOK, "create_recipe", createPage{})
}

func (c *Component) saveNewRecipe(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUpload)

	var in newRecipe
	if err := form.Decode(r, &in); err != nil {
		data := createPage{Form: in, Error: "Please fill in the required fields."}
		var inv *form.Invalid
		if errors.As(err, &inv) {
			data.Errors = inv.Fields
		}
		c.page(w, r, http.StatusBadRequest, "create_recipe", data)
		return
	}

	created, err := c.repo.Create(r.Context(), c.fromForm(in))
	if err != nil {
		c.log.Errorw("create recipe failed", "err", err)
		c.page(w, r, web.Status(err), "create_recipe", createPage{
			Form:  in,
			Error: "Failed to save the recipe.  Please try again.",
		})
		return
	}

	if file, fh, err := r.FormFile("photo"); err == nil {
		defer file.Close()
		if fh.Filename != "" {
			if _, err := c.repo.AttachPhoto(r.Context(), created.ID, file, fh.Filename); err != nil {
				c.log.Warnw("recipe created without photo", "id", created.ID, "err", err)
			}
		}
	}

	web.Redirect(w, r, recipeURL(created.ID))
}

func (c *Component) delete(w http.ResponseWriter, r *http.Request) {
	id, err := web.ID(r, "id")
	if err != nil {
		web.Error(w, r, c.log, "Invalid recipe id", err)
		return
	}
	if err := c.repo.Delete(r.Context(), id); err != nil {
		web.Error(w, r, c.log, "Failed to delete recipe", err)
		return
	}
	web.Redirect(w, r, "/")
}

/*──────────────────────────── helpers ──────────────────────────────────────*/

// fromForm starts from the collection defaults and overlays every
// non-empty form value.
func (c *Component) fromForm(in newRecipe) record.Record {
	rec := c.repo.Descriptor().New()
	set := func(f record.Field, v string) {
		if v != "" {
			_ = rec.Set(f, v)
		}
	}
	set(record.Title, in.Title)
	set(record.Meal, in.Meal)
	set(record.Core, in.Core)
	set(record.Source, in.Source)
	set(record.LeftOvers, in.LeftOvers)
	set(record.Notes, in.Notes)
	set(record.Ingredients, in.Ingredients)
	set(record.Method, in.Method)
	return rec
}

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

func recipeURL(id int) string { return "/recipe/" + strconv.Itoa(id) }
