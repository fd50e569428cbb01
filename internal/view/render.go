// internal/view/render.go
//
// Central view engine: template lookup, override chain, func-map injection,
// and an LRU of parsed *template.Template* sets.
//
// Public helpers
// --------------
//   - Page     – render a full page inside the shared layout.
//   - Fragment – render an htmx partial with no layout.
//   - String   – return template.HTML (tests, nested fragments).
//
// Lookup precedence (first hit wins):
//   1. <paths.templates>/<comp>/<tpl>.html   (operator override, optional)
//   2. the component's embedded templates/<tpl>.html
//
// The layout is looked up the same way under the component name "layout".
//
// Set composition
// ---------------
// Each (component, template) pair is parsed as one set: the layout, every
// partial of the component (files named `_*.html`), and the template
// itself.  Pages define "title" and "content" blocks; the layout executes
// them.  Fragments are plain files executed by their own name.
//
// Style
// -----
// • Oxford commas, two spaces after periods.

package view

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"os"
	"path"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/yanizio/larder/internal/cache"
)

//go:embed templates/*.html
var layoutFS embed.FS

// LayoutComponent names the shared layout's lookup slot.
const LayoutComponent = "layout"

// ErrUnknownComponent is returned for a component that was never registered.
var ErrUnknownComponent = errors.New("view: unknown component")

// Options configures an Engine.
type Options struct {
	Override    string // directory of operator templates; empty disables
	PhotoOrigin string // scheme://host prefix for attachment paths
	AuthEnabled bool   // layout shows a log-out link
	NoCache     bool   // reparse on every render (development)
}

// Engine renders component templates.  Safe for concurrent use.
type Engine struct {
	opts     Options
	override fs.FS
	funcs    template.FuncMap
	log      *zap.SugaredLogger

	mu    sync.RWMutex
	comps map[string]fs.FS

	sets *cache.LRU[string, *template.Template]
}

// New returns an Engine with the layout registered.  log may be nil.
func New(opts Options, log *zap.SugaredLogger) *Engine {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	e := &Engine{
		opts:  opts,
		log:   log,
		comps: make(map[string]fs.FS),
		sets:  cache.New[string, *template.Template](256),
	}
	if opts.Override != "" {
		e.override = os.DirFS(opts.Override)
	}
	e.funcs = e.funcMap()

	layout, _ := fs.Sub(layoutFS, "templates")
	e.Register(LayoutComponent, layout)
	return e
}

// Register adds a component's template tree.  fsys holds *.html at its root.
func (e *Engine) Register(comp string, fsys fs.FS) {
	e.mu.Lock()
	e.comps[comp] = fsys
	e.mu.Unlock()
	e.sets.Purge()
}

/*──────────────────────────── public helpers ───────────────────────────────*/

// Page renders comp/name inside the layout with status 200.
func (e *Engine) Page(w http.ResponseWriter, comp, name string, data any) error {
	return e.PageStatus(w, http.StatusOK, comp, name, data)
}

// PageStatus is Page with an explicit status code.
func (e *Engine) PageStatus(w http.ResponseWriter, code int, comp, name string, data any) error {
	return e.write(w, code, comp, name, "layout", data)
}

// Fragment renders comp/name without the layout.
func (e *Engine) Fragment(w http.ResponseWriter, comp, name string, data any) error {
	return e.write(w, http.StatusOK, comp, name, name+".html", data)
}

// String executes comp/name without the layout and returns the HTML.
func (e *Engine) String(comp, name string, data any) (template.HTML, error) {
	t, err := e.load(comp, name)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name+".html", data); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// write renders into a buffer first so a template error never leaves a
// half-written 200 behind.
func (e *Engine) write(w http.ResponseWriter, code int, comp, name, exec string, data any) error {
	t, err := e.load(comp, name)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, exec, data); err != nil {
		e.log.Errorw("template execute failed", "component", comp, "template", name, "err", err)
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	_, err = buf.WriteTo(w)
	return err
}

/*──────────────────────────── internal: load ───────────────────────────────*/

func (e *Engine) load(comp, name string) (*template.Template, error) {
	key := comp + "::" + name
	if !e.opts.NoCache {
		if t, ok := e.sets.Get(key); ok {
			return t, nil
		}
	}

	files := []struct{ comp, file string }{{LayoutComponent, "layout.html"}}
	partials, err := e.partials(comp)
	if err != nil {
		return nil, err
	}
	for _, p := range partials {
		files = append(files, struct{ comp, file string }{comp, p})
	}
	files = append(files, struct{ comp, file string }{comp, name + ".html"})

	t := template.New(name).Funcs(e.funcs)
	for _, f := range files {
		src, err := e.read(f.comp, f.file)
		if err != nil {
			return nil, err
		}
		if _, err := t.New(f.file).Parse(string(src)); err != nil {
			return nil, fmt.Errorf("view: parse %s/%s: %w", f.comp, f.file, err)
		}
	}

	if !e.opts.NoCache {
		before := e.sets.Evictions()
		e.sets.Add(key, t)
		if e.sets.Evictions() > before {
			e.log.Debugw("template set evicted", "loaded", key, "evictions", e.sets.Evictions())
		}
	}
	return t, nil
}

// read returns comp/file from the override tree, else the embedded one.
func (e *Engine) read(comp, file string) ([]byte, error) {
	if e.override != nil {
		if b, err := fs.ReadFile(e.override, path.Join(comp, file)); err == nil {
			return b, nil
		}
	}
	fsys, err := e.component(comp)
	if err != nil {
		return nil, err
	}
	b, err := fs.ReadFile(fsys, file)
	if err != nil {
		return nil, fmt.Errorf("view: %s/%s: %w", comp, file, err)
	}
	return b, nil
}

// partials lists `_*.html` from both trees, deduplicated and sorted.
func (e *Engine) partials(comp string) ([]string, error) {
	fsys, err := e.component(comp)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	add := func(names []string) {
		for _, n := range names {
			seen[path.Base(n)] = true
		}
	}
	names, _ := fs.Glob(fsys, "_*.html")
	add(names)
	if e.override != nil {
		names, _ = fs.Glob(e.override, path.Join(comp, "_*.html"))
		add(names)
	}

	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Strings(out)
	return out, nil
}

func (e *Engine) component(comp string) (fs.FS, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	fsys, ok := e.comps[comp]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownComponent, strings.TrimSpace(comp))
	}
	return fsys, nil
}
