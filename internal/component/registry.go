// internal/component/registry.go
//
// Component contract and mounting.
//
// Each concrete component lives under components/<name>, is constructed in
// cmd/web with its dependencies, and handed to Mount.  Mount registers the
// component's embedded templates with the view engine and lets it add its
// routes.  Components that implement Public skip the session gate.

package component

import (
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yanizio/larder/internal/view"
)

// Component contract.
//
// Routes adds page and fragment endpoints to r, e.g.:
//
//	func (c *Component) Routes(r chi.Router) {
//		r.Get("/", c.index)
//		r.Route("/ideas", func(r chi.Router) { ... })
//	}
type Component interface {
	Name() string
	Routes(r chi.Router)
	Templates() fs.FS
}

// Public is optional.  A component whose Public returns true is mounted
// outside the session gate (the login page, for one).
type Public interface {
	Public() bool
}

// Mount registers every component on r.  gate wraps non-public routes and
// may be nil.
func Mount(r chi.Router, views *view.Engine, gate func(http.Handler) http.Handler, comps ...Component) {
	for _, c := range comps {
		if t := c.Templates(); t != nil {
			views.Register(c.Name(), t)
		}
		r.Group(func(g chi.Router) {
			if p, ok := c.(Public); (!ok || !p.Public()) && gate != nil {
				g.Use(gate)
			}
			c.Routes(g)
		})
	}
}
