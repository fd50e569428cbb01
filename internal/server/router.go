// internal/server/router.go
//
// Root handler assembly.
//
// Context
// -------
// Middleware order, outermost first:
//
//  1. requestinfo  – request id, UA and geo facts, one access-log line.
//  2. Recoverer    – a panicking handler answers 500 instead of dropping
//                    the connection; the access line still records it.
//  3. Security     – response headers (CSP, frame, referrer, nosniff).
//  4. ForceHTTPS   – 308 to https when enabled (loopback exempt).
//
// Operational endpoints (/healthz, /metrics) sit outside the session gate.
// Components are mounted through component.Mount, which applies the gate
// to everything that is not Public.
//
// Notes
// -----
// • Oxford commas, two spaces after periods.
//
//------------------------------------------------------------------------------

package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/yanizio/larder/internal/component"
	mw "github.com/yanizio/larder/internal/middleware"
	"github.com/yanizio/larder/internal/requestinfo"
	"github.com/yanizio/larder/internal/view"
	"github.com/yanizio/larder/internal/web"
)

// Deps are the collaborators the router needs.  Geo and Gate may be nil.
type Deps struct {
	Log        *zap.SugaredLogger
	Geo        requestinfo.GeoDB
	ForceHTTPS bool
	Gate       func(http.Handler) http.Handler
	Views      *view.Engine
	Components []component.Component
}

// Router builds the application handler.
func Router(d Deps) http.Handler {
	log := d.Log
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	r := chi.NewRouter()
	r.Use(
		requestinfo.Middleware(log, d.Geo),
		middleware.Recoverer,
		mw.Security,
		mw.ForceHTTPS(d.ForceHTTPS),
	)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		web.JSON(w, http.StatusNotFound, web.Envelope{Error: "Not found", StatusCode: http.StatusNotFound})
	})

	component.Mount(r, d.Views, d.Gate, d.Components...)
	return r
}
