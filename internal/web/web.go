// internal/web/web.go
//
// Shared HTTP helpers for the component routers.
//
// Context
// -------
// Pages are driven by htmx.  An htmx request carries `HX-Request: true`
// and expects navigation as response headers (`HX-Redirect`,
// `HX-Location`, `HX-Refresh`) instead of a 3xx, which the browser would
// follow silently inside the XHR.  These helpers pick the right form so
// handlers do not have to.
//
// Errors leave a handler through Error, which logs once, maps the store
// sentinel to a status code, and writes the JSON envelope
// `{"error": "...", "status_code": N}`.
//
// Notes
// -----
// • Oxford commas, two spaces after periods.
package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/yanizio/larder/internal/form"
	"github.com/yanizio/larder/internal/requestinfo"
	"github.com/yanizio/larder/internal/store"
)

/*──────────────────────────── htmx ─────────────────────────────────────────*/

// IsHTMX reports whether r was issued by htmx.
func IsHTMX(r *http.Request) bool { return r.Header.Get("HX-Request") == "true" }

// Redirect sends the client to url: HX-Redirect for htmx, 303 otherwise.
func Redirect(w http.ResponseWriter, r *http.Request, url string) {
	if IsHTMX(r) {
		w.Header().Set("HX-Redirect", url)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// Locate answers an htmx request with HX-Location, which navigates without
// a full page reload.  Non-htmx requests get a 303.
func Locate(w http.ResponseWriter, r *http.Request, url string) {
	if IsHTMX(r) {
		w.Header().Set("HX-Location", url)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// Refresh asks htmx to reload the current page.  Non-htmx requests are
// redirected to fallback.
func Refresh(w http.ResponseWriter, r *http.Request, fallback string) {
	if IsHTMX(r) {
		w.Header().Set("HX-Refresh", "true")
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, fallback, http.StatusSeeOther)
}

/*──────────────────────────── request params ───────────────────────────────*/

// ErrBadID is returned by ID for a missing or non-positive id.
var ErrBadID = errors.New("invalid record id")

// ID parses the chi URL parameter name as a positive record id.
func ID(r *http.Request, name string) (int, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%w: %q", ErrBadID, raw)
	}
	return id, nil
}

/*──────────────────────────── responses ────────────────────────────────────*/

// Envelope is the JSON error body.
type Envelope struct {
	Error      string `json:"error"`
	StatusCode int    `json:"status_code"`
}

// JSON writes v with status code.
func JSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// Status maps an error from the store (or this package) to an HTTP code.
func Status(err error) int {
	switch {
	case errors.Is(err, ErrBadID), errors.Is(err, store.ErrInvalidField), errors.Is(err, form.ErrMissing):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrUpstreamUnavailable),
		errors.Is(err, store.ErrUpstreamRejected),
		errors.Is(err, store.ErrUploadFailed):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// Error logs err once and writes the envelope.  msg is the client-facing
// text; the wrapped error stays in the log.
func Error(w http.ResponseWriter, r *http.Request, log *zap.SugaredLogger, msg string, err error) {
	code := Status(err)
	fields := []any{
		"request_id", requestinfo.ID(r.Context()),
		"path", r.URL.Path,
		"status", code,
		"err", err,
	}
	if code >= http.StatusInternalServerError {
		log.Errorw(msg, fields...)
	} else {
		log.Warnw(msg, fields...)
	}
	JSON(w, code, Envelope{Error: msg, StatusCode: code})
}
