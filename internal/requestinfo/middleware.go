// internal/requestinfo/middleware.go
//
// HTTP middleware that tags each request with *RequestInfo and writes one
// access-log line when it finishes.
//
/*
Context
--------
This handler sits first in the chain, ahead of the session gate and the
component routers.  For every request it:

  1. Reuses an inbound X-Request-Id or mints a UUID, and echoes it back.
  2. Parses the User-Agent header and Accept-Language list.
  3. Extracts the left-most client IP from X-Forwarded-For or X-Real-IP,
     falling back to `r.RemoteAddr`, and looks it up in GeoLite2 when a
     database is configured.
  4. Stores the result in `request.Context` so handlers can log with the
     same request id.
  5. After the handler returns, logs method, path, status, bytes, and
     duration at INFO.

Notes
-----
  • Look-ups are read-only, so the middleware is safe under concurrency.
  • Oxford commas, two spaces after periods.  No em dash.
*/
package requestinfo

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// HeaderRequestID carries the request id in both directions.
const HeaderRequestID = "X-Request-Id"

/*──────────────────────────── middleware ───────────────────────────────────*/

// Middleware returns the enrich-and-log wrapper.  geo may be nil.
func Middleware(log *zap.SugaredLogger, geo GeoDB) func(http.Handler) http.Handler {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			id := r.Header.Get(HeaderRequestID)
			if id == "" || len(id) > 64 {
				id = uuid.NewString()
			}
			w.Header().Set(HeaderRequestID, id)

			info := &RequestInfo{
				ID:        id,
				UA:        ParseUA(r.UserAgent(), r.Header.Get("Accept-Language")),
				Geo:       lookupGeo(geo, clientIP(r)),
				Timestamp: start.UTC(),
			}

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(WithInfo(r.Context(), info)))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			log.Infow("request",
				"request_id", id,
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"htmx", r.Header.Get("HX-Request") == "true",
				"browser", info.UA.Browser,
				"device", info.UA.Device,
				"bot", info.UA.IsBot,
				"country", info.Geo.CountryISO,
			)
		})
	}
}

/*──────────────────────────── client IP helper ─────────────────────────────*/

// clientIP extracts the left-most address from X-Forwarded-For or
// X-Real-IP, falling back to r.RemoteAddr ("ip:port").
func clientIP(r *http.Request) net.IP {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for _, part := range strings.Split(xff, ",") {
			if ip := net.ParseIP(strings.TrimSpace(part)); ip != nil {
				return ip
			}
		}
	}
	if xrip := r.Header.Get("X-Real-Ip"); xrip != "" {
		if ip := net.ParseIP(strings.TrimSpace(xrip)); ip != nil {
			return ip
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return net.ParseIP(host)
	}
	return nil
}
