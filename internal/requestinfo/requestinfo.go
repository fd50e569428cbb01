//
//  internal/requestinfo/requestinfo.go
//
//  Lightweight types and helpers that collect per-request metadata
//  (request id, user-agent fingerprint, IP + geolocation, and timestamp).
//  These structs are inert.  They hold no handles or large buffers, so
//  they are safe to log or JSON-encode.
//
//  Dependencies
//  • github.com/avct/uasurfer          (UA parsing)
//  • github.com/oschwald/geoip2-golang (MaxMind lookup, optional)
//  • github.com/google/uuid            (request ids)
//

package requestinfo

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	surfer "github.com/avct/uasurfer"
	"github.com/oschwald/geoip2-golang"
)

//
//  -----------------------------
//  Struct definitions
//  -----------------------------
//

// UA holds the parsed user-agent properties.
//
// Example (Chrome on macOS):
//
//	Browser   "BrowserChrome"
//	Version   "125.0.6422"
//	OS        "OSMacOSX"
//	Device    "Desktop"
type UA struct {
	Raw         string
	Browser     string
	Version     string
	OS          string
	OSVersion   string
	Device      string // "Desktop", "Mobile", "Tablet", or "Other"
	Platform    string
	IsBot       bool
	PrimaryLang string // first tag from Accept-Language ("en", "es", ...)
}

// Geo holds IP-based geolocation hints.  Country and City are empty when
// no database is configured or the address has no match.
type Geo struct {
	IP         net.IP
	CountryISO string
	City       string
}

// RequestInfo is stored in the request context by Middleware.
type RequestInfo struct {
	ID        string
	UA        UA
	Geo       Geo
	Timestamp time.Time
}

//
//  -----------------------------
//  Geo lookup
//  -----------------------------
//

// GeoDB answers city lookups.  *geoip2.Reader satisfies it.
type GeoDB interface {
	City(ip net.IP) (*geoip2.City, error)
}

// OpenGeo opens a GeoLite2-City database.  An empty path returns a nil
// reader and no error, which disables lookups.
func OpenGeo(path string) (*geoip2.Reader, error) {
	if path == "" {
		return nil, nil
	}
	r, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open geoip db %s: %w", path, err)
	}
	return r, nil
}

// lookupGeo returns best-effort Geo data.
func lookupGeo(db GeoDB, ip net.IP) Geo {
	if db == nil || ip == nil {
		return Geo{IP: ip}
	}
	rec, err := db.City(ip)
	if err != nil {
		return Geo{IP: ip}
	}
	return Geo{
		IP:         ip,
		CountryISO: rec.Country.IsoCode,
		City:       rec.City.Names["en"],
	}
}

//
//  -----------------------------
//  Public helper: FromContext
//  -----------------------------
//

type ctxKey struct{}

// FromContext returns the value stored by Middleware, or nil.
func FromContext(ctx context.Context) *RequestInfo {
	v, _ := ctx.Value(ctxKey{}).(*RequestInfo)
	return v
}

// ID returns the request id stored by Middleware, or "".
func ID(ctx context.Context) string {
	if ri := FromContext(ctx); ri != nil {
		return ri.ID
	}
	return ""
}

// WithInfo returns ctx carrying ri.
func WithInfo(ctx context.Context, ri *RequestInfo) context.Context {
	return context.WithValue(ctx, ctxKey{}, ri)
}

//
//  -----------------------------
//  UA parsing
//  -----------------------------
//

// ParseUA converts raw headers into a UA using uasurfer.
func ParseUA(uaHeader, acceptLang string) UA {
	u := surfer.Parse(uaHeader)

	out := UA{
		Raw:         uaHeader,
		Browser:     u.Browser.Name.String(),
		Version:     versionToString(u.Browser.Version),
		OS:          u.OS.Name.String(),
		OSVersion:   versionToString(u.OS.Version),
		Platform:    u.OS.Platform.String(),
		IsBot:       u.IsBot(),
		PrimaryLang: primaryLang(acceptLang),
	}

	switch u.DeviceType {
	case surfer.DeviceComputer:
		out.Device = "Desktop"
	case surfer.DeviceTablet:
		out.Device = "Tablet"
	case surfer.DevicePhone, surfer.DeviceWearable:
		out.Device = "Mobile"
	default:
		out.Device = "Other"
	}
	return out
}

// versionToString renders 17.0.0 → "17", 17.3.0 → "17.3", 17.3.1 →
// "17.3.1", and 0.0.0 → "".
func versionToString(v surfer.Version) string {
	if v.Major == 0 && v.Minor == 0 && v.Patch == 0 {
		return ""
	}
	if v.Patch != 0 {
		return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	}
	if v.Minor != 0 {
		return fmt.Sprintf("%d.%d", v.Major, v.Minor)
	}
	return strconv.Itoa(int(v.Major))
}

// primaryLang extracts the first language tag before any ";q=" rule.
func primaryLang(al string) string {
	if al == "" {
		return ""
	}
	tag, _, _ := strings.Cut(al, ",")
	tag, _, _ = strings.Cut(tag, ";")
	return strings.ToLower(strings.TrimSpace(tag))
}
