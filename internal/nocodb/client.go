// internal/nocodb/client.go
//
// HTTP client for the NocoDB v2 records API.
//
// Context
// -------
// Every record read and write goes through the five table endpoints below,
// authenticated with the `xc-token` header:
//
//	GET    /tables/{t}/records        → {"list": [...]}
//	GET    /tables/{t}/records/{id}   → row
//	POST   /tables/{t}/records        → {"Id": n}
//	PATCH  /tables/{t}/records        → body carries "Id"
//	DELETE /tables/{t}/records        → body is [{"Id": n}]
//
// A non-2xx status is the only error signal.  It surfaces as *StatusError
// so callers can tell a 404 from everything else.  The client never
// retries.
//
// Instrumentation
// ---------------
// Each call increments upstream_requests_total{op,code} and observes
// upstream_request_duration_seconds{op}.
//
// Notes
// -----
// • The transport is a go-cleanhttp pooled client with an explicit timeout.
// • Rows are returned raw; record.Descriptor.Decode normalises them.
// • Oxford commas, two spaces after periods.
package nocodb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"

	"github.com/yanizio/larder/internal/metrics"
)

// TokenHeader carries the API token on every request.
const TokenHeader = "xc-token"

// DefaultTimeout bounds each outbound call when Options.Timeout is zero.
const DefaultTimeout = 15 * time.Second

// Row is one raw record as returned by the API.
type Row = map[string]json.RawMessage

// Options configures a Client.
type Options struct {
	BaseURL    string        // e.g. https://noco.example.com/api/v2
	Token      string        // xc-token value
	Timeout    time.Duration // per call, DefaultTimeout when zero
	HTTPClient *http.Client  // optional, tests inject httptest clients
}

// Client is safe for concurrent use.
type Client struct {
	base  string
	token string
	http  *http.Client
}

// New builds a Client.
func New(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		hc = cleanhttp.DefaultPooledClient()
		hc.Timeout = opts.Timeout
		if hc.Timeout <= 0 {
			hc.Timeout = DefaultTimeout
		}
	}
	return &Client{
		base:  strings.TrimRight(opts.BaseURL, "/"),
		token: opts.Token,
		http:  hc,
	}
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string { return c.base }

/*──────────────────────────── records ──────────────────────────────────────*/

// List fetches the full collection in one call.
func (c *Client) List(ctx context.Context, table string) ([]Row, error) {
	var out struct {
		List []Row `json:"list"`
	}
	if err := c.doJSON(ctx, "list", http.MethodGet, c.recordsURL(table), nil, &out); err != nil {
		return nil, err
	}
	return out.List, nil
}

// Get fetches one row by id.
func (c *Client) Get(ctx context.Context, table string, id int) (Row, error) {
	var out Row
	u := c.recordsURL(table) + "/" + strconv.Itoa(id)
	if err := c.doJSON(ctx, "get", http.MethodGet, u, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create inserts a row and returns the id the API assigned.
func (c *Client) Create(ctx context.Context, table string, fields map[string]any) (int, error) {
	var out struct {
		ID json.Number `json:"Id"`
	}
	if err := c.doJSON(ctx, "create", http.MethodPost, c.recordsURL(table), fields, &out); err != nil {
		return 0, err
	}
	id, err := out.ID.Int64()
	if err != nil {
		return 0, fmt.Errorf("nocodb create: response carried no usable Id %q", out.ID)
	}
	return int(id), nil
}

// Update overwrites the given columns of the row whose "Id" is in fields.
func (c *Client) Update(ctx context.Context, table string, fields map[string]any) error {
	if _, ok := fields["Id"]; !ok {
		return fmt.Errorf("nocodb update: body has no Id")
	}
	return c.doJSON(ctx, "update", http.MethodPatch, c.recordsURL(table), fields, nil)
}

// Delete removes rows by id.
func (c *Client) Delete(ctx context.Context, table string, ids ...int) error {
	body := make([]map[string]int, 0, len(ids))
	for _, id := range ids {
		body = append(body, map[string]int{"Id": id})
	}
	return c.doJSON(ctx, "delete", http.MethodDelete, c.recordsURL(table), body, nil)
}

/*──────────────────────────── transport ────────────────────────────────────*/

func (c *Client) recordsURL(table string) string {
	return c.base + "/tables/" + table + "/records"
}

func (c *Client) doJSON(ctx context.Context, op, method, url string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("nocodb %s: encode: %w", op, err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, rdr)
	if err != nil {
		return fmt.Errorf("nocodb %s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(op, req, out)
}

// send executes req, records metrics, maps non-2xx to *StatusError, and
// decodes the body into out when out is non-nil.
func (c *Client) send(op string, req *http.Request, out any) error {
	req.Header.Set(TokenHeader, c.token)

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.UpstreamDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(op, "error").Inc()
		return fmt.Errorf("nocodb %s: %w", op, err)
	}
	defer resp.Body.Close()
	metrics.UpstreamRequests.WithLabelValues(op, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &StatusError{Op: op, Code: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("nocodb %s: decode: %w", op, err)
	}
	return nil
}
