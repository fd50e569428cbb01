package nocodb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
)

// Upload describes one file for the storage endpoint.
type Upload struct {
	Path     string // target path, e.g. download/noco/<table>/<name>
	Filename string // already sanitized
	Mimetype string
	Size     int64
	Body     io.Reader
}

// Upload posts a file to /storage/upload and returns the raw attachment
// metadata, which the API sends either as an object or a one-element list.
func (c *Client) Upload(ctx context.Context, up Upload) (json.RawMessage, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fields := [][2]string{
		{"mimetype", up.Mimetype},
		{"path", up.Path},
		{"size", strconv.FormatInt(up.Size, 10)},
		{"title", up.Filename},
	}
	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return nil, fmt.Errorf("nocodb upload: %w", err)
		}
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, up.Filename))
	h.Set("Content-Type", up.Mimetype)
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("nocodb upload: %w", err)
	}
	if _, err := io.Copy(part, up.Body); err != nil {
		return nil, fmt.Errorf("nocodb upload: read file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("nocodb upload: %w", err)
	}

	u := c.base + "/storage/upload?path=" + url.QueryEscape(up.Path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, &buf)
	if err != nil {
		return nil, fmt.Errorf("nocodb upload: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	var out json.RawMessage
	if err := c.send("upload", req, &out); err != nil {
		return nil, err
	}
	return out, nil
}
