package record

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Attachment is the metadata the storage API returns for an uploaded file.
// The tabular API keeps attachment columns as a JSON list of these.
type Attachment struct {
	Path       string `json:"path"`
	Title      string `json:"title"`
	Mimetype   string `json:"mimetype"`
	Size       int64  `json:"size"`
	SignedPath string `json:"signedPath,omitempty"`
	ID         string `json:"id,omitempty"`
}

// UnmarshalJSON accepts size and id as either numbers or strings.
func (a *Attachment) UnmarshalJSON(b []byte) error {
	var w struct {
		Path       string          `json:"path"`
		Title      string          `json:"title"`
		Mimetype   string          `json:"mimetype"`
		Size       json.RawMessage `json:"size"`
		SignedPath string          `json:"signedPath"`
		ID         json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*a = Attachment{
		Path:       w.Path,
		Title:      w.Title,
		Mimetype:   w.Mimetype,
		Size:       int64(intValue(w.Size)),
		SignedPath: w.SignedPath,
	}
	a.ID, _ = stringValue(w.ID)
	return nil
}

// Href builds a browser URL for the attachment on the given origin
// (scheme://host of the tabular API).  The signed path wins when present.
func (a Attachment) Href(origin string) string {
	p := a.SignedPath
	if p == "" {
		p = a.Path
	}
	if p == "" {
		return ""
	}
	return strings.TrimRight(origin, "/") + "/" + strings.TrimLeft(p, "/")
}

// DecodeAttachments reads an attachment column.  The API returns a JSON
// list, older rows may hold that list JSON-encoded inside a string, and the
// upload endpoint may answer with a bare object.
func DecodeAttachments(raw json.RawMessage) ([]Attachment, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		if strings.TrimSpace(s) == "" {
			return nil, nil
		}
		return DecodeAttachments(json.RawMessage(s))
	case '{':
		var a Attachment
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, err
		}
		return []Attachment{a}, nil
	}
	var out []Attachment
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
