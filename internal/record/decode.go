package record

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// stringValue flattens a JSON scalar (or a multi-select list) to text.
// ok is false for absent and null values.
func stringValue(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", false
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false
		}
		return s, true
	case '[':
		var parts []json.RawMessage
		if err := json.Unmarshal(raw, &parts); err != nil {
			return "", false
		}
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if s, ok := stringValue(p); ok {
				out = append(out, s)
			}
		}
		return strings.Join(out, ", "), true
	case '{':
		return "", false
	}
	return string(raw), true // number or bool
}

// Present reports whether a raw column value carries data.  Absent, null,
// and object values do not.
func Present(raw json.RawMessage) bool {
	_, ok := stringValue(raw)
	return ok
}

// intValue reads an integer id that may arrive as a number or a string.
func intValue(raw json.RawMessage) int {
	s, ok := stringValue(raw)
	if !ok {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f)
	}
	return 0
}
