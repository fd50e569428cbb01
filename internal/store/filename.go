package store

import "strings"

// SafeFilename reduces an uploaded file name to a plain ASCII base name:
// directory parts dropped, spaces folded to "_", and anything outside
// [A-Za-z0-9._-] removed.  When nothing usable remains it returns
// "photo"+ext.
func SafeFilename(name, ext string) string {
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}

	var b strings.Builder
	for _, r := range strings.Join(strings.Fields(name), "_") {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '_', r == '-':
			b.WriteRune(r)
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "photo" + ext
	}
	return out
}
