package view

import (
	"html/template"

	"github.com/yanizio/larder/internal/record"
	"github.com/yanizio/larder/internal/richtext"
)

func (e *Engine) funcMap() template.FuncMap {
	return template.FuncMap{
		"dict":        dict,
		"markdown":    richtext.Render,
		"field":       field,
		"photoURL":    e.photoURL,
		"authEnabled": func() bool { return e.opts.AuthEnabled },
	}
}

// dict builds a map in templates: {{ dict "k" 1 "k2" "v" }}.
func dict(kv ...any) map[string]any {
	m := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, _ := kv[i].(string)
		m[key] = kv[i+1]
	}
	return m
}

// field reads a column of rec by name: {{ field .Record "Title" }}.
func field(rec record.Record, name string) string {
	f, err := record.ParseField(name)
	if err != nil {
		return ""
	}
	v, _ := rec.Value(f)
	return v
}

// photoURL returns the cover image URL of rec, or "" when it has none.
func (e *Engine) photoURL(rec record.Record) string {
	att, ok := rec.Cover()
	if !ok {
		return ""
	}
	return att.Href(e.opts.PhotoOrigin)
}
