// internal/record/descriptor.go
//
// Record-variant descriptors.
//
// Context
// -------
// The recipe and idea collections differ only in which columns they carry,
// which columns hold rich text, what a missing value defaults to, and
// whether a photo can be linked.  A Descriptor captures those differences so
// one Repository serves both.
//
// Notes
// -----
// • Table is the upstream collection identifier and comes from config.
// • Oxford commas, two spaces after periods.
package record

import (
	"encoding/json"
	"slices"
)

// Descriptor describes one collection.
type Descriptor struct {
	Name     string  // plural, used in logs and metrics ("recipes")
	Singular string  // used in user-facing messages ("recipe")
	Table    string  // upstream collection identifier
	Fields   []Field // carried columns, display order
	Rich     []Field // subset of Fields holding markup
	Photo    bool    // collection has a Photo attachment column

	defaults map[Field]string
}

// Recipes returns the descriptor for the recipe collection stored in table.
func Recipes(table string) Descriptor {
	return Descriptor{
		Name:     "recipes",
		Singular: "recipe",
		Table:    table,
		Fields:   []Field{Title, Meal, Core, Source, LeftOvers, Notes, Ingredients, Method},
		Rich:     []Field{Notes, Ingredients, Method},
		Photo:    true,
		defaults: map[Field]string{
			Title:  "Untitled",
			Meal:   "Unknown",
			Source: "Unknown",
		},
	}
}

// Ideas returns the descriptor for the idea collection stored in table.
// Every missing idea column reads as "-".
func Ideas(table string) Descriptor {
	d := Descriptor{
		Name:     "ideas",
		Singular: "idea",
		Table:    table,
		Fields:   []Field{Title, Meal, Core, Source, Notes},
		Rich:     []Field{Notes},
		defaults: map[Field]string{},
	}
	for _, f := range d.Fields {
		d.defaults[f] = "-"
	}
	return d
}

// Has reports whether the collection carries f.
func (d Descriptor) Has(f Field) bool { return slices.Contains(d.Fields, f) }

// IsRich reports whether f holds markup in this collection.
func (d Descriptor) IsRich(f Field) bool { return slices.Contains(d.Rich, f) }

// Lookup parses name and checks the collection carries it.
func (d Descriptor) Lookup(name string) (Field, error) {
	f, err := ParseField(name)
	if err != nil {
		return "", err
	}
	if !d.Has(f) {
		return "", fieldError(name)
	}
	return f, nil
}

// Default returns the sentinel used when the API omits f.
func (d Descriptor) Default(f Field) string { return d.defaults[f] }

// New returns a record with every carried field set to its sentinel.
func (d Descriptor) New() Record {
	var r Record
	for _, f := range d.Fields {
		_ = r.Set(f, d.defaults[f])
	}
	return r
}

// Payload returns the column map for every carried field of r.  Id and
// Photo are not included.
func (d Descriptor) Payload(r Record) map[string]any {
	return Project(r, d.Fields)
}

// Full returns the whole-record body used by a PATCH: every carried field,
// the Id, and the Photo column when one is linked.
func (d Descriptor) Full(r Record) map[string]any {
	m := d.Payload(r)
	m[IDColumn] = r.ID
	if d.Photo && r.Photo != nil {
		m[PhotoColumn] = r.Photo
	}
	return m
}

// Project returns the column map for the given fields of r.
func Project(r Record, fields []Field) map[string]any {
	m := make(map[string]any, len(fields)+1)
	for _, f := range fields {
		v, _ := r.Value(f)
		m[string(f)] = v
	}
	return m
}

// Decode normalises a raw API row.  It never fails: absent, null, or
// malformed columns fall back to the collection's sentinel.
func (d Descriptor) Decode(raw map[string]json.RawMessage) Record {
	r := d.New()
	r.ID = intValue(raw[IDColumn])
	for _, f := range d.Fields {
		if v, ok := stringValue(raw[string(f)]); ok {
			_ = r.Set(f, v)
		}
	}
	if d.Photo {
		if atts, err := DecodeAttachments(raw[PhotoColumn]); err == nil && len(atts) > 0 {
			r.Photo = atts
		}
	}
	return r
}
