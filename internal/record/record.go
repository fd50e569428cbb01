// internal/record/record.go
//
// Typed recipe and idea records.
//
// Context
// -------
// Both collections live in the hosted tabular store as flat field maps keyed
// by a server-assigned integer `Id`.  Record is the one Go shape for both
// variants.  A Descriptor (descriptor.go) says which columns a collection
// carries, which of them are rich text, and which sentinel fills a value the
// API left out.
//
// Notes
// -----
// • Rich fields hold sanitized raw markup.  HTML is produced by the
//   richtext package on the display path only.
// • ID is assigned by the API and never touched by Set.
// • Oxford commas, two spaces after periods.
package record

// Record is a single recipe or idea row.
type Record struct {
	ID          int
	Title       string
	Meal        string
	Core        string
	Source      string
	Notes       string
	LeftOvers   string
	Ingredients string
	Method      string
	Photo       []Attachment // nil when no photo is linked
}

// HasPhoto reports whether an attachment is linked.
func (r Record) HasPhoto() bool { return len(r.Photo) > 0 }

// Cover returns the linked attachment, if any.
func (r Record) Cover() (Attachment, bool) {
	if len(r.Photo) == 0 {
		return Attachment{}, false
	}
	return r.Photo[0], true
}

// Value returns the string value of f.
func (r *Record) Value(f Field) (string, error) {
	p, err := r.ptr(f)
	if err != nil {
		return "", err
	}
	return *p, nil
}

// Set overwrites exactly one field.
func (r *Record) Set(f Field, v string) error {
	p, err := r.ptr(f)
	if err != nil {
		return err
	}
	*p = v
	return nil
}

func (r *Record) ptr(f Field) (*string, error) {
	switch f {
	case Title:
		return &r.Title, nil
	case Meal:
		return &r.Meal, nil
	case Core:
		return &r.Core, nil
	case Source:
		return &r.Source, nil
	case Notes:
		return &r.Notes, nil
	case LeftOvers:
		return &r.LeftOvers, nil
	case Ingredients:
		return &r.Ingredients, nil
	case Method:
		return &r.Method, nil
	}
	return nil, fieldError(string(f))
}
