package record

import (
	"errors"
	"fmt"
	"strings"
)

// Field names a column of the tabular store.  The string value is the
// column name used on the wire.
type Field string

const (
	Title       Field = "Title"
	Meal        Field = "Meal"
	Core        Field = "Core"
	Source      Field = "Source"
	Notes       Field = "Notes"
	LeftOvers   Field = "LeftOvers"
	Ingredients Field = "Ingredients"
	Method      Field = "Method"
)

// Column names that are not editable Fields.
const (
	IDColumn    = "Id"
	PhotoColumn = "Photo"
)

// ErrInvalidField is returned for a field name a collection does not carry.
var ErrInvalidField = errors.New("invalid field")

// Shared lists the fields ideas and recipes have in common.  A move copies
// exactly these.
var Shared = []Field{Title, Meal, Core, Source, Notes}

// searchable fields, in match order.
var searchable = []Field{Title, Meal, Core, Source}

var all = []Field{Title, Meal, Core, Source, Notes, LeftOvers, Ingredients, Method}

// ParseField maps a column name (case-insensitive) onto a Field.
func ParseField(name string) (Field, error) {
	for _, f := range all {
		if strings.EqualFold(string(f), name) {
			return f, nil
		}
	}
	return "", fieldError(name)
}

func fieldError(name string) error {
	return fmt.Errorf("%w: %q", ErrInvalidField, name)
}
