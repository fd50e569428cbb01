// internal/form/decode.go
//
// Posted-form decoding and presence checks.
//
// Context
//   Create forms (new recipe, new idea, login) post url-encoded or
//   multipart bodies.  Decode copies each named value into a tagged struct
//   and then runs go-playground/validator over it.  Only presence rules are
//   expected (`validate:"required"`); field content is free text and is
//   sanitized downstream where it matters.
//
//     type newIdea struct {
//         Title string `form:"title" validate:"required"`
//         Notes string `form:"notes"`
//     }
//
// Errors
//   A failed check returns *Invalid, which wraps ErrMissing and lists every
//   offending field so the template can highlight each one.
//
// Style
//   Full sentences, two space spacing, Oxford comma.
//
//------------------------------------------------------------------------------

package form

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// MaxMemory bounds the in-memory part of a multipart body.
const MaxMemory = 16 << 20

// ErrMissing is wrapped by every *Invalid.
var ErrMissing = errors.New("required form value missing")

// ErrorField describes a single failure so the template can render a
// field-level message.
type ErrorField struct {
	Name    string // form field name
	Message string // user-facing message
}

// Invalid lists the fields that failed their checks.
type Invalid struct{ Fields []ErrorField }

func (e *Invalid) Error() string {
	names := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		names = append(names, f.Name)
	}
	return fmt.Sprintf("%v: %s", ErrMissing, strings.Join(names, ", "))
}

func (e *Invalid) Unwrap() error { return ErrMissing }

// Has reports whether name is among the failed fields.
func (e *Invalid) Has(name string) bool {
	for _, f := range e.Fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("form")
	})
	return v
}

// Decode parses r's form and fills the string fields of dst (a pointer to
// struct) that carry a `form` tag.  Values are trimmed.
func Decode(r *http.Request, dst any) error {
	if err := parse(r); err != nil {
		return err
	}

	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("form: Decode needs a struct pointer, got %T", dst)
	}
	rv = rv.Elem()
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		name := sf.Tag.Get("form")
		if name == "" || name == "-" || sf.Type.Kind() != reflect.String {
			continue
		}
		rv.Field(i).SetString(strings.TrimSpace(r.FormValue(name)))
	}

	return check(dst)
}

// check runs the validator and converts failures to *Invalid.
func check(dst any) error {
	err := validate.Struct(dst)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	inv := &Invalid{}
	for _, fe := range verrs {
		inv.Fields = append(inv.Fields, ErrorField{
			Name:    fe.Field(),
			Message: message(fe),
		})
	}
	return inv
}

func message(fe validator.FieldError) string {
	label := strings.ToUpper(fe.Field()[:1]) + fe.Field()[1:]
	if fe.Tag() == "required" {
		return label + " is required."
	}
	return label + " is invalid."
}

func parse(r *http.Request) error {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(MaxMemory); err != nil {
			return fmt.Errorf("form: parse multipart: %w", err)
		}
		return nil
	}
	if err := r.ParseForm(); err != nil {
		return fmt.Errorf("form: parse: %w", err)
	}
	return nil
}
