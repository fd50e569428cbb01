// internal/config/validator.go
//
// Thin wrapper around go-playground/validator.
//
// Context
// -------
// loader.go calls validateStruct right after defaults are applied.  Any
// failure aborts startup, so the binary never runs with partial, malformed,
// or missing configuration.  Errors are flattened into one line naming
// every offending key in its koanf spelling (`upstream.base_url`), which
// is what an operator will grep their YAML or environment for.
//
// Notes
// -----
//   • Oxford commas, two spaces after periods.

package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

//
// validator instance (package-level singleton)
//

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New(validator.WithRequiredStructEnabled())
	val.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("koanf"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return val
}

//
// public API
//

// validateStruct returns nil or one error listing every invalid key.
func validateStruct(c *Config) error {
	err := v.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s (%s)", keyOf(fe.Namespace()), fe.Tag()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, ", "))
}

// keyOf drops the root struct name: "Config.upstream.token" → "upstream.token".
func keyOf(ns string) string {
	_, rest, found := strings.Cut(ns, ".")
	if !found {
		return ns
	}
	return rest
}
