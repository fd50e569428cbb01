package nocodb

import (
	"errors"
	"fmt"
	"net/http"
)

// StatusError reports a non-2xx answer.  The body is kept for diagnostics
// only; callers branch on Code.
type StatusError struct {
	Op   string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("nocodb %s: status %d", e.Op, e.Code)
	}
	return fmt.Sprintf("nocodb %s: status %d: %s", e.Op, e.Code, e.Body)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// StatusCode returns the upstream status carried by err, or 0 when err did
// not come from a completed HTTP exchange.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}
