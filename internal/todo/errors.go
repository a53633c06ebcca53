package todo

import (
	"errors"
	"fmt"
	"net/http"
)

// StatusError reports a response whose status code is not a success code.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d %s", e.Op, e.StatusCode, http.StatusText(e.StatusCode))
}

// IsSuccess reports whether the todo service considers the status a success.
// Only 200 and 201 count.
func IsSuccess(statusCode int) bool {
	return statusCode == http.StatusOK || statusCode == http.StatusCreated
}

// StatusCode extracts the HTTP status code from err, or 0 if err carries none.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}
