package transport

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is returned for any non-2xx response.
type APIError struct {
	StatusCode int
	StatusText string
	// Body is the decoded JSON body, or an empty map if it was not a JSON object.
	Body map[string]any
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API Error: %d %s", e.StatusCode, e.StatusText)
}

// Detail returns the backend's user-facing message, if it sent one.
func (e *APIError) Detail() (string, bool) {
	d, ok := e.Body["detail"].(string)
	if !ok || d == "" {
		return "", false
	}
	return d, true
}

// NetworkError means the request never produced a usable response.
type NetworkError struct {
	Method string
	Path   string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Message resolves the text to show a user for err. A backend detail wins,
// then the API error itself, then fallback.
func Message(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if d, ok := apiErr.Detail(); ok {
			return d
		}
		return apiErr.Error()
	}
	return fallback
}

func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
