package shared

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authorization errors
	ErrAuthorization = fmt.Errorf("authorization failed")
	ErrTokenExpired  = fmt.Errorf("access token expired")
	ErrTimeout       = fmt.Errorf("operation timed out")

	// API errors
	ErrRequest            = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrNotFound           = fmt.Errorf("not found")

	// Input validation errors
	ErrValidation      = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

// ResponseError reports a non-success HTTP response from a remote endpoint.
//
// Kind is one of [ErrAuthorization] or [ErrRequest]; Body holds the raw payload for diagnostics.
type ResponseError struct {
	Kind       error
	StatusCode int
	Body       []byte
}

// NewResponseError builds a [ResponseError] for the given kind and response.
func NewResponseError(kind error, status int, body []byte) *ResponseError {
	return &ResponseError{Kind: kind, StatusCode: status, Body: body}
}

func (e *ResponseError) Error() string {
	if len(e.Body) == 0 {
		return fmt.Sprintf("%v: status %d", e.Kind, e.StatusCode)
	}
	return fmt.Sprintf("%v: status %d, body: %s", e.Kind, e.StatusCode, string(e.Body))
}

func (e *ResponseError) Unwrap() error {
	return e.Kind
}

// Is reports a 401 from an API request as [ErrTokenExpired] in addition to its kind.
func (e *ResponseError) Is(target error) bool {
	return target == ErrTokenExpired && e.Kind == ErrRequest && e.StatusCode == http.StatusUnauthorized
}

// ResponseBody extracts the raw body from a wrapped [ResponseError], or nil.
func ResponseBody(err error) []byte {
	var re *ResponseError
	if errors.As(err, &re) {
		return re.Body
	}
	return nil
}
