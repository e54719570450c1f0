// sqadmin/backend/errors.go
package backend

import (
	"errors"
	"fmt"
)

// ErrNoToken signals a call that requires authentication was attempted with
// no token at hand.
var ErrNoToken = errors.New("no bearer token")

// TransportError is a hard failure below the application protocol: the
// request never completed, or the upstream answered with a non-2xx HTTP
// status before an envelope could be trusted.
type TransportError struct {
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("upstream transport failure: %v", e.Err)
	}
	return fmt.Sprintf("upstream returned HTTP %d", e.Status)
}

func (e *TransportError) Unwrap() error { return e.Err }

// APIError is an application-level failure: the envelope arrived but carried
// a code other than 200. Message is shown to the operator verbatim.
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("upstream error %d: %s", e.Code, e.Message)
}

// AsAPIError unwraps err into an APIError if it is one.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// UserMessage renders an error as a toast line: the envelope message when the
// upstream supplied one, otherwise a generic failure string.
func UserMessage(err error, fallback string) string {
	if apiErr, ok := AsAPIError(err); ok && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
