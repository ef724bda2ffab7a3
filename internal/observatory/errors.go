package observatory

import (
	"errors"
	"fmt"
)

// ErrNoToken is returned before any request is sent when a call that
// requires authentication is attempted without a stored token.
var ErrNoToken = errors.New("observatory: no auth token")

// ErrUnauthorized maps HTTP 401 responses. The session is never cleared
// on its account; the server alone decides token validity.
var ErrUnauthorized = errors.New("observatory: unauthorized")

// ErrNoData marks an empty-but-successful result: HTTP 204, or a 200
// response whose list field is absent. Distinct from transport failures.
var ErrNoData = errors.New("observatory: no data")

// APIError is a non-2xx response, or a 2xx response whose payload status
// field reports failure. Message carries the server-supplied text when the
// payload had one.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("observatory: api error (status %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("observatory: api error (status %d)", e.Status)
}

// TransportError is a request that was sent but got no response back.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("observatory: no response: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
