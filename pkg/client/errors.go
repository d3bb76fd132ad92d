package client

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors returned by the client. Callers match them with errors.Is.
var (
	// ErrUnreachable means the request never produced an HTTP response:
	// DNS failure, refused connection, TLS failure or timeout.
	ErrUnreachable = errors.New("cannot connect to the API server")
	// ErrAuthFailed means the server rejected the supplied credentials.
	ErrAuthFailed = errors.New("authentication failed")
	// ErrUnauthorized means an authenticated call was answered with 401.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrServerError matches every 5xx response.
	ErrServerError = errors.New("server error")
)

// APIError is a non-2xx response, or a 2xx response whose envelope reports
// a failure.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error (status %d %s)", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("api error (status %d): %s", e.StatusCode, e.Message)
}

// Is lets errors.Is classify an APIError by status code.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrServerError:
		return e.StatusCode >= 500
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	}
	return false
}
