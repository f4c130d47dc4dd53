package ports

import (
	"errors"
	"net/http"
)

// ErrUnauthorized is returned when credentials or a session token are rejected.
var ErrUnauthorized = errors.New("unauthorized")

// RequestError is a request the backend rejected. Payload is the raw
// answer of the backend and is shown to the user as is.
type RequestError struct {
	StatusCode int
	Payload    string
}

func (e *RequestError) Error() string {
	if e.Payload == "" {
		return http.StatusText(e.StatusCode)
	}
	return e.Payload
}
