package api

import (
	"errors"
	"fmt"
)

// Kind classifies a failed backend call so callers can branch on outcome
// without inspecting status codes or transport errors themselves.
type Kind int

const (
	// KindHTTP is any non-2xx response not covered by a more specific kind.
	KindHTTP Kind = iota
	// KindAuth is a 401 or 403. The client's auth-failure hook has already
	// fired by the time a caller sees this.
	KindAuth
	// KindNotFound is a 404 for a directly addressed entity.
	KindNotFound
	// KindServer is any 5xx response.
	KindServer
	// KindNetwork means no response was received (includes timeouts).
	KindNetwork
)

func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindNotFound:
		return "not_found"
	case KindServer:
		return "server"
	case KindNetwork:
		return "network"
	default:
		return "http"
	}
}

// Error is the failure result of one backend call. Status and Body are zero
// for KindNetwork; for every other kind they carry the response as received.
type Error struct {
	Kind   Kind
	Status int
	Method string
	URL    string
	Body   []byte
	Err    error
}

func (e *Error) Error() string {
	if e.Kind == KindNetwork {
		return fmt.Sprintf("api: %s %s: network unavailable: %v", e.Method, e.URL, e.Err)
	}
	return fmt.Sprintf("api: %s %s: %s (status %d)", e.Method, e.URL, e.Kind, e.Status)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind == kind
	}
	return false
}
