package github

import (
	"errors"
	"fmt"
	"net/http"
)

// HttpError is returned by CallRestAPI when Github answers with a non 2xx status
type HttpError struct {
	StatusCode int
	Status     string
	Body       []byte
}

func (e *HttpError) Error() string {
	return fmt.Sprintf("unexpected status: %s", e.Status)
}

// IsNotFound returns true if err is (or wraps) a 404 answer
func IsNotFound(err error) bool {
	var herr *HttpError
	if errors.As(err, &herr) {
		return herr.StatusCode == http.StatusNotFound
	}
	return false
}

// AuthenticationError means that the credentials are missing, invalid or refused
type AuthenticationError struct {
	Reason string
	Err    error
}

func (e *AuthenticationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("authentication failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("authentication failed: %s", e.Reason)
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}
