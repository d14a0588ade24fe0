package model

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNoData is returned when a response promised a payload but had none.
	ErrNoData = errors.New("response contains no data")
	// ErrUnauthorized matches any 401 APIError via errors.Is.
	ErrUnauthorized = errors.New("unauthorized")
)

// APIError is a non-2xx response from the backend.
type APIError struct {
	StatusCode int
	// Detail is the server supplied explanation, if any.
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}

// Is makes errors.Is(err, ErrUnauthorized) true for 401 responses.
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}
