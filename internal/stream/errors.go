package stream

import (
	"errors"
	"fmt"
)

// ErrNoCredential is reported when no API key is configured.
var ErrNoCredential = errors.New("credential not set")

// ErrEmptyPrompt is reported for requests without a prompt.
var ErrEmptyPrompt = errors.New("empty prompt")

// StatusError is reported when the completion API answers with a non-2xx
// status.
type StatusError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("completion API returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("completion API returned status %d: %s", e.StatusCode, e.Body)
}

// APIError is an error object delivered inside the event stream.
type APIError struct {
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return "completion API error: " + e.Message
}
