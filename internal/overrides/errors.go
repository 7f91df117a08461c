package overrides

import (
	"errors"
	"strings"
)

// ErrStoreClosed is returned by writes issued after Store was closed.
var ErrStoreClosed = errors.New("override store closed")

// ValidationError is returned when patch fails field-level validation.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "invalid override: " + strings.Join(e.Messages, "; ")
}
