package fetcher

import (
	"errors"
	"fmt"
)

var (
	// ErrNetworkUnavailable is returned when upstream may not be called right now
	// (cooldown active, credentials missing or disabled).
	ErrNetworkUnavailable = errors.New("upstream network access not permitted")
	// ErrRateLimited is returned when upstream responded with 429 Too Many Requests.
	ErrRateLimited = errors.New("upstream rate limited")
	// ErrUnauthorized is returned when upstream rejected credentials.
	ErrUnauthorized = errors.New("upstream rejected credentials")
)

// StatusError is returned when upstream responded with unexpected status.
type StatusError struct {
	Upstream   string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s responded with status %d", e.Upstream, e.StatusCode)
}
