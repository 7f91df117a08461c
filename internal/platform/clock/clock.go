package clock

import "time"

// Clock provides current time.
type Clock interface {
	// Now returns current UTC time.
	Now() time.Time
}

// System is Clock backed by system time.
type System struct{}

// Now returns current UTC time.
func (System) Now() time.Time {
	return time.Now().UTC()
}
