package listing

import "errors"

// ErrNotFound is returned when no upstream knows the listing.
var ErrNotFound = errors.New("listing not found")
