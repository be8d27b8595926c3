package services

import "errors"

// ErrNotFound is returned when an id does not resolve to a record.
var ErrNotFound = errors.New("not found")
