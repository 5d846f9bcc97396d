package repositories

import "errors"

// ErrNotFound is returned when a requested row does not exist.
// Soft-deleted rows are reported as not found as well, so callers can
// never tell the difference between "never existed" and "deleted".
var ErrNotFound = errors.New("not found")
