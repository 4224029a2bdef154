package order

import "errors"

// ErrOrderNotFound is returned when the referenced order does not exist.
// Callers must not retry with the same id.
var ErrOrderNotFound = errors.New("order not found")
