package robin

import (
	"errors"
	"fmt"
)

// ErrItemNotFound is returned when a requested record does not exist in the table.
var ErrItemNotFound = errors.New("item not found")

// ValidationError reports a missing or malformed attribute for a requested
// entity kind or access pattern. It is surfaced to the caller immediately and
// is never retried; the caller must fix the input and re-invoke.
type ValidationError struct {
	Kind   Kind   // the entity kind being derived or queried
	Field  string // the offending attribute or parameter
	Reason string // why the value was rejected
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s attributes: %s: %s", e.Kind, e.Field, e.Reason)
}

// UnknownPatternError reports a request for an access pattern that has no
// registered key-derivation rule. It indicates a caller bug rather than a
// recoverable condition.
type UnknownPatternError struct {
	Pattern string
}

func (e *UnknownPatternError) Error() string {
	return fmt.Sprintf("unknown access pattern %q", e.Pattern)
}
