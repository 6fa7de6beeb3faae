package cube

import (
	"errors"
	"fmt"
)

var (
	ErrNoSets          = errors.New("at least one set code is required")
	ErrInvalidPackSpec = errors.New("invalid pack specification")
	ErrMalformedPage   = errors.New("malformed search page")
	ErrForeignCursor   = errors.New("next_page points outside the search API")
	ErrPageLimit       = errors.New("page limit reached")
)

// StatusError is returned when the search API answers with a non-success status
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("search request failed with status %d", e.Code)
}

// ValidationError reports a form field that could not be turned into a
// FetchQuery or PackSpec
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
