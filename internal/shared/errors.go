package shared

import "fmt"

var (
	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")

	// Lookup errors
	ErrNotFound = fmt.Errorf("not found")

	// Remote fetch errors
	ErrFetchFailed   = fmt.Errorf("fetch failed")
	ErrPayloadTooBig = fmt.Errorf("payload too large")
)
