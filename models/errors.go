package models

import "errors"

var (
	// ErrNotFound is returned when a single record lookup matches nothing.
	ErrNotFound = errors.New("record not found")
	// ErrValidation wraps every rejected input; the wrapping message says why.
	ErrValidation = errors.New("validation failed")
)
