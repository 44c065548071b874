package view

import "errors"

var (
	// ErrInvalidView is returned when a caller names a view that is neither a
	// registered kind nor a known legacy alias.
	ErrInvalidView = errors.New("invalid view")

	// ErrNotRegistered is returned by Registry.Processor for kinds with no binding.
	ErrNotRegistered = errors.New("view not registered")
)
