package usecase

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrDependencyUnavailable = errors.New("dependency unavailable")

	// ErrNoSnapshot means a derived query had nothing to answer against and
	// a rebuild could not produce a snapshot either.
	ErrNoSnapshot = errors.New("no league snapshot available")
)
