package service

import "errors"

var (
	// ErrInvalidDataProvided is returned when a request is missing required
	// fields (empty username, credential, or account identifier).
	ErrInvalidDataProvided = errors.New("invalid data provided")

	// ErrWrongCredential is returned when the presented credential does not
	// match the stored hash. Callers must not distinguish it further in
	// anything sent back to the client.
	ErrWrongCredential = errors.New("wrong credential")

	// ErrPathNotFound is returned when a download request references a path
	// absent from the archive after the merge. The merge itself has already
	// been persisted by the time this error is raised.
	ErrPathNotFound = errors.New("requested path not found in archive")
)
