package store

import "errors"

// Sentinel errors returned by repository methods to signal well-known failure
// conditions. Callers should use [errors.Is] to match against these values.
var (
	// ErrUsernameAlreadyExists is returned when an attempt to register an
	// account (or rename one) fails because the username is already taken.
	ErrUsernameAlreadyExists = errors.New("username already exists")

	// ErrNoAccountWasFound is returned when a query expected to match an
	// account record produces an empty result set.
	ErrNoAccountWasFound = errors.New("no account was found")

	// ErrAccountNotUpdated is returned when an UPDATE targeting an existing
	// account affects zero rows.
	ErrAccountNotUpdated = errors.New("account was not updated")
)

// Low-level database operation errors. These are returned (or wrapped) by
// repository methods when a SQL-level operation fails before any domain logic
// can be applied.
var (
	// ErrBuildingSQLQuery is returned when constructing a parameterised SQL
	// query fails.
	ErrBuildingSQLQuery = errors.New("error building sql query")

	// ErrExecutingQuery is returned when executing a query against the
	// database fails.
	ErrExecutingQuery = errors.New("error executing sql query")

	// ErrScanningRow is returned when scanning column values from a result
	// row into a destination struct fails.
	ErrScanningRow = errors.New("failed to scan account row")
)

// Archive storage errors. All of them abort the in-flight request as a
// storage failure; none of them leaves a partially written archive visible.
var (
	// ErrInvalidAccountID is returned when an account identifier cannot be
	// used as an archive file name (empty or containing path separators).
	ErrInvalidAccountID = errors.New("invalid account id")

	// ErrArchiveRead is returned when the persisted archive exists but
	// cannot be read or decoded.
	ErrArchiveRead = errors.New("failed to read archive")

	// ErrArchiveWrite is returned when persisting an archive fails before
	// the atomic replace completes.
	ErrArchiveWrite = errors.New("failed to write archive")

	// ErrArchiveDelete is returned when removing an archive fails for any
	// reason other than the archive not existing.
	ErrArchiveDelete = errors.New("failed to delete archive")
)
