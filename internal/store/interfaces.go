package store

import (
	"context"

	"github.com/moonsync/moonsync-server/models"
)

// AccountRepository is the data-access contract for account records.
// Implementations are safe for concurrent use.
type AccountRepository interface {
	// CreateAccount persists a new account and returns the stored record.
	// A duplicate username yields ErrUsernameAlreadyExists.
	CreateAccount(ctx context.Context, account models.Account) (models.Account, error)

	// FindAccountByID retrieves an account by its identifier.
	// A missing account yields ErrNoAccountWasFound.
	FindAccountByID(ctx context.Context, accountID string) (models.Account, error)

	// FindAccountByUsername retrieves an account by its display name.
	// A missing account yields ErrNoAccountWasFound.
	FindAccountByUsername(ctx context.Context, username string) (models.Account, error)

	// UpdateUsername changes the account's display name.
	// A duplicate username yields ErrUsernameAlreadyExists.
	UpdateUsername(ctx context.Context, accountID, username string) error

	// UpdateCredentialHash replaces the stored credential hash.
	UpdateCredentialHash(ctx context.Context, accountID, credentialHash string) error

	// UpdateMetadata fully replaces the account's metadata blob.
	UpdateMetadata(ctx context.Context, accountID string, metadata *string) error
}

// ArchiveStore owns the canonical persisted archive of each account.
//
// Persist must be atomic from an external observer's point of view: a crash
// mid-write never leaves a corrupt or truncated archive visible to the next
// Load. Mutual exclusion between requests is the caller's responsibility
// (see the locker package); the store only guarantees crash atomicity.
type ArchiveStore interface {
	// Exists reports whether a persisted archive exists for the account.
	Exists(ctx context.Context, accountID string) (bool, error)

	// Load returns the persisted archive, or an empty archive if none has
	// been persisted yet. "Does not exist" is never an error.
	Load(ctx context.Context, accountID string) (models.Archive, error)

	// Persist durably replaces the persisted archive with the given one.
	Persist(ctx context.Context, accountID string, archive models.Archive) error

	// DeleteAll removes the persisted archive entirely. Deleting an archive
	// that does not exist is a no-op. A subsequent Load returns empty.
	DeleteAll(ctx context.Context, accountID string) error
}

// ErrorClassifier abstracts driver-specific error inspection so the account
// repository can run unchanged against PostgreSQL and SQLite backends.
type ErrorClassifier interface {
	// IsUniqueViolation reports whether err represents a unique-constraint
	// violation (duplicate username).
	IsUniqueViolation(err error) bool
}
