package service

import (
	"context"

	"github.com/moonsync/moonsync-server/models"
)

// AuthService is the credential gate plus the account lifecycle operations
// built on top of it. Every method that takes a credential verifies it
// against the stored bcrypt hash before doing anything else; none of them
// ever logs or returns credential material.
type AuthService interface {
	// Verify checks the presented credential for the account and returns
	// the account record on success. An unknown account yields
	// store.ErrNoAccountWasFound, a mismatch yields ErrWrongCredential.
	Verify(ctx context.Context, accountID, credential string) (models.Account, error)

	// Register creates a new account with a server-assigned identifier.
	Register(ctx context.Context, username, credential string) (models.Account, error)

	// SignIn authenticates by username and returns the account record,
	// letting the client learn its account identifier.
	SignIn(ctx context.Context, username, credential string) (models.Account, error)

	// ChangeUsername renames the account after verifying the credential.
	ChangeUsername(ctx context.Context, accountID, credential, newUsername string) error

	// ChangeCredential rotates the account secret after verifying the old
	// credential.
	ChangeCredential(ctx context.Context, accountID, oldCredential, newCredential string) error

	// Metadata returns the account's metadata blob after verifying the
	// credential.
	Metadata(ctx context.Context, accountID, credential string) (*string, error)
}

// SyncService is the synchronization engine: it merges one client delta into
// the account archive and assembles the response container.
type SyncService interface {
	// Sync verifies the credential, applies the delta under the account
	// lock, persists the result, and returns the requested files.
	Sync(ctx context.Context, req models.SyncRequest) (models.SyncResponse, error)
}
