package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/moonsync/moonsync-server/internal/config"
	"github.com/moonsync/moonsync-server/internal/logger"
	"github.com/moonsync/moonsync-server/internal/store"
	"github.com/moonsync/moonsync-server/models"
)

// authService is the concrete implementation of AuthService.
// It verifies presented credentials against stored bcrypt hashes and owns
// account lifecycle operations (registration, sign-in, rename, credential
// rotation).
//
// bcrypt comparison is deliberately slow and constant-time; the cost factor
// comes from configuration. Credential values never appear in logs or
// wrapped errors.
type authService struct {
	accounts   store.AccountRepository
	bcryptCost int
	logger     *logger.Logger
}

// NewAuthService constructs an AuthService wired to the given account
// repository and populated with security parameters from cfg.
//
// The returned service is safe for concurrent use; all state is read-only
// after construction.
func NewAuthService(accounts store.AccountRepository, cfg config.App, logger *logger.Logger) AuthService {
	return &authService{
		accounts:   accounts,
		bcryptCost: cfg.BcryptCost,
		logger:     logger,
	}
}

// Verify looks up the account by id and compares the presented credential
// against the stored hash.
//
// Returns the account record or:
//   - ErrInvalidDataProvided if accountID or credential is empty.
//   - store.ErrNoAccountWasFound if the account does not exist.
//   - ErrWrongCredential on a hash mismatch.
func (a *authService) Verify(ctx context.Context, accountID, credential string) (models.Account, error) {
	log := logger.FromContext(ctx)

	if accountID == "" || credential == "" {
		return models.Account{}, ErrInvalidDataProvided
	}

	account, err := a.accounts.FindAccountByID(ctx, accountID)
	if err != nil {
		log.Err(err).Str("account_id", accountID).Msg("account lookup failed")
		return models.Account{}, fmt.Errorf("account lookup failed: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(account.CredentialHash), []byte(credential)) != nil {
		log.Error().Str("account_id", accountID).Msg("credential mismatch")
		return models.Account{}, ErrWrongCredential
	}

	return account, nil
}

// Register creates a new account with a server-assigned identifier and a
// bcrypt hash of the presented credential.
//
// Returns the persisted account or:
//   - ErrInvalidDataProvided if username or credential is empty.
//   - A wrapped storage error if persistence fails (e.g. username taken,
//     see store.ErrUsernameAlreadyExists).
func (a *authService) Register(ctx context.Context, username, credential string) (models.Account, error) {
	log := logger.FromContext(ctx)

	if username == "" || credential == "" {
		return models.Account{}, ErrInvalidDataProvided
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(credential), a.bcryptCost)
	if err != nil {
		return models.Account{}, fmt.Errorf("credential hashing failed: %w", err)
	}

	account := models.Account{
		AccountID:      uuid.NewString(),
		Username:       username,
		CredentialHash: string(hash),
	}

	registered, err := a.accounts.CreateAccount(ctx, account)
	if err != nil {
		log.Err(err).Str("username", username).Msg("account creation ended with error")
		return models.Account{}, fmt.Errorf("account creation ended with error: %w", err)
	}

	return registered, nil
}

// SignIn authenticates an account by username.
//
// Returns the account record or:
//   - ErrInvalidDataProvided if username or credential is empty.
//   - store.ErrNoAccountWasFound (wrapped) if the username is unknown.
//   - ErrWrongCredential on a hash mismatch.
func (a *authService) SignIn(ctx context.Context, username, credential string) (models.Account, error) {
	log := logger.FromContext(ctx)

	if username == "" || credential == "" {
		return models.Account{}, ErrInvalidDataProvided
	}

	account, err := a.accounts.FindAccountByUsername(ctx, username)
	if err != nil {
		log.Err(err).Str("username", username).Msg("account search by username failed")
		return models.Account{}, fmt.Errorf("account search by username failed: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(account.CredentialHash), []byte(credential)) != nil {
		log.Error().Str("username", username).Msg("credential mismatch")
		return models.Account{}, ErrWrongCredential
	}

	return account, nil
}

// ChangeUsername renames the account after verifying the credential.
// A duplicate new username surfaces as store.ErrUsernameAlreadyExists.
func (a *authService) ChangeUsername(ctx context.Context, accountID, credential, newUsername string) error {
	if newUsername == "" {
		return ErrInvalidDataProvided
	}

	if _, err := a.Verify(ctx, accountID, credential); err != nil {
		return err
	}

	if err := a.accounts.UpdateUsername(ctx, accountID, newUsername); err != nil {
		return fmt.Errorf("username update failed: %w", err)
	}

	return nil
}

// ChangeCredential rotates the account secret after verifying the old one.
func (a *authService) ChangeCredential(ctx context.Context, accountID, oldCredential, newCredential string) error {
	if newCredential == "" {
		return ErrInvalidDataProvided
	}

	if _, err := a.Verify(ctx, accountID, oldCredential); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newCredential), a.bcryptCost)
	if err != nil {
		return fmt.Errorf("credential hashing failed: %w", err)
	}

	if err := a.accounts.UpdateCredentialHash(ctx, accountID, string(hash)); err != nil {
		return fmt.Errorf("credential update failed: %w", err)
	}

	return nil
}

// Metadata returns the account's metadata blob after verifying the
// credential.
func (a *authService) Metadata(ctx context.Context, accountID, credential string) (*string, error) {
	account, err := a.Verify(ctx, accountID, credential)
	if err != nil {
		return nil, err
	}

	return account.Metadata, nil
}
