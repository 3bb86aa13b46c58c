package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/moonsync/moonsync-server/internal/logger"
	"github.com/moonsync/moonsync-server/models"
)

// accountColumns is the canonical column list scanned into models.Account.
var accountColumns = []string{"account_id", "username", "credential_hash", "metadata", "created_at"}

// accountRepository is the SQL-backed implementation of [AccountRepository].
// Queries are built with squirrel so the same code runs against PostgreSQL
// ($n placeholders) and SQLite (? placeholders).
type accountRepository struct {
	db     *DB
	logger *logger.Logger
}

// NewAccountRepository constructs an [AccountRepository] backed by the
// provided database connection and logger.
func NewAccountRepository(db *DB, logger *logger.Logger) AccountRepository {
	logger.Debug().Msg("creating account repository")
	return &accountRepository{
		db:     db,
		logger: logger,
	}
}

// CreateAccount persists a new account record and returns the stored
// representation.
//
// Error handling:
//   - unique-constraint violation → [ErrUsernameAlreadyExists].
//   - any other driver-level error → wrapped [ErrExecutingQuery].
//   - scan failure → wrapped [ErrScanningRow].
func (r *accountRepository) CreateAccount(ctx context.Context, account models.Account) (models.Account, error) {
	log := logger.FromContext(ctx)

	query, args, err := r.db.builder().
		Insert(account.TableName()).
		Columns("account_id", "username", "credential_hash", "metadata").
		Values(account.AccountID, account.Username, account.CredentialHash, account.Metadata).
		Suffix("RETURNING " + strings.Join(accountColumns, ", ")).
		ToSql()
	if err != nil {
		return models.Account{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var created models.Account
	row := r.db.QueryRowContext(ctx, query, args...)
	if err := scanAccount(row, &created); err != nil {
		if r.db.classifier.IsUniqueViolation(err) {
			return models.Account{}, ErrUsernameAlreadyExists
		}
		log.Err(err).Str("func", "*accountRepository.CreateAccount").Msg("error creating account")
		return models.Account{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return created, nil
}

// FindAccountByID retrieves the account whose primary key matches accountID.
func (r *accountRepository) FindAccountByID(ctx context.Context, accountID string) (models.Account, error) {
	return r.findAccountBy(ctx, "account_id", accountID)
}

// FindAccountByUsername retrieves the account whose display name matches
// username.
func (r *accountRepository) FindAccountByUsername(ctx context.Context, username string) (models.Account, error) {
	return r.findAccountBy(ctx, "username", username)
}

func (r *accountRepository) findAccountBy(ctx context.Context, column, value string) (models.Account, error) {
	log := logger.FromContext(ctx)

	query, args, err := r.db.builder().
		Select(accountColumns...).
		From(models.Account{}.TableName()).
		Where(sq.Eq{column: value}).
		ToSql()
	if err != nil {
		return models.Account{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var found models.Account
	row := r.db.QueryRowContext(ctx, query, args...)
	if err := scanAccount(row, &found); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Account{}, ErrNoAccountWasFound
		}
		log.Err(err).Str("func", "*accountRepository.findAccountBy").Str("column", column).Msg("error finding account")
		return models.Account{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	return found, nil
}

// UpdateUsername changes the account's display name.
// A duplicate username is reported as [ErrUsernameAlreadyExists]; an update
// that matches no rows is reported as [ErrNoAccountWasFound].
func (r *accountRepository) UpdateUsername(ctx context.Context, accountID, username string) error {
	return r.updateAccountColumn(ctx, accountID, "username", username)
}

// UpdateCredentialHash replaces the stored credential hash.
func (r *accountRepository) UpdateCredentialHash(ctx context.Context, accountID, credentialHash string) error {
	return r.updateAccountColumn(ctx, accountID, "credential_hash", credentialHash)
}

// UpdateMetadata fully replaces the account's metadata blob. A nil metadata
// stores SQL NULL.
func (r *accountRepository) UpdateMetadata(ctx context.Context, accountID string, metadata *string) error {
	return r.updateAccountColumn(ctx, accountID, "metadata", metadata)
}

func (r *accountRepository) updateAccountColumn(ctx context.Context, accountID, column string, value any) error {
	log := logger.FromContext(ctx)

	query, args, err := r.db.builder().
		Update(models.Account{}.TableName()).
		Set(column, value).
		Where(sq.Eq{"account_id": accountID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if r.db.classifier.IsUniqueViolation(err) {
			return ErrUsernameAlreadyExists
		}
		log.Err(err).Str("func", "*accountRepository.updateAccountColumn").Str("column", column).Msg("error updating account")
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	if affected == 0 {
		return ErrNoAccountWasFound
	}

	return nil
}

func scanAccount(row *sql.Row, account *models.Account) error {
	return row.Scan(
		&account.AccountID,
		&account.Username,
		&account.CredentialHash,
		&account.Metadata,
		&account.CreatedAt,
	)
}
