package store

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moonsync/moonsync-server/internal/logger"
	"github.com/moonsync/moonsync-server/models"
)

const selectAccountSQL = `SELECT account_id, username, credential_hash, metadata, created_at FROM accounts`

func newTestDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func newDBFromSQL(db *sql.DB) *DB {
	return &DB{
		DB:          db,
		classifier:  NewPostgresErrorClassifier(),
		placeholder: sq.Question,
		dialect:     "sqlite3",
		logger:      logger.Nop(),
	}
}

func newTestRepo(t *testing.T, db *sql.DB) AccountRepository {
	t.Helper()
	return NewAccountRepository(newDBFromSQL(db), logger.Nop())
}

func testContext() context.Context {
	l := zerolog.Nop()
	return l.WithContext(context.Background())
}

func accountRows(accounts ...models.Account) *sqlmock.Rows {
	rows := sqlmock.NewRows(accountColumns)
	for _, a := range accounts {
		rows.AddRow(a.AccountID, a.Username, a.CredentialHash, a.Metadata, a.CreatedAt)
	}
	return rows
}

func uniqueViolation() error {
	return &pgconn.PgError{Code: pgerrcode.UniqueViolation}
}

// ─────────────────────────────────────────────
// CreateAccount
// ─────────────────────────────────────────────

func TestCreateAccount(t *testing.T) {
	now := time.Now().Truncate(time.Millisecond)
	account := models.Account{
		AccountID:      "acc-1",
		Username:       "alice",
		CredentialHash: "$2a$11$hash",
	}
	stored := account
	stored.CreatedAt = now

	insertSQL := regexp.QuoteMeta(
		`INSERT INTO accounts (account_id,username,credential_hash,metadata) ` +
			`VALUES (?,?,?,?) RETURNING account_id, username, credential_hash, metadata, created_at`,
	)

	t.Run("success", func(t *testing.T) {
		db, mock := newTestDB(t)
		mock.ExpectQuery(insertSQL).
			WithArgs(account.AccountID, account.Username, account.CredentialHash, nil).
			WillReturnRows(accountRows(stored))

		repo := newTestRepo(t, db)
		created, err := repo.CreateAccount(testContext(), account)

		require.NoError(t, err)
		assert.Equal(t, stored, created)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate username", func(t *testing.T) {
		db, mock := newTestDB(t)
		mock.ExpectQuery(insertSQL).
			WithArgs(account.AccountID, account.Username, account.CredentialHash, nil).
			WillReturnError(uniqueViolation())

		repo := newTestRepo(t, db)
		_, err := repo.CreateAccount(testContext(), account)

		require.ErrorIs(t, err, ErrUsernameAlreadyExists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("driver error", func(t *testing.T) {
		db, mock := newTestDB(t)
		mock.ExpectQuery(insertSQL).
			WithArgs(account.AccountID, account.Username, account.CredentialHash, nil).
			WillReturnError(errors.New("connection reset"))

		repo := newTestRepo(t, db)
		_, err := repo.CreateAccount(testContext(), account)

		require.ErrorIs(t, err, ErrExecutingQuery)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

// ─────────────────────────────────────────────
// FindAccountByID / FindAccountByUsername
// ─────────────────────────────────────────────

func TestFindAccountByID(t *testing.T) {
	querySQL := regexp.QuoteMeta(selectAccountSQL + ` WHERE account_id = ?`)
	stored := models.Account{
		AccountID:      "acc-1",
		Username:       "alice",
		CredentialHash: "$2a$11$hash",
		CreatedAt:      time.Now().Truncate(time.Millisecond),
	}

	t.Run("found", func(t *testing.T) {
		db, mock := newTestDB(t)
		mock.ExpectQuery(querySQL).
			WithArgs("acc-1").
			WillReturnRows(accountRows(stored))

		repo := newTestRepo(t, db)
		found, err := repo.FindAccountByID(testContext(), "acc-1")

		require.NoError(t, err)
		assert.Equal(t, stored, found)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		db, mock := newTestDB(t)
		mock.ExpectQuery(querySQL).
			WithArgs("missing").
			WillReturnRows(accountRows())

		repo := newTestRepo(t, db)
		_, err := repo.FindAccountByID(testContext(), "missing")

		require.ErrorIs(t, err, ErrNoAccountWasFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("nullable metadata", func(t *testing.T) {
		metadata := `{"theme":"dark"}`
		withMeta := stored
		withMeta.Metadata = &metadata

		db, mock := newTestDB(t)
		mock.ExpectQuery(querySQL).
			WithArgs("acc-1").
			WillReturnRows(accountRows(withMeta))

		repo := newTestRepo(t, db)
		found, err := repo.FindAccountByID(testContext(), "acc-1")

		require.NoError(t, err)
		require.NotNil(t, found.Metadata)
		assert.Equal(t, metadata, *found.Metadata)
	})
}

func TestFindAccountByUsername(t *testing.T) {
	querySQL := regexp.QuoteMeta(selectAccountSQL + ` WHERE username = ?`)
	stored := models.Account{
		AccountID:      "acc-1",
		Username:       "alice",
		CredentialHash: "$2a$11$hash",
		CreatedAt:      time.Now().Truncate(time.Millisecond),
	}

	db, mock := newTestDB(t)
	mock.ExpectQuery(querySQL).
		WithArgs("alice").
		WillReturnRows(accountRows(stored))

	repo := newTestRepo(t, db)
	found, err := repo.FindAccountByUsername(testContext(), "alice")

	require.NoError(t, err)
	assert.Equal(t, stored, found)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ─────────────────────────────────────────────
// Updates
// ─────────────────────────────────────────────

func TestUpdateUsername(t *testing.T) {
	updateSQL := regexp.QuoteMeta(`UPDATE accounts SET username = ? WHERE account_id = ?`)

	t.Run("success", func(t *testing.T) {
		db, mock := newTestDB(t)
		mock.ExpectExec(updateSQL).
			WithArgs("bob", "acc-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		repo := newTestRepo(t, db)
		err := repo.UpdateUsername(testContext(), "acc-1", "bob")

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate username", func(t *testing.T) {
		db, mock := newTestDB(t)
		mock.ExpectExec(updateSQL).
			WithArgs("taken", "acc-1").
			WillReturnError(uniqueViolation())

		repo := newTestRepo(t, db)
		err := repo.UpdateUsername(testContext(), "acc-1", "taken")

		require.ErrorIs(t, err, ErrUsernameAlreadyExists)
	})

	t.Run("unknown account", func(t *testing.T) {
		db, mock := newTestDB(t)
		mock.ExpectExec(updateSQL).
			WithArgs("bob", "missing").
			WillReturnResult(sqlmock.NewResult(0, 0))

		repo := newTestRepo(t, db)
		err := repo.UpdateUsername(testContext(), "missing", "bob")

		require.ErrorIs(t, err, ErrNoAccountWasFound)
	})
}

func TestUpdateCredentialHash(t *testing.T) {
	updateSQL := regexp.QuoteMeta(`UPDATE accounts SET credential_hash = ? WHERE account_id = ?`)

	db, mock := newTestDB(t)
	mock.ExpectExec(updateSQL).
		WithArgs("$2a$11$newhash", "acc-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := newTestRepo(t, db)
	err := repo.UpdateCredentialHash(testContext(), "acc-1", "$2a$11$newhash")

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateMetadata(t *testing.T) {
	updateSQL := regexp.QuoteMeta(`UPDATE accounts SET metadata = ? WHERE account_id = ?`)

	t.Run("set", func(t *testing.T) {
		metadata := `{"v":2}`

		db, mock := newTestDB(t)
		mock.ExpectExec(updateSQL).
			WithArgs(&metadata, "acc-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		repo := newTestRepo(t, db)
		err := repo.UpdateMetadata(testContext(), "acc-1", &metadata)

		require.NoError(t, err)
	})

	t.Run("clear", func(t *testing.T) {
		db, mock := newTestDB(t)
		mock.ExpectExec(updateSQL).
			WithArgs(nil, "acc-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		repo := newTestRepo(t, db)
		err := repo.UpdateMetadata(testContext(), "acc-1", nil)

		require.NoError(t, err)
	})
}
