package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/moonsync/moonsync-server/internal/config"
	"github.com/moonsync/moonsync-server/internal/logger"
	"github.com/moonsync/moonsync-server/migrations"
)

// DB wraps *sql.DB with the backend-specific pieces the account repository
// needs: an error classifier and the placeholder format for built queries.
type DB struct {
	*sql.DB

	classifier  ErrorClassifier
	placeholder sq.PlaceholderFormat
	dialect     string
	logger      *logger.Logger
}

// NewConnectDB opens the account database selected by the DSN: a DSN with a
// "postgres://" (or "postgresql://") scheme connects through pgx, anything
// else is treated as a SQLite file path. The connection is pinged and the
// schema migrated before the DB is returned.
func NewConnectDB(ctx context.Context, cfg config.DB, log *logger.Logger) (*DB, error) {
	var db *DB
	var err error

	if strings.HasPrefix(cfg.DSN, "postgres://") || strings.HasPrefix(cfg.DSN, "postgresql://") {
		db, err = NewConnectPostgres(ctx, cfg, log)
	} else {
		db, err = NewConnectSQLite(ctx, cfg, log)
	}
	if err != nil {
		return nil, err
	}

	if err := db.Migrate(); err != nil {
		return nil, fmt.Errorf("error migrating account schema: %w", err)
	}

	return db, nil
}

// Migrate brings the account schema up to date using the embedded
// goose migrations.
func (db *DB) Migrate() error {
	return migrations.Migrate(db.DB, db.dialect)
}

// builder returns a squirrel statement builder configured with the
// placeholder format of the connected backend.
func (db *DB) builder() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(db.placeholder)
}
