package store

import (
	"context"

	"github.com/moonsync/moonsync-server/internal/archive"
	"github.com/moonsync/moonsync-server/internal/config"
	"github.com/moonsync/moonsync-server/internal/logger"
)

// Storages bundles every persistence backend the services depend on.
type Storages struct {
	AccountRepository AccountRepository
	ArchiveStore      ArchiveStore
}

// NewStorages connects the account database, migrates its schema, and opens
// the archive file store.
func NewStorages(ctx context.Context, cfg config.Storage, codec *archive.Codec, logger *logger.Logger) (*Storages, error) {
	db, err := NewConnectDB(ctx, cfg.DB, logger)
	if err != nil {
		return nil, err
	}

	archiveStore, err := NewArchiveFileStore(cfg.Archives.Dir, codec, logger)
	if err != nil {
		return nil, err
	}

	return &Storages{
		AccountRepository: NewAccountRepository(db, logger),
		ArchiveStore:      archiveStore,
	}, nil
}
