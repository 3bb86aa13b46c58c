package service

import (
	"github.com/moonsync/moonsync-server/internal/archive"
	"github.com/moonsync/moonsync-server/internal/config"
	"github.com/moonsync/moonsync-server/internal/locker"
	"github.com/moonsync/moonsync-server/internal/logger"
	"github.com/moonsync/moonsync-server/internal/store"
)

// Services bundles the application services consumed by the transport layer.
type Services struct {
	AuthService AuthService
	SyncService SyncService
}

// NewServices wires the credential gate and the sync engine to the given
// storages. One account locker instance is shared by everything that mutates
// archives.
func NewServices(storages *store.Storages, cfg *config.StructuredConfig, codec *archive.Codec, logger *logger.Logger) *Services {
	authService := NewAuthService(storages.AccountRepository, cfg.App, logger)

	return &Services{
		AuthService: authService,
		SyncService: NewSyncService(
			authService,
			storages.AccountRepository,
			storages.ArchiveStore,
			locker.New(),
			codec,
			logger,
		),
	}
}
