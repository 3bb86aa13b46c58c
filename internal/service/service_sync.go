package service

import (
	"context"
	"fmt"

	"github.com/moonsync/moonsync-server/internal/archive"
	"github.com/moonsync/moonsync-server/internal/locker"
	"github.com/moonsync/moonsync-server/internal/logger"
	"github.com/moonsync/moonsync-server/internal/store"
	"github.com/moonsync/moonsync-server/models"
)

// syncService is the concrete implementation of SyncService: the merge
// engine plus the sequencing around it (credential gate, account lock,
// load, persist, response assembly).
type syncService struct {
	auth     AuthService
	accounts store.AccountRepository
	archives store.ArchiveStore
	locker   *locker.AccountLocker
	codec    *archive.Codec
	logger   *logger.Logger
}

// NewSyncService constructs a SyncService.
// The locker must be the process-wide instance shared by everything that
// mutates archives, otherwise per-account exclusion does not hold.
func NewSyncService(
	auth AuthService,
	accounts store.AccountRepository,
	archives store.ArchiveStore,
	accountLocker *locker.AccountLocker,
	codec *archive.Codec,
	logger *logger.Logger,
) SyncService {
	return &syncService{
		auth:     auth,
		accounts: accounts,
		archives: archives,
		locker:   accountLocker,
		codec:    codec,
		logger:   logger,
	}
}

// Sync executes one synchronization request end to end:
//
//  1. verify the credential (no side effects on failure, no lock taken);
//  2. decode the delta container (malformed input rejected before any
//     mutation);
//  3. acquire the account lock; a request cancelled while waiting never
//     proceeds;
//  4. load the archive, apply deletes then adds, replace the metadata blob
//     if the delta carries one;
//  5. persist the merged archive (or remove the record entirely for a pure
//     full-delete) atomically;
//  6. read every requested path from the post-merge archive, in request
//     order, into the response container.
//
// A download request for a path absent after the merge yields
// ErrPathNotFound; the merge is persisted regardless, since that is a client
// bookkeeping error, not a reason to roll back a legitimate merge.
func (s *syncService) Sync(ctx context.Context, req models.SyncRequest) (models.SyncResponse, error) {
	log := logger.FromContext(ctx)

	account, err := s.auth.Verify(ctx, req.AccountID, req.Credential)
	if err != nil {
		return models.SyncResponse{}, err
	}

	delta, err := s.codec.DecodeDelta(req.Data)
	if err != nil {
		log.Err(err).Str("account_id", req.AccountID).Msg("error decoding delta container")
		return models.SyncResponse{}, fmt.Errorf("error decoding delta container: %w", err)
	}

	release, err := s.locker.Acquire(ctx, req.AccountID)
	if err != nil {
		return models.SyncResponse{}, fmt.Errorf("error acquiring account lock: %w", err)
	}
	defer release()

	// Once the lock is held the request runs to completion: a client that
	// disconnects mid-merge must not lose work the server already accepted.
	ctx = context.WithoutCancel(ctx)

	loaded, err := s.archives.Load(ctx, req.AccountID)
	if err != nil {
		return models.SyncResponse{}, err
	}

	merged := applyDelta(loaded, delta)

	if delta.Metadata != nil {
		if err := s.accounts.UpdateMetadata(ctx, req.AccountID, delta.Metadata); err != nil {
			return models.SyncResponse{}, fmt.Errorf("metadata update failed: %w", err)
		}
	}

	if err := s.persistMerged(ctx, req.AccountID, delta, merged); err != nil {
		return models.SyncResponse{}, err
	}

	data, err := s.buildResponse(merged, delta.Download)
	if err != nil {
		return models.SyncResponse{}, err
	}

	response := models.SyncResponse{Data: data}
	if req.Username != account.Username {
		response.NewUsername = account.Username
	}

	log.Debug().
		Str("account_id", req.AccountID).
		Int("adds", len(delta.Adds)).
		Int("deletes", len(delta.Deletes)).
		Bool("delete_all", delta.DeleteAll).
		Int("downloads", len(delta.Download)).
		Msg("sync applied")

	return response, nil
}

// persistMerged writes the merged archive back. A delta that is nothing but
// the full-delete sentinel tears the stored record down entirely; any other
// delta (including a sentinel combined with adds or downloads) persists the
// merged state, so the record survives as an empty or rebuilt archive.
func (s *syncService) persistMerged(ctx context.Context, accountID string, delta models.Delta, merged models.Archive) error {
	if delta.DeleteAll && len(delta.Adds) == 0 && len(delta.Download) == 0 {
		return s.archives.DeleteAll(ctx, accountID)
	}

	return s.archives.Persist(ctx, accountID, merged)
}

// buildResponse assembles the response container from the post-merge
// archive, preserving the requested order.
func (s *syncService) buildResponse(merged models.Archive, download []string) ([]byte, error) {
	entries := make([]archive.Entry, 0, len(download))
	for _, path := range download {
		content, ok := merged[path]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrPathNotFound, path)
		}
		entries = append(entries, archive.Entry{Path: path, Content: content})
	}

	return s.codec.Encode(entries)
}

// applyDelta merges one delta into an archive: the full-delete sentinel
// empties the archive, explicit deletes are applied next (a missing path is
// a no-op), adds are applied last so a path deleted and re-added in the same
// delta ends up present with the new content. The input archive is mutated
// and returned.
func applyDelta(a models.Archive, delta models.Delta) models.Archive {
	if delta.DeleteAll {
		a = models.Archive{}
	} else {
		for _, path := range delta.Deletes {
			delete(a, path)
		}
	}

	for path, content := range delta.Adds {
		a[path] = content
	}

	return a
}
