package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/moonsync/moonsync-server/internal/archive"
	"github.com/moonsync/moonsync-server/internal/logger"
	"github.com/moonsync/moonsync-server/models"
)

// archiveExtension is appended to the account ID to form the archive file
// name inside the data directory.
const archiveExtension = ".zip"

// archiveFileStore is the filesystem implementation of [ArchiveStore]: one
// container file per account under a single data directory.
//
// Persist writes to a temporary file in the same directory and renames it
// over the target, so a crash mid-write never exposes a truncated archive.
// The store performs no locking of its own; callers serialize access per
// account through the locker package.
type archiveFileStore struct {
	dir    string
	codec  *archive.Codec
	logger *logger.Logger
}

// NewArchiveFileStore constructs an [ArchiveStore] rooted at dir, creating
// the directory if needed.
func NewArchiveFileStore(dir string, codec *archive.Codec, logger *logger.Logger) (ArchiveStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("error creating archive directory %q: %w", dir, err)
	}

	logger.Debug().Str("dir", dir).Msg("creating archive file store")
	return &archiveFileStore{
		dir:    dir,
		codec:  codec,
		logger: logger,
	}, nil
}

// Exists reports whether a persisted archive exists for the account.
func (s *archiveFileStore) Exists(ctx context.Context, accountID string) (bool, error) {
	path, err := s.archivePath(accountID)
	if err != nil {
		return false, err
	}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %w", ErrArchiveRead, err)
	}

	return true, nil
}

// Load reads the persisted archive for the account. A missing archive is the
// first-sync case and yields an empty archive, not an error.
func (s *archiveFileStore) Load(ctx context.Context, accountID string) (models.Archive, error) {
	log := logger.FromContext(ctx)

	path, err := s.archivePath(accountID)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return models.Archive{}, nil
		}
		log.Err(err).Str("func", "*archiveFileStore.Load").Msg("error reading archive file")
		return nil, fmt.Errorf("%w: %w", ErrArchiveRead, err)
	}

	loaded, err := s.codec.DecodeArchive(data)
	if err != nil {
		log.Err(err).Str("func", "*archiveFileStore.Load").Msg("error decoding archive file")
		return nil, fmt.Errorf("%w: %w", ErrArchiveRead, err)
	}

	return loaded, nil
}

// Persist durably replaces the account's archive. The new content is written
// to a temporary file in the data directory, flushed, and renamed over the
// target path; the previously persisted archive stays intact until the
// rename succeeds.
func (s *archiveFileStore) Persist(ctx context.Context, accountID string, a models.Archive) error {
	log := logger.FromContext(ctx)

	path, err := s.archivePath(accountID)
	if err != nil {
		return err
	}

	data, err := s.codec.EncodeArchive(a)
	if err != nil {
		log.Err(err).Str("func", "*archiveFileStore.Persist").Msg("error encoding archive")
		return fmt.Errorf("%w: %w", ErrArchiveWrite, err)
	}

	tmp, err := os.CreateTemp(s.dir, accountID+archiveExtension+".tmp-*")
	if err != nil {
		log.Err(err).Str("func", "*archiveFileStore.Persist").Msg("error creating temporary archive file")
		return fmt.Errorf("%w: %w", ErrArchiveWrite, err)
	}
	defer os.Remove(tmp.Name())

	if err := writeAndSync(tmp, data); err != nil {
		log.Err(err).Str("func", "*archiveFileStore.Persist").Msg("error writing temporary archive file")
		return fmt.Errorf("%w: %w", ErrArchiveWrite, err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		log.Err(err).Str("func", "*archiveFileStore.Persist").Msg("error replacing archive file")
		return fmt.Errorf("%w: %w", ErrArchiveWrite, err)
	}

	return nil
}

// DeleteAll removes the persisted archive entirely. A subsequent Load
// returns an empty archive again.
func (s *archiveFileStore) DeleteAll(ctx context.Context, accountID string) error {
	path, err := s.archivePath(accountID)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.FromContext(ctx).Err(err).Str("func", "*archiveFileStore.DeleteAll").Msg("error removing archive file")
		return fmt.Errorf("%w: %w", ErrArchiveDelete, err)
	}

	return nil
}

// archivePath maps an account ID to its archive file path, rejecting IDs
// that could escape the data directory.
func (s *archiveFileStore) archivePath(accountID string) (string, error) {
	if accountID == "" || strings.ContainsAny(accountID, `/\`) || accountID != filepath.Base(accountID) {
		return "", fmt.Errorf("%w: %q", ErrInvalidAccountID, accountID)
	}

	return filepath.Join(s.dir, accountID+archiveExtension), nil
}

func writeAndSync(f *os.File, data []byte) error {
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}
