package http

import (
	"errors"
	"net/http"

	"github.com/moonsync/moonsync-server/internal/archive"
	"github.com/moonsync/moonsync-server/internal/service"
	"github.com/moonsync/moonsync-server/internal/store"
)

var errorStatusMap = map[error]int{
	service.ErrInvalidDataProvided: http.StatusBadRequest,
	service.ErrWrongCredential:     http.StatusUnauthorized,
	service.ErrPathNotFound:        http.StatusBadRequest,

	archive.ErrContainerTooLarge:  http.StatusBadRequest,
	archive.ErrMalformedContainer: http.StatusBadRequest,
	archive.ErrMissingMetaEntry:   http.StatusBadRequest,
	archive.ErrMalformedMetaEntry: http.StatusBadRequest,

	store.ErrUsernameAlreadyExists: http.StatusConflict,
	store.ErrNoAccountWasFound:     http.StatusNotFound,
	store.ErrAccountNotUpdated:     http.StatusInternalServerError,

	store.ErrBuildingSQLQuery: http.StatusInternalServerError,
	store.ErrExecutingQuery:   http.StatusInternalServerError,
	store.ErrScanningRow:      http.StatusInternalServerError,

	store.ErrInvalidAccountID: http.StatusBadRequest,
	store.ErrArchiveRead:      http.StatusInternalServerError,
	store.ErrArchiveWrite:     http.StatusInternalServerError,
	store.ErrArchiveDelete:    http.StatusInternalServerError,
}

func statusFromError(err error) int {
	for target, status := range errorStatusMap {
		if errors.Is(err, target) {
			return status
		}
	}
	return http.StatusInternalServerError
}
