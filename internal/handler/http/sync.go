package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/moonsync/moonsync-server/internal/logger"
	"github.com/moonsync/moonsync-server/internal/service"
	"github.com/moonsync/moonsync-server/internal/store"
	"github.com/moonsync/moonsync-server/internal/utils"
	"github.com/moonsync/moonsync-server/models"
)

// sync handles PUT /api/sync/{accountID}: one full merge round-trip.
//
// An unknown account and a credential mismatch both map to 401 so the caller
// cannot probe which account identifiers exist.
func (h *Handler) sync(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	if h.maxBody > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	}

	var syncRequest models.SyncRequest
	if err := json.NewDecoder(r.Body).Decode(&syncRequest); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			log.Err(err).Msg("sync request body too large")
			http.Error(w, "request body too large", http.StatusBadRequest)
			return
		}
		log.Err(err).Msg("Invalid JSON was passed")
		http.Error(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}
	syncRequest.AccountID = chi.URLParam(r, "accountID")

	response, err := h.services.SyncService.Sync(ctx, syncRequest)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNoAccountWasFound) || errors.Is(err, service.ErrWrongCredential):
			log.Err(err).Msg("sync authentication failed")
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		default:
			log.Err(err).Msg("error applying sync request")
			http.Error(w, "error applying sync request", statusFromError(err))
			return
		}
	}

	utils.WriteJSON(w, response, http.StatusOK)
}
