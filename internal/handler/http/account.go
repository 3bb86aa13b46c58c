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

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Msg("Invalid JSON was passed")
		http.Error(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	account, err := h.services.AuthService.Register(ctx, req.Username, req.Credential)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidDataProvided):
			log.Err(err).Msg("invalid data provided")
			http.Error(w, "invalid data provided", http.StatusBadRequest)
			return
		case errors.Is(err, store.ErrUsernameAlreadyExists):
			log.Err(err).Msg("username already exists")
			http.Error(w, "username already exists", http.StatusConflict)
			return
		default:
			log.Err(err).Msg("unexpected error occurred during account registration")
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
	}

	utils.WriteJSON(w, models.AccountResponse{
		AccountID: account.AccountID,
		Username:  account.Username,
	}, http.StatusOK)
}

func (h *Handler) signIn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	var req models.SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Msg("Invalid JSON was passed")
		http.Error(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	account, err := h.services.AuthService.SignIn(ctx, req.Username, req.Credential)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidDataProvided):
			log.Err(err).Msg("invalid data provided")
			http.Error(w, "invalid data provided", http.StatusBadRequest)
			return
		case errors.Is(err, store.ErrNoAccountWasFound):
			log.Err(err).Msg("no account was found")
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		case errors.Is(err, service.ErrWrongCredential):
			log.Err(err).Msg("wrong credential")
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		default:
			log.Err(err).Msg("unexpected error occurred during sign-in")
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
	}

	utils.WriteJSON(w, models.AccountResponse{
		AccountID: account.AccountID,
		Username:  account.Username,
	}, http.StatusOK)
}

func (h *Handler) changeUsername(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	var req models.ChangeUsernameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Msg("Invalid JSON was passed")
		http.Error(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	accountID := chi.URLParam(r, "accountID")
	if err := h.services.AuthService.ChangeUsername(ctx, accountID, req.Credential, req.NewUsername); err != nil {
		log.Err(err).Msg("error changing username")
		http.Error(w, http.StatusText(statusFromError(err)), statusFromError(err))
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *Handler) changeCredential(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	var req models.ChangeCredentialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Msg("Invalid JSON was passed")
		http.Error(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	accountID := chi.URLParam(r, "accountID")
	if err := h.services.AuthService.ChangeCredential(ctx, accountID, req.OldCredential, req.NewCredential); err != nil {
		log.Err(err).Msg("error changing credential")
		http.Error(w, http.StatusText(statusFromError(err)), statusFromError(err))
		return
	}

	w.WriteHeader(http.StatusOK)
}

// getMetadata returns the account's metadata blob. The credential travels in
// a header rather than the body so the route stays a plain GET.
func (h *Handler) getMetadata(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	accountID := chi.URLParam(r, "accountID")
	credential := r.Header.Get("X-Credential")

	metadata, err := h.services.AuthService.Metadata(ctx, accountID, credential)
	if err != nil {
		log.Err(err).Msg("error reading account metadata")
		http.Error(w, http.StatusText(statusFromError(err)), statusFromError(err))
		return
	}

	utils.WriteJSON(w, models.MetadataResponse{Metadata: metadata}, http.StatusOK)
}
