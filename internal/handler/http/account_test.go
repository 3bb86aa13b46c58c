package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/moonsync/moonsync-server/internal/service"
	"github.com/moonsync/moonsync-server/internal/store"
	"github.com/moonsync/moonsync-server/models"
)

type mockAuthService struct {
	verifyFn           func(ctx context.Context, accountID, credential string) (models.Account, error)
	registerFn         func(ctx context.Context, username, credential string) (models.Account, error)
	signInFn           func(ctx context.Context, username, credential string) (models.Account, error)
	changeUsernameFn   func(ctx context.Context, accountID, credential, newUsername string) error
	changeCredentialFn func(ctx context.Context, accountID, oldCredential, newCredential string) error
	metadataFn         func(ctx context.Context, accountID, credential string) (*string, error)
}

func (m *mockAuthService) Verify(ctx context.Context, accountID, credential string) (models.Account, error) {
	if m.verifyFn != nil {
		return m.verifyFn(ctx, accountID, credential)
	}
	return models.Account{}, nil
}

func (m *mockAuthService) Register(ctx context.Context, username, credential string) (models.Account, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, username, credential)
	}
	return models.Account{}, nil
}

func (m *mockAuthService) SignIn(ctx context.Context, username, credential string) (models.Account, error) {
	if m.signInFn != nil {
		return m.signInFn(ctx, username, credential)
	}
	return models.Account{}, nil
}

func (m *mockAuthService) ChangeUsername(ctx context.Context, accountID, credential, newUsername string) error {
	if m.changeUsernameFn != nil {
		return m.changeUsernameFn(ctx, accountID, credential, newUsername)
	}
	return nil
}

func (m *mockAuthService) ChangeCredential(ctx context.Context, accountID, oldCredential, newCredential string) error {
	if m.changeCredentialFn != nil {
		return m.changeCredentialFn(ctx, accountID, oldCredential, newCredential)
	}
	return nil
}

func (m *mockAuthService) Metadata(ctx context.Context, accountID, credential string) (*string, error) {
	if m.metadataFn != nil {
		return m.metadataFn(ctx, accountID, credential)
	}
	return nil, nil
}

func jsonBody(t *testing.T, v any) *bytes.Reader {
	t.Helper()
	body, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal error: %v", err)
	}
	return bytes.NewReader(body)
}

func TestRegister_Success(t *testing.T) {
	mockAuth := &mockAuthService{
		registerFn: func(_ context.Context, username, credential string) (models.Account, error) {
			if username != "alice" || credential != "secret" {
				t.Fatalf("unexpected register args: %q %q", username, credential)
			}
			return models.Account{AccountID: "acc-1", Username: "alice", CredentialHash: "$2a$11$hash"}, nil
		},
	}
	h := newTestHandler(&service.Services{AuthService: mockAuth})

	req := httptest.NewRequest(http.MethodPost, "/api/account/register",
		jsonBody(t, models.RegisterRequest{Username: "alice", Credential: "secret"}))

	rr := serveRequest(h, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var resp models.AccountResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if resp.AccountID != "acc-1" || resp.Username != "alice" {
		t.Fatalf("unexpected response: %+v", resp)
	}

	// the stored hash never leaves the server
	if bytes.Contains(rr.Body.Bytes(), []byte("$2a$11$hash")) {
		t.Fatalf("credential hash leaked into the response")
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	mockAuth := &mockAuthService{
		registerFn: func(_ context.Context, _, _ string) (models.Account, error) {
			return models.Account{}, fmt.Errorf("account creation ended with error: %w", store.ErrUsernameAlreadyExists)
		},
	}
	h := newTestHandler(&service.Services{AuthService: mockAuth})

	req := httptest.NewRequest(http.MethodPost, "/api/account/register",
		jsonBody(t, models.RegisterRequest{Username: "alice", Credential: "secret"}))

	rr := serveRequest(h, req)

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
}

func TestRegister_EmptyInput(t *testing.T) {
	mockAuth := &mockAuthService{
		registerFn: func(_ context.Context, _, _ string) (models.Account, error) {
			return models.Account{}, service.ErrInvalidDataProvided
		},
	}
	h := newTestHandler(&service.Services{AuthService: mockAuth})

	req := httptest.NewRequest(http.MethodPost, "/api/account/register",
		jsonBody(t, models.RegisterRequest{}))

	rr := serveRequest(h, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestSignIn_UnknownUsername(t *testing.T) {
	mockAuth := &mockAuthService{
		signInFn: func(_ context.Context, _, _ string) (models.Account, error) {
			return models.Account{}, fmt.Errorf("account search by username failed: %w", store.ErrNoAccountWasFound)
		},
	}
	h := newTestHandler(&service.Services{AuthService: mockAuth})

	req := httptest.NewRequest(http.MethodPost, "/api/account/sign-in",
		jsonBody(t, models.SignInRequest{Username: "ghost", Credential: "secret"}))

	rr := serveRequest(h, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestSignIn_WrongCredential(t *testing.T) {
	mockAuth := &mockAuthService{
		signInFn: func(_ context.Context, _, _ string) (models.Account, error) {
			return models.Account{}, service.ErrWrongCredential
		},
	}
	h := newTestHandler(&service.Services{AuthService: mockAuth})

	req := httptest.NewRequest(http.MethodPost, "/api/account/sign-in",
		jsonBody(t, models.SignInRequest{Username: "alice", Credential: "wrong"}))

	rr := serveRequest(h, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestSignIn_Success(t *testing.T) {
	mockAuth := &mockAuthService{
		signInFn: func(_ context.Context, username, _ string) (models.Account, error) {
			return models.Account{AccountID: "acc-1", Username: username}, nil
		},
	}
	h := newTestHandler(&service.Services{AuthService: mockAuth})

	req := httptest.NewRequest(http.MethodPost, "/api/account/sign-in",
		jsonBody(t, models.SignInRequest{Username: "alice", Credential: "secret"}))

	rr := serveRequest(h, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var resp models.AccountResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if resp.AccountID != "acc-1" {
		t.Fatalf("unexpected account id %q", resp.AccountID)
	}
}

func TestChangeUsername(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		var gotAccountID, gotNewUsername string
		mockAuth := &mockAuthService{
			changeUsernameFn: func(_ context.Context, accountID, _, newUsername string) error {
				gotAccountID = accountID
				gotNewUsername = newUsername
				return nil
			},
		}
		h := newTestHandler(&service.Services{AuthService: mockAuth})

		req := httptest.NewRequest(http.MethodPut, "/api/account/acc-1/username",
			jsonBody(t, models.ChangeUsernameRequest{Credential: "secret", NewUsername: "alice-new"}))

		rr := serveRequest(h, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
		if gotAccountID != "acc-1" || gotNewUsername != "alice-new" {
			t.Fatalf("unexpected args: %q %q", gotAccountID, gotNewUsername)
		}
	})

	t.Run("wrong credential", func(t *testing.T) {
		mockAuth := &mockAuthService{
			changeUsernameFn: func(_ context.Context, _, _, _ string) error {
				return service.ErrWrongCredential
			},
		}
		h := newTestHandler(&service.Services{AuthService: mockAuth})

		req := httptest.NewRequest(http.MethodPut, "/api/account/acc-1/username",
			jsonBody(t, models.ChangeUsernameRequest{Credential: "wrong", NewUsername: "alice-new"}))

		rr := serveRequest(h, req)

		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rr.Code)
		}
	})

	t.Run("duplicate username", func(t *testing.T) {
		mockAuth := &mockAuthService{
			changeUsernameFn: func(_ context.Context, _, _, _ string) error {
				return fmt.Errorf("username update failed: %w", store.ErrUsernameAlreadyExists)
			},
		}
		h := newTestHandler(&service.Services{AuthService: mockAuth})

		req := httptest.NewRequest(http.MethodPut, "/api/account/acc-1/username",
			jsonBody(t, models.ChangeUsernameRequest{Credential: "secret", NewUsername: "taken"}))

		rr := serveRequest(h, req)

		if rr.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rr.Code)
		}
	})
}

func TestChangeCredential_Success(t *testing.T) {
	var gotOld, gotNew string
	mockAuth := &mockAuthService{
		changeCredentialFn: func(_ context.Context, _, oldCredential, newCredential string) error {
			gotOld = oldCredential
			gotNew = newCredential
			return nil
		},
	}
	h := newTestHandler(&service.Services{AuthService: mockAuth})

	req := httptest.NewRequest(http.MethodPut, "/api/account/acc-1/credential",
		jsonBody(t, models.ChangeCredentialRequest{OldCredential: "old", NewCredential: "new"}))

	rr := serveRequest(h, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if gotOld != "old" || gotNew != "new" {
		t.Fatalf("unexpected args: %q %q", gotOld, gotNew)
	}
}

func TestGetMetadata(t *testing.T) {
	metadata := `{"theme":"dark"}`
	mockAuth := &mockAuthService{
		metadataFn: func(_ context.Context, accountID, credential string) (*string, error) {
			if accountID != "acc-1" || credential != "secret" {
				t.Fatalf("unexpected args: %q %q", accountID, credential)
			}
			return &metadata, nil
		},
	}
	h := newTestHandler(&service.Services{AuthService: mockAuth})

	req := httptest.NewRequest(http.MethodGet, "/api/account/acc-1/metadata", nil)
	req.Header.Set("X-Credential", "secret")

	rr := serveRequest(h, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var resp models.MetadataResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if resp.Metadata == nil || *resp.Metadata != metadata {
		t.Fatalf("unexpected metadata response: %+v", resp)
	}
}

func TestGetMetadata_WrongCredential(t *testing.T) {
	mockAuth := &mockAuthService{
		metadataFn: func(_ context.Context, _, _ string) (*string, error) {
			return nil, service.ErrWrongCredential
		},
	}
	h := newTestHandler(&service.Services{AuthService: mockAuth})

	req := httptest.NewRequest(http.MethodGet, "/api/account/acc-1/metadata", nil)
	req.Header.Set("X-Credential", "wrong")

	rr := serveRequest(h, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}
