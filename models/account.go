package models

import "time"

// Account represents a registered identity owning exactly one archive and one
// metadata blob. Sensitive fields must never be exposed outside trusted
// boundaries.
type Account struct {
	// AccountID is the opaque stable identifier of the account.
	// Immutable after registration, primary key at the persistence layer.
	AccountID string `json:"account_id"`

	// Username is the mutable display name, unique across accounts.
	Username string `json:"username"`

	// CredentialHash stores the bcrypt hash of the account's current secret.
	// It is never serialized and never logged.
	CredentialHash string `json:"-"`

	// Metadata is the opaque, client-defined payload stored alongside the
	// archive. Nil until the first sync that carries a metadata update.
	Metadata *string `json:"-"`

	// CreatedAt is the timestamp when the account was registered.
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the name of the database table
// associated with the Account model.
func (a Account) TableName() string {
	return "accounts"
}

// RegisterRequest is the payload for the account registration endpoint.
// Credential is the client-side pre-hashed secret, never the raw password.
type RegisterRequest struct {
	Username   string `json:"username"`
	Credential string `json:"credential"`
}

// SignInRequest is the payload for the sign-in endpoint.
type SignInRequest struct {
	Username   string `json:"username"`
	Credential string `json:"credential"`
}

// ChangeUsernameRequest is the payload for the username change endpoint.
type ChangeUsernameRequest struct {
	Credential  string `json:"credential"`
	NewUsername string `json:"new_username"`
}

// ChangeCredentialRequest is the payload for the credential rotation endpoint.
type ChangeCredentialRequest struct {
	OldCredential string `json:"old_credential"`
	NewCredential string `json:"new_credential"`
}

// AccountResponse is returned by registration and sign-in. It carries only
// non-sensitive identity fields.
type AccountResponse struct {
	AccountID string `json:"account_id"`
	Username  string `json:"username"`
}
