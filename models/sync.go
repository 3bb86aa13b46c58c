package models

// SyncRequest is the decoded body of one sync call. Data holds the delta
// container: a zip whose regular entries are adds and whose reserved
// meta entry describes deletes, download requests and the metadata update.
type SyncRequest struct {
	// AccountID comes from the request path, not the JSON body.
	AccountID string `json:"-"`

	// Username is the display name the client currently believes it has.
	// The server compares it to the stored name to decide whether the
	// response must carry a rename notification.
	Username string `json:"username"`

	// Credential is the presented secret, verified against the stored
	// bcrypt hash before any archive state is touched.
	Credential string `json:"credential"`

	// Data is the delta container. encoding/json transports it as base64.
	Data []byte `json:"data"`
}

// SyncResponse carries the result of a sync call back to the client.
type SyncResponse struct {
	// Data is a self-contained archive container with the requested files,
	// in the order they were requested.
	Data []byte `json:"data"`

	// NewUsername is set when the account's display name differs from the
	// one embedded in the request, so the client can reconcile its cached
	// identity. Empty otherwise.
	NewUsername string `json:"new_username,omitempty"`
}

// MetadataResponse is returned by the metadata read endpoint.
type MetadataResponse struct {
	Metadata *string `json:"metadata"`
}
