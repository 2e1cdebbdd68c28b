// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// WhitelistToken represents one active session in the revocation ledger.
// The raw token strings are never stored; only their fingerprints are, so a
// database leak cannot be replayed as bearer credentials. A session is
// authenticated only while its record exists: deleting the record revokes the
// still-signature-valid tokens immediately.
type WhitelistToken struct {
	ID                      uuid.UUID // The unique ID for this session record.
	UserID                  uuid.UUID // Links this session to the User it belongs to.
	AccessTokenFingerprint  string    // SHA-256 hex digest of the raw access token, unique.
	RefreshTokenFingerprint string    // SHA-256 hex digest of the raw refresh token, unique.
	UserAgent               string    // Serialized ClientMetadata of the originating request.
	ExpiresAt               time.Time // When the refresh token expires; used only by the cleanup sweep.
	CreatedAt               time.Time // Timestamp of when this session was established.
}

// IsExpired reports whether the session's refresh token lifetime has passed.
func (t *WhitelistToken) IsExpired(now time.Time) bool {
	return t.ExpiresAt.Before(now)
}

// ClientMetadata captures where a session was established from. It is stored
// as an opaque JSON blob on the whitelist record for auditing.
type ClientMetadata struct {
	BrowserAgent string `json:"browser_agent"`
	IP           string `json:"ip"`
}

// Serialize renders the metadata as the JSON blob stored on the record.
func (m ClientMetadata) Serialize() string {
	raw, err := json.Marshal(m)
	if err != nil {
		// Two string fields cannot fail to marshal.
		return "{}"
	}

	return string(raw)
}

// ParseClientMetadata decodes a stored metadata blob. Unparseable blobs yield
// zero metadata rather than an error; the session record itself is what matters.
func ParseClientMetadata(raw string) ClientMetadata {
	var m ClientMetadata
	if raw != "" {
		_ = json.Unmarshal([]byte(raw), &m)
	}

	return m
}

// SessionInfo is the read model for a user's active session list.
type SessionInfo struct {
	ID        uuid.UUID      // The whitelist record ID; revocation targets this.
	UserID    uuid.UUID      // Owner of the session.
	Metadata  ClientMetadata // Where the session was established from.
	CreatedAt time.Time      // When the session was established.
	ExpiresAt time.Time      // When the refresh token expires.
	IsActive  bool           // Whether the refresh lifetime is still running.
	Current   bool           // Whether this is the session making the request.
}
