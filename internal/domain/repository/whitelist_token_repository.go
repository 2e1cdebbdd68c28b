// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"

	"clio/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Domain-specific errors for whitelist persistence.
var (
	// ErrWhitelistTokenNotFound is returned when no session record matches the lookup.
	// For a fingerprint lookup this means the session was logged out, rotated,
	// or never existed; it is distinct from a codec failure even though both
	// surface as Unauthorized at the service boundary.
	ErrWhitelistTokenNotFound = errors.New("whitelist token not found")

	// ErrFingerprintConflict is returned when either fingerprint of a new record
	// already exists. The caller should retry issuance with freshly minted
	// tokens: regenerating the issued-at timestamp changes the token bytes and
	// therefore the fingerprint.
	ErrFingerprintConflict = errors.New("token fingerprint already whitelisted")

	// ErrLedgerUnavailable is returned when the backing store cannot be reached.
	// It must never be treated as "not authenticated": that would mask an
	// infrastructure outage as an authorization failure.
	ErrLedgerUnavailable = errors.New("whitelist ledger unavailable")
)

// WhitelistTokenRepository is the revocation ledger: one record per issued
// token pair, keyed by unique token fingerprints. Verification is read-mostly
// and must be safe under unbounded concurrent readers; writes rely on the
// store's transactional uniqueness constraints, not in-process locking.
type WhitelistTokenRepository interface {
	// CreateWhitelistToken persists a new session record. Both fingerprints are
	// covered by unique indexes; violations surface as ErrFingerprintConflict.
	CreateWhitelistToken(ctx context.Context, token *entity.WhitelistToken) error

	// FindByAccessFingerprint is the point lookup on the hot verification path,
	// backed by the unique index on the access fingerprint column.
	FindByAccessFingerprint(ctx context.Context, fingerprint string) (*entity.WhitelistToken, error)

	// FindByRefreshFingerprint is the point lookup used by session refresh.
	FindByRefreshFingerprint(ctx context.Context, fingerprint string) (*entity.WhitelistToken, error)

	// FindByID retrieves a session record by its unique ID.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.WhitelistToken, error)

	// FindByUserID retrieves all session records for a user, newest first.
	// Multiple simultaneous sessions per user are expected and supported.
	FindByUserID(ctx context.Context, userID uuid.UUID) ([]*entity.WhitelistToken, error)

	// DeleteByID removes one session record, revoking that session.
	DeleteByID(ctx context.Context, id uuid.UUID) error

	// DeleteByAccessFingerprint removes the session record owning the given
	// access fingerprint; used for logout by bearer token.
	DeleteByAccessFingerprint(ctx context.Context, fingerprint string) error

	// DeleteByUserID removes all session records for a user ("logout everywhere").
	DeleteByUserID(ctx context.Context, userID uuid.UUID) error

	// DeleteExpired removes records whose refresh lifetime has passed and
	// returns how many were removed. Housekeeping only: expired tokens already
	// fail the codec's expiry check independent of ledger state.
	DeleteExpired(ctx context.Context) (int64, error)
}
