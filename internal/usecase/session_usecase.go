// Package usecase contains the application-specific business rules.
package usecase

import (
	"context"

	"clio/internal/domain/entity"

	"github.com/google/uuid"
)

// SessionUsecase defines the interface for session management operations.
// Users hold multiple simultaneous sessions; these operations let them inspect
// and revoke them individually or in bulk.
// The currentAccessToken parameters carry the raw bearer token of the request
// so the session it belongs to can be identified by fingerprint.
type SessionUsecase interface {
	GetActiveSessions(ctx context.Context, userID uuid.UUID, currentAccessToken string) ([]*entity.SessionInfo, error)
	RevokeSession(ctx context.Context, userID, sessionID uuid.UUID) error
	RevokeAllSessions(ctx context.Context, userID uuid.UUID) error
	RevokeAllOtherSessions(ctx context.Context, userID uuid.UUID, currentAccessToken string) error
	CleanupExpiredSessions(ctx context.Context) (int64, error)
}
