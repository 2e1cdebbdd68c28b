// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"log/slog"
	"time"

	deliverycontext "clio/internal/delivery/context"
	"clio/internal/domain/entity"
	domainerrors "clio/internal/domain/errors"
	"clio/internal/domain/repository"
	"clio/internal/domain/service"
	"clio/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// sessionService implements the SessionUsecase interface.
type sessionService struct {
	txManager    repository.TransactionManager
	tokenService service.TokenService
	logger       *slog.Logger
}

// NewSessionService is the constructor for sessionService.
func NewSessionService(
	txManager repository.TransactionManager,
	tokenService service.TokenService,
	logger *slog.Logger,
) usecase.SessionUsecase {
	return &sessionService{
		txManager:    txManager,
		tokenService: tokenService,
		logger:       logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *sessionService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// GetActiveSessions retrieves all active sessions for a user. The session the
// request was made with, identified by the access token's fingerprint, is
// marked as current.
func (srv *sessionService) GetActiveSessions(ctx context.Context, userID uuid.UUID, currentAccessToken string) ([]*entity.SessionInfo, error) {
	srv.log(ctx).Debug("Getting active sessions", slog.Any("user_id", userID))

	currentFingerprint := ""
	if currentAccessToken != "" {
		currentFingerprint = srv.tokenService.Fingerprint(currentAccessToken)
	}

	var sessions []*entity.SessionInfo

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.UserRepo()
		whitelistRepo := repoFactory.WhitelistRepo()

		// 1. Verify user exists
		_, err := userRepo.FindByID(ctx, userID)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return errors.Wrap(domainerrors.ErrNotFound, "user not found")
			}

			return errors.Wrap(err, "failed to find user")
		}

		// 2. Get all whitelist records for the user
		tokens, err := whitelistRepo.FindByUserID(ctx, userID)
		if err != nil {
			return errors.Wrap(err, "failed to find whitelist tokens")
		}

		// 3. Convert to session info
		now := time.Now()
		for _, token := range tokens {
			sessions = append(sessions, &entity.SessionInfo{
				ID:        token.ID,
				UserID:    token.UserID,
				Metadata:  entity.ParseClientMetadata(token.UserAgent),
				CreatedAt: token.CreatedAt,
				ExpiresAt: token.ExpiresAt,
				IsActive:  !token.IsExpired(now),
				Current:   currentFingerprint != "" && token.AccessTokenFingerprint == currentFingerprint,
			})
		}

		return nil
	})
	if err != nil {
		srv.log(ctx).Error("Failed to get active sessions", slog.Any("error", err), slog.Any("user_id", userID))

		return nil, errors.Wrap(err, "failed to get active sessions")
	}

	srv.log(ctx).Debug("Successfully retrieved active sessions", slog.Any("user_id", userID), slog.Int("count", len(sessions)))

	return sessions, nil
}

// RevokeSession revokes a specific session.
func (srv *sessionService) RevokeSession(ctx context.Context, userID, sessionID uuid.UUID) error {
	srv.log(ctx).Info("Revoking session", slog.Any("user_id", userID), slog.Any("session_id", sessionID))

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		whitelistRepo := repoFactory.WhitelistRepo()

		// 1. Find the session
		token, err := whitelistRepo.FindByID(ctx, sessionID)
		if err != nil {
			if errors.Is(err, repository.ErrWhitelistTokenNotFound) {
				return errors.Wrap(domainerrors.ErrSessionNotFound, "session not found")
			}

			return errors.Wrap(err, "failed to find session")
		}

		// 2. Verify ownership
		if token.UserID != userID {
			return errors.Wrap(domainerrors.ErrForbidden, "session does not belong to user")
		}

		// 3. Delete the session
		if err := whitelistRepo.DeleteByID(ctx, sessionID); err != nil {
			return errors.Wrap(err, "failed to delete session")
		}

		return nil
	})
	if err != nil {
		srv.log(ctx).Error("Failed to revoke session", slog.Any("error", err), slog.Any("user_id", userID), slog.Any("session_id", sessionID))

		return errors.Wrap(err, "failed to revoke session")
	}

	srv.log(ctx).Info("Successfully revoked session", slog.Any("user_id", userID), slog.Any("session_id", sessionID))

	return nil
}

// RevokeAllSessions revokes all sessions for a user.
func (srv *sessionService) RevokeAllSessions(ctx context.Context, userID uuid.UUID) error {
	srv.log(ctx).Info("Revoking all sessions", slog.Any("user_id", userID))

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.UserRepo()
		whitelistRepo := repoFactory.WhitelistRepo()

		// 1. Verify user exists
		_, err := userRepo.FindByID(ctx, userID)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return errors.Wrap(domainerrors.ErrNotFound, "user not found")
			}

			return errors.Wrap(err, "failed to find user")
		}

		// 2. Delete all sessions
		if err := whitelistRepo.DeleteByUserID(ctx, userID); err != nil {
			return errors.Wrap(err, "failed to delete all sessions")
		}

		return nil
	})
	if err != nil {
		srv.log(ctx).Error("Failed to revoke all sessions", slog.Any("error", err), slog.Any("user_id", userID))

		return errors.Wrap(err, "failed to revoke all sessions")
	}

	srv.log(ctx).Info("Successfully revoked all sessions", slog.Any("user_id", userID))

	return nil
}

// RevokeAllOtherSessions revokes all of a user's sessions except the one the
// request was made with, identified by the access token's fingerprint.
func (srv *sessionService) RevokeAllOtherSessions(ctx context.Context, userID uuid.UUID, currentAccessToken string) error {
	srv.log(ctx).Info("Revoking all other sessions", slog.Any("user_id", userID))

	currentFingerprint := srv.tokenService.Fingerprint(currentAccessToken)

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		whitelistRepo := repoFactory.WhitelistRepo()

		// 1. Get all sessions
		tokens, err := whitelistRepo.FindByUserID(ctx, userID)
		if err != nil {
			return errors.Wrap(err, "failed to find whitelist tokens")
		}

		// 2. Delete all sessions except the current one
		for _, token := range tokens {
			if token.AccessTokenFingerprint == currentFingerprint {
				continue
			}
			if err := whitelistRepo.DeleteByID(ctx, token.ID); err != nil {
				return errors.Wrap(err, "failed to delete session")
			}
		}

		return nil
	})
	if err != nil {
		srv.log(ctx).Error("Failed to revoke all other sessions", slog.Any("error", err), slog.Any("user_id", userID))

		return errors.Wrap(err, "failed to revoke all other sessions")
	}

	srv.log(ctx).Info("Successfully revoked all other sessions", slog.Any("user_id", userID))

	return nil
}

// CleanupExpiredSessions removes all expired sessions from the database.
func (srv *sessionService) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	srv.log(ctx).Info("Cleaning up expired sessions")

	var deletedCount int64

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		whitelistRepo := repoFactory.WhitelistRepo()

		count, err := whitelistRepo.DeleteExpired(ctx)
		if err != nil {
			return errors.Wrap(err, "failed to delete expired sessions")
		}
		deletedCount = count

		return nil
	})
	if err != nil {
		srv.log(ctx).Error("Failed to cleanup expired sessions", slog.Any("error", err))

		return 0, errors.Wrap(err, "failed to cleanup expired sessions")
	}

	srv.log(ctx).Info("Successfully cleaned up expired sessions", slog.Int64("deleted_count", deletedCount))

	return deletedCount, nil
}
