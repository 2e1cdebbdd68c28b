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
	"go.uber.org/fx"
)

// issueAttempts bounds how many times issuance re-mints tokens after a
// fingerprint collision. One retry is enough: every mint carries a fresh token
// ID claim, so a second collision means something is genuinely wrong.
const issueAttempts = 2

// authService implements the AuthUsecase interface.
type authService struct {
	txManager     repository.TransactionManager
	userRepo      repository.UserRepository
	whitelistRepo repository.WhitelistTokenRepository
	hasher        service.PasswordHasher
	tokenService  service.TokenService
	logger        *slog.Logger
}

// AuthServiceParams holds dependencies for AuthService, injected by Fx.
type AuthServiceParams struct {
	fx.In

	TxManager     repository.TransactionManager
	UserRepo      repository.UserRepository
	WhitelistRepo repository.WhitelistTokenRepository
	Hasher        service.PasswordHasher
	TokenService  service.TokenService
	Logger        *slog.Logger
}

// NewAuthService is the constructor for authService. It receives all dependencies as interfaces.
func NewAuthService(params AuthServiceParams) usecase.AuthUsecase {
	return &authService{
		txManager:     params.TxManager,
		userRepo:      params.UserRepo,
		whitelistRepo: params.WhitelistRepo,
		hasher:        params.Hasher,
		tokenService:  params.TokenService,
		logger:        params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *authService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// RegisterUser orchestrates the complete user registration process.
func (srv *authService) RegisterUser(ctx context.Context, input *usecase.RegisterUserInput) (*usecase.RegisterOutput, error) {
	srv.log(ctx).Info("Starting registration", slog.String("email", input.Email))

	if err := srv.hasher.ValidatePasswordStrength(input.Password); err != nil {
		srv.log(ctx).Warn("Password validation failed during registration", slog.String("email", input.Email), slog.Any("error", err))

		return nil, errors.Wrap(err, "password does not meet security requirements")
	}

	hashedPassword, err := srv.hasher.Hash(input.Password)
	if err != nil {
		srv.log(ctx).Error("Failed to hash password during registration", slog.Any("error", err))

		return nil, errors.Wrap(domainerrors.ErrPasswordHashFailed, err.Error())
	}

	newUser := &entity.User{
		FirstName:     input.FirstName,
		MiddleName:    input.MiddleName,
		LastName:      input.LastName,
		Email:         input.Email,
		MobileNumber:  input.MobileNumber,
		Role:          entity.RoleClient,
		AccountStatus: entity.AccountStatusPending,
		IsActive:      true,
		PasswordHash:  hashedPassword,
	}

	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.UserRepo()

		if _, err := userRepo.FindByEmail(ctx, input.Email); err == nil {
			return errors.Wrap(domainerrors.ErrUserAlreadyExists, "email already registered")
		} else if !errors.Is(err, repository.ErrUserNotFound) {
			return errors.Wrap(err, "failed to check existing email")
		}

		if err := userRepo.Create(ctx, newUser); err != nil {
			if errors.Is(err, repository.ErrEmailAlreadyExists) {
				return errors.Wrap(domainerrors.ErrUserAlreadyExists, "email already registered")
			}

			return errors.Wrap(err, "failed to create user during registration")
		}

		return nil
	})
	if err != nil {
		srv.log(ctx).Error("Failed to execute registration transaction", slog.String("email", input.Email), slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to execute user registration transaction")
	}

	srv.log(ctx).Debug("Registration completed", slog.Any("userID", newUser.ID))

	return &usecase.RegisterOutput{User: newUser}, nil
}

// Login orchestrates the user login process.
func (srv *authService) Login(ctx context.Context, input *usecase.LoginInput) (*usecase.LoginOutput, error) {
	srv.log(ctx).Debug("Starting user login", slog.String("email", input.Email))

	user, err := srv.userRepo.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			srv.log(ctx).Warn("Login failed", slog.String("email", input.Email), slog.Any("error", err))

			return nil, errors.Wrap(domainerrors.ErrInvalidCredentials, "login failed")
		}

		return nil, errors.Wrap(err, "failed to load login user")
	}

	// Check password outside transaction (bcrypt is CPU-bound).
	if !srv.hasher.Check(input.Password, user.PasswordHash) {
		srv.log(ctx).Warn("Login failed", slog.String("email", input.Email), slog.Any("error", domainerrors.ErrInvalidCredentials))

		return nil, errors.Wrap(domainerrors.ErrInvalidCredentials, "login failed")
	}

	if !user.IsActive || user.AccountStatus == entity.AccountStatusSuspended {
		srv.log(ctx).Warn("Login rejected for disabled account", slog.Any("userID", user.ID))

		return nil, errors.Wrap(domainerrors.ErrAccountDisabled, "login failed")
	}

	accessToken, refreshToken, err := srv.issueSession(ctx, user, input.Metadata)
	if err != nil {
		srv.log(ctx).Warn("Login failed", slog.String("email", input.Email), slog.Any("error", err))

		return nil, err
	}

	srv.log(ctx).Debug("User logged in successfully", slog.Any("userID", user.ID))

	return &usecase.LoginOutput{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
	}, nil
}

// issueSession mints a token pair and whitelists its fingerprints. A session
// exists only once the ledger write commits: if the write fails, the freshly
// minted tokens are dead on arrival and never returned to the caller.
func (srv *authService) issueSession(ctx context.Context, user *entity.User, metadata entity.ClientMetadata) (string, string, error) {
	// The write must land even if the client hangs up mid-request, otherwise a
	// returned pair could exist without a ledger record.
	writeCtx := context.WithoutCancel(ctx)

	var lastErr error
	for attempt := 0; attempt < issueAttempts; attempt++ {
		accessToken, refreshToken, err := srv.tokenService.GenerateTokenPair(user)
		if err != nil {
			return "", "", errors.Wrap(err, "failed to generate tokens")
		}

		record := &entity.WhitelistToken{
			UserID:                  user.ID,
			AccessTokenFingerprint:  srv.tokenService.Fingerprint(accessToken),
			RefreshTokenFingerprint: srv.tokenService.Fingerprint(refreshToken),
			UserAgent:               metadata.Serialize(),
			ExpiresAt:               time.Now().Add(srv.tokenService.RefreshTokenDuration()),
		}

		if err := srv.whitelistRepo.CreateWhitelistToken(writeCtx, record); err != nil {
			if errors.Is(err, repository.ErrFingerprintConflict) {
				// Re-minting changes the token ID claims and with them both
				// fingerprints, so the next attempt gets fresh keys.
				srv.log(ctx).Warn("Fingerprint collision during issuance, re-minting", slog.Any("userID", user.ID))
				lastErr = err

				continue
			}

			return "", "", errors.Wrap(err, "failed to whitelist session")
		}

		return accessToken, refreshToken, nil
	}

	return "", "", errors.Wrap(lastErr, "failed to whitelist session after re-minting")
}

// VerifyAccess authenticates a bearer access token against the signature,
// expiry and the whitelist ledger, and resolves the owning user.
func (srv *authService) VerifyAccess(ctx context.Context, accessToken string) (*entity.User, error) {
	claims, err := srv.tokenService.ValidateToken(accessToken)
	if err != nil {
		// The precise failure mode is for the logs only; callers get one
		// uniform answer so probing tokens reveals nothing.
		srv.log(ctx).Debug("Token validation failed", slog.Any("error", err))

		return nil, errors.Wrap(domainerrors.ErrUnauthorized, "invalid access token")
	}

	if claims.Type != service.TokenTypeAccess {
		srv.log(ctx).Debug("Refresh token presented as access token", slog.Any("userID", claims.UserID))

		return nil, errors.Wrap(domainerrors.ErrUnauthorized, "invalid access token")
	}

	fingerprint := srv.tokenService.Fingerprint(accessToken)

	record, err := srv.whitelistRepo.FindByAccessFingerprint(ctx, fingerprint)
	if err != nil {
		if errors.Is(err, repository.ErrWhitelistTokenNotFound) {
			srv.log(ctx).Info("Token is not whitelisted", slog.Any("userID", claims.UserID))

			return nil, errors.Wrap(domainerrors.ErrUnauthorized, "session revoked or unknown")
		}

		// A ledger outage is an availability problem, never an authorization
		// verdict. Reporting it as Unauthorized would log everyone out during
		// a database incident.
		srv.log(ctx).Error("Whitelist lookup failed", slog.Any("error", err))

		return nil, errors.Wrap(domainerrors.ErrAuthStoreUnavailable, "whitelist lookup failed")
	}

	user, err := srv.userRepo.FindByID(ctx, record.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			srv.log(ctx).Warn("Whitelisted session references missing user", slog.Any("userID", record.UserID))

			return nil, errors.Wrap(domainerrors.ErrUnauthorized, "unknown principal")
		}

		return nil, errors.Wrap(domainerrors.ErrAuthStoreUnavailable, "failed to resolve principal")
	}

	if !user.IsActive || user.AccountStatus == entity.AccountStatusSuspended {
		return nil, errors.Wrap(domainerrors.ErrUnauthorized, "account disabled")
	}

	return user, nil
}

// RefreshSession rotates a session: the presented refresh token buys exactly
// one new pair, and the old pair dies in the same transaction.
func (srv *authService) RefreshSession(ctx context.Context, input *usecase.RefreshInput) (*usecase.RefreshOutput, error) {
	srv.log(ctx).Info("Attempting to refresh session")

	claims, err := srv.tokenService.ValidateToken(input.RefreshToken)
	if err != nil {
		srv.log(ctx).Debug("Refresh token validation failed", slog.Any("error", err))

		return nil, errors.Wrap(domainerrors.ErrUnauthorized, "invalid refresh token")
	}

	if claims.Type != service.TokenTypeRefresh {
		return nil, errors.Wrap(domainerrors.ErrUnauthorized, "invalid refresh token")
	}

	fingerprint := srv.tokenService.Fingerprint(input.RefreshToken)

	var (
		user         *entity.User
		accessToken  string
		refreshToken string
	)

	// Rotation must be atomic: either the old session is gone and the new one
	// live, or nothing changed. Two live pairs from one refresh, or none, are
	// both unacceptable. The detached context shields the whole transaction
	// from caller cancellation so a hung-up client cannot abort it mid-flight.
	writeCtx := context.WithoutCancel(ctx)
	err = srv.txManager.Execute(writeCtx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.UserRepo()
		whitelistRepo := repoFactory.WhitelistRepo()

		record, err := whitelistRepo.FindByRefreshFingerprint(writeCtx, fingerprint)
		if err != nil {
			if errors.Is(err, repository.ErrWhitelistTokenNotFound) {
				return errors.Wrap(domainerrors.ErrUnauthorized, "session revoked or unknown")
			}

			return errors.Wrap(domainerrors.ErrAuthStoreUnavailable, "whitelist lookup failed")
		}

		user, err = userRepo.FindByID(writeCtx, record.UserID)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return errors.Wrap(domainerrors.ErrUnauthorized, "unknown principal")
			}

			return errors.Wrap(err, "failed to resolve principal")
		}

		if !user.IsActive || user.AccountStatus == entity.AccountStatusSuspended {
			return errors.Wrap(domainerrors.ErrUnauthorized, "account disabled")
		}

		if err := whitelistRepo.DeleteByID(writeCtx, record.ID); err != nil {
			return errors.Wrap(err, "failed to retire old session")
		}

		accessToken, refreshToken, err = srv.tokenService.GenerateTokenPair(user)
		if err != nil {
			return errors.Wrap(err, "failed to generate replacement tokens")
		}

		newRecord := &entity.WhitelistToken{
			UserID:                  user.ID,
			AccessTokenFingerprint:  srv.tokenService.Fingerprint(accessToken),
			RefreshTokenFingerprint: srv.tokenService.Fingerprint(refreshToken),
			UserAgent:               input.Metadata.Serialize(),
			ExpiresAt:               time.Now().Add(srv.tokenService.RefreshTokenDuration()),
		}

		if err := whitelistRepo.CreateWhitelistToken(writeCtx, newRecord); err != nil {
			return errors.Wrap(err, "failed to whitelist replacement session")
		}

		return nil
	})
	if err != nil {
		srv.log(ctx).Warn("Failed to refresh session", slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to execute session refresh transaction")
	}

	srv.log(ctx).Debug("Session refreshed", slog.Any("userID", user.ID))

	return &usecase.RefreshOutput{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
	}, nil
}

// Logout revokes the session owning the presented access token.
func (srv *authService) Logout(ctx context.Context, input *usecase.LogoutInput) error {
	srv.log(ctx).Info("Attempting to log out")

	if _, err := srv.tokenService.ValidateToken(input.AccessToken); err != nil {
		// Even if the token is invalid, proceed to delete its record; an
		// expired session should still be removable by its owner.
		srv.log(ctx).Warn("Logout with invalid token", slog.Any("error", err))
	}

	fingerprint := srv.tokenService.Fingerprint(input.AccessToken)

	err := srv.whitelistRepo.DeleteByAccessFingerprint(context.WithoutCancel(ctx), fingerprint)
	if err != nil {
		if errors.Is(err, repository.ErrWhitelistTokenNotFound) {
			// Already logged out. Nothing to revoke is a success for logout.
			srv.log(ctx).Debug("Logout for unknown session")

			return nil
		}

		srv.log(ctx).Error("Failed to delete whitelist token", slog.Any("error", err))

		return errors.Wrap(domainerrors.ErrAuthStoreUnavailable, "failed to revoke session")
	}

	srv.log(ctx).Info("Successfully logged out")

	return nil
}

// LogoutAll revokes every session belonging to the user.
func (srv *authService) LogoutAll(ctx context.Context, userID uuid.UUID) error {
	srv.log(ctx).Info("Revoking all sessions for user", slog.Any("userID", userID))

	if err := srv.whitelistRepo.DeleteByUserID(context.WithoutCancel(ctx), userID); err != nil {
		srv.log(ctx).Error("Failed to revoke all sessions", slog.Any("error", err), slog.Any("userID", userID))

		return errors.Wrap(domainerrors.ErrAuthStoreUnavailable, "failed to revoke sessions")
	}

	return nil
}
