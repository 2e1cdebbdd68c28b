// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"clio/config"
	deliverycontext "clio/internal/delivery/context"
	domainerrors "clio/internal/domain/errors"
	"clio/internal/domain/repository"
	"clio/internal/domain/service"
	"clio/internal/usecase"
	"clio/internal/util"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

const defaultMaxUploadBytes = 5 << 20 // 5 MiB

// allowedImageExtensions lists the accepted profile image file types.
var allowedImageExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// profileService implements the ProfileUsecase interface.
type profileService struct {
	userRepo       repository.UserRepository
	storage        service.FileStorage
	maxUploadBytes int64
	logger         *slog.Logger
}

// ProfileServiceParams holds dependencies for ProfileService, injected by Fx.
type ProfileServiceParams struct {
	fx.In

	UserRepo repository.UserRepository
	Storage  service.FileStorage
	Config   *config.Config
	Logger   *slog.Logger
}

// NewProfileService is the constructor for profileService.
func NewProfileService(params ProfileServiceParams) usecase.ProfileUsecase {
	maxUploadBytes := int64(defaultMaxUploadBytes)
	if params.Config.Storage != nil && params.Config.Storage.MaxUploadBytes > 0 {
		maxUploadBytes = params.Config.Storage.MaxUploadBytes
	}

	return &profileService{
		userRepo:       params.UserRepo,
		storage:        params.Storage,
		maxUploadBytes: maxUploadBytes,
		logger:         params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *profileService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// GetProfile retrieves a user's profile and resolves their image URL.
func (srv *profileService) GetProfile(ctx context.Context, userID uuid.UUID) (*usecase.ProfileOutput, error) {
	user, err := srv.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, errors.Wrap(domainerrors.ErrUserNotFound, "user not found")
		}

		return nil, errors.Wrap(err, "failed to find user")
	}

	output := &usecase.ProfileOutput{User: user}

	if user.ProfileImage != "" {
		url, err := srv.storage.URL(ctx, user.ProfileImage)
		if err != nil {
			// A broken image URL should not make the whole profile unreadable.
			srv.log(ctx).Warn("Failed to resolve profile image URL", slog.Any("userID", userID), slog.Any("error", err))
		} else {
			output.ProfileImageURL = url
		}
	}

	return output, nil
}

// UploadProfileImage validates, stores and links a new profile image. The
// previous image, if any, is removed after the user record points at the new one.
func (srv *profileService) UploadProfileImage(ctx context.Context, input *usecase.UploadProfileImageInput) (*usecase.ProfileOutput, error) {
	srv.log(ctx).Info("Uploading profile image", slog.Any("userID", input.UserID), slog.String("fileName", input.FileName))

	ext := strings.ToLower(path.Ext(input.FileName))
	contentType, ok := allowedImageExtensions[ext]
	if !ok {
		return nil, domainerrors.ErrUnsupportedFileType.WithDetails(fmt.Sprintf("file type %q is not supported", ext))
	}

	if input.Size > srv.maxUploadBytes {
		return nil, domainerrors.ErrFileTooLarge.WithDetails(fmt.Sprintf("file exceeds the %s limit", util.FormatBytes(srv.maxUploadBytes)))
	}

	user, err := srv.userRepo.FindByID(ctx, input.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, errors.Wrap(domainerrors.ErrUserNotFound, "user not found")
		}

		return nil, errors.Wrap(err, "failed to find user")
	}

	key := "users/profile/" + uuid.New().String() + ext

	if err := srv.storage.Save(ctx, key, input.Content, contentType); err != nil {
		srv.log(ctx).Error("Failed to store profile image", slog.Any("error", err))

		return nil, errors.Wrap(domainerrors.ErrStorageFailed, "failed to store profile image")
	}

	previousKey := user.ProfileImage
	user.ProfileImage = key

	if err := srv.userRepo.Update(ctx, user); err != nil {
		// The user record still points at the old image; remove the orphan.
		if cleanupErr := srv.storage.Delete(ctx, key); cleanupErr != nil {
			srv.log(ctx).Warn("Failed to remove orphaned profile image", slog.String("key", key), slog.Any("error", cleanupErr))
		}

		return nil, errors.Wrap(err, "failed to update user profile image")
	}

	if previousKey != "" {
		if err := srv.storage.Delete(ctx, previousKey); err != nil {
			// Best effort: a stale blob is a cost problem, not a correctness one.
			srv.log(ctx).Warn("Failed to delete previous profile image", slog.String("key", previousKey), slog.Any("error", err))
		}
	}

	url, err := srv.storage.URL(ctx, key)
	if err != nil {
		srv.log(ctx).Warn("Failed to resolve profile image URL", slog.Any("error", err))
	}

	srv.log(ctx).Debug("Profile image updated", slog.Any("userID", user.ID), slog.String("key", key))

	return &usecase.ProfileOutput{User: user, ProfileImageURL: url}, nil
}
