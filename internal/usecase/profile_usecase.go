// Package usecase contains the application-specific business rules.
package usecase

import (
	"context"
	"io"

	"clio/internal/domain/entity"

	"github.com/google/uuid"
)

// UploadProfileImageInput carries an uploaded image and its declared metadata.
type UploadProfileImageInput struct {
	UserID      uuid.UUID
	FileName    string
	ContentType string
	Size        int64
	Content     io.Reader
}

// ProfileOutput returns a user together with the resolved public URL of their
// profile image, when one is set.
type ProfileOutput struct {
	User            *entity.User
	ProfileImageURL string
}

// ProfileUsecase defines the interface for profile-related operations.
type ProfileUsecase interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*ProfileOutput, error)
	UploadProfileImage(ctx context.Context, input *UploadProfileImageInput) (*ProfileOutput, error)
}
