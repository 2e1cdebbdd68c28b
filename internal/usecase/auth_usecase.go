// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"

	"clio/internal/domain/entity"

	"github.com/google/uuid"
)

// --- Input DTOs ---

// RegisterUserInput defines the data required to register a new user.
type RegisterUserInput struct {
	FirstName    string
	MiddleName   string
	LastName     string
	Email        string
	MobileNumber string
	Password     string
}

// LoginInput defines the data required for a user to log in. Metadata records
// where the session is being established from and is stored on the session.
type LoginInput struct {
	Email    string
	Password string
	Metadata entity.ClientMetadata
}

// RefreshInput carries the refresh token presented for session rotation.
type RefreshInput struct {
	RefreshToken string
	Metadata     entity.ClientMetadata
}

// LogoutInput carries the access token of the session being ended.
type LogoutInput struct {
	AccessToken string
}

// --- Output DTOs ---

// RegisterOutput returns the newly created user's basic information.
type RegisterOutput struct {
	User *entity.User
}

// LoginOutput returns the generated tokens after a successful login.
type LoginOutput struct {
	AccessToken  string
	RefreshToken string
	User         *entity.User
}

// RefreshOutput returns the replacement token pair. The pair presented for
// refresh is revoked in the same operation; only the new pair is live.
type RefreshOutput struct {
	AccessToken  string
	RefreshToken string
	User         *entity.User
}

// AuthUsecase defines the interface for authentication business operations.
// This is the contract that the delivery layer (e.g., API handlers) will depend on.
type AuthUsecase interface {
	RegisterUser(ctx context.Context, input *RegisterUserInput) (*RegisterOutput, error)
	Login(ctx context.Context, input *LoginInput) (*LoginOutput, error)

	// VerifyAccess authenticates a bearer access token: signature, expiry and
	// whitelist membership are all checked on every call, so a revoked session
	// fails immediately no matter how much lifetime the token has left.
	VerifyAccess(ctx context.Context, accessToken string) (*entity.User, error)

	// RefreshSession exchanges a valid refresh token for a brand new pair and
	// revokes the old session record.
	RefreshSession(ctx context.Context, input *RefreshInput) (*RefreshOutput, error)

	// Logout revokes the session owning the presented access token.
	Logout(ctx context.Context, input *LogoutInput) error

	// LogoutAll revokes every session belonging to the user.
	LogoutAll(ctx context.Context, userID uuid.UUID) error
}
