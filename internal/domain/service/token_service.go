// Package service defines interfaces for core, stateless domain logic.
// These services encapsulate business rules that don't naturally fit within a single entity.
package service

import (
	"time"

	"clio/internal/domain/entity"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// TokenType marks the class of a minted token. The class is baked into the
// signed claims so an access token can never be replayed as a refresh token
// or vice versa.
type TokenType string

const (
	// TokenTypeAccess marks the short-lived bearer token.
	TokenTypeAccess TokenType = "access"
	// TokenTypeRefresh marks the long-lived rotation token.
	TokenTypeRefresh TokenType = "refresh"
)

// Codec failure modes. The auth service collapses all of them into a single
// Unauthorized outcome at its boundary; they exist so internal logging can
// tell them apart.
var (
	// ErrTokenMalformed is returned when the token structure cannot be decoded.
	ErrTokenMalformed = errors.New("token is malformed")
	// ErrTokenSignatureInvalid is returned when the signature does not verify.
	ErrTokenSignatureInvalid = errors.New("token signature is invalid")
	// ErrTokenExpired is returned when the token is past its expiry, beyond the
	// configured clock-skew leeway.
	ErrTokenExpired = errors.New("token has expired")
)

// Claims defines the custom claims carried by every issued token.
type Claims struct {
	UserID uuid.UUID     `json:"uid"`
	Email  string        `json:"email"`
	Role   entity.Role   `json:"role"`
	Type   TokenType     `json:"type"`
	jwt.RegisteredClaims
}

// TokenService defines the interface for minting and validating signed tokens.
// This abstracts the details of token creation from the use cases.
type TokenService interface {
	// GenerateTokenPair mints an access token and a refresh token carrying the
	// user's identity claims. Each call produces byte-distinct tokens because
	// every token gets a fresh unique ID claim.
	GenerateTokenPair(user *entity.User) (accessToken string, refreshToken string, err error)

	// ValidateToken verifies the signature and expiry of a token string and
	// returns its claims. Only the configured signing algorithm is accepted;
	// the algorithm field inside the token is never trusted.
	ValidateToken(tokenString string) (*Claims, error)

	// Fingerprint computes the deterministic one-way digest of a raw token
	// string, used as its key in the revocation ledger.
	Fingerprint(tokenString string) string

	// AccessTokenDuration returns the configured access token lifetime.
	AccessTokenDuration() time.Duration

	// RefreshTokenDuration returns the configured refresh token lifetime.
	RefreshTokenDuration() time.Duration
}
