package auth

import (
	"unicode"

	"clio/config"
	domainerrors "clio/internal/domain/errors"
	"clio/internal/domain/service"

	"golang.org/x/crypto/bcrypt"
)

const (
	defaultMinPasswordLength = 8
	// bcrypt silently truncates input beyond 72 bytes, so longer passwords
	// are rejected up front instead of being accepted with dead tail bytes.
	maxPasswordLength = 72
)

// bcryptHasher is a concrete implementation of the PasswordHasher interface using the bcrypt algorithm.
type bcryptHasher struct {
	cost     int
	strength config.PasswordStrengthConfig
}

// NewBcryptHasher is the constructor for bcryptHasher.
func NewBcryptHasher(cfg *config.Config) service.PasswordHasher {
	cost := bcrypt.DefaultCost
	if cfg.Auth != nil && cfg.Auth.BcryptCost >= bcrypt.MinCost && cfg.Auth.BcryptCost <= bcrypt.MaxCost {
		cost = cfg.Auth.BcryptCost
	}

	strength := config.PasswordStrengthConfig{MinLength: defaultMinPasswordLength}
	if cfg.PasswordStrength != nil {
		strength = *cfg.PasswordStrength
	}
	if strength.MinLength <= 0 {
		strength.MinLength = defaultMinPasswordLength
	}
	if strength.MaxLength <= 0 || strength.MaxLength > maxPasswordLength {
		strength.MaxLength = maxPasswordLength
	}

	return &bcryptHasher{cost: cost, strength: strength}
}

// Hash generates a bcrypt hash from a plaintext password.
func (h *bcryptHasher) Hash(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}

	return string(bytes), nil
}

// Check compares a plaintext password with a bcrypt hash.
// It returns true only if they match.
func (h *bcryptHasher) Check(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))

	return err == nil
}

// ValidatePasswordStrength checks a plaintext password against the configured
// strength policy. The returned errors carry user-facing messages.
func (h *bcryptHasher) ValidatePasswordStrength(password string) error {
	if len(password) < h.strength.MinLength {
		return domainerrors.ErrPasswordStrength.WithDetails("password is too short")
	}
	if len(password) > h.strength.MaxLength {
		return domainerrors.ErrPasswordStrength.WithDetails("password is too long")
	}

	var hasUpper, hasLower, hasNumber bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsNumber(r):
			hasNumber = true
		}
	}

	if h.strength.RequireUppercase && !hasUpper {
		return domainerrors.ErrPasswordStrength.WithDetails("password must contain an uppercase letter")
	}
	if h.strength.RequireLowercase && !hasLower {
		return domainerrors.ErrPasswordStrength.WithDetails("password must contain a lowercase letter")
	}
	if h.strength.RequireNumbers && !hasNumber {
		return domainerrors.ErrPasswordStrength.WithDetails("password must contain a number")
	}

	return nil
}
