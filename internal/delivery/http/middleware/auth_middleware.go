// Package middleware contains HTTP middleware for the delivery layer.
package middleware

import (
	"net/http"
	"strings"

	"clio/internal/domain/entity"
	domainerrors "clio/internal/domain/errors"
	"clio/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// Context keys for authenticated request state.
const (
	// ContextKeyUser holds the resolved *entity.User.
	ContextKeyUser = "auth_user"
	// ContextKeyAccessToken holds the raw bearer token of the request, so
	// handlers like logout can address their own session.
	ContextKeyAccessToken = "auth_access_token"
)

// AuthMiddleware authenticates requests through the auth usecase. Every
// request hits the whitelist ledger: there is no verification cache, so a
// revoked session is rejected on its very next request.
type AuthMiddleware struct {
	authUsecase usecase.AuthUsecase
}

// NewAuthMiddleware is the constructor for AuthMiddleware.
func NewAuthMiddleware(authUsecase usecase.AuthUsecase) *AuthMiddleware {
	return &AuthMiddleware{authUsecase: authUsecase}
}

// Authenticate validates the bearer token and resolves the requesting user.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
		if authHeader == "" {
			return errors.Wrap(domainerrors.ErrUnauthorized, "authorization header is missing")
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			return errors.Wrap(domainerrors.ErrUnauthorized, "authorization header must carry a bearer token")
		}

		user, err := m.authUsecase.VerifyAccess(c.Request().Context(), tokenString)
		if err != nil {
			return err
		}

		c.Set(ContextKeyUser, user)
		c.Set(ContextKeyAccessToken, tokenString)

		return next(c)
	}
}

// RequireRole is a middleware factory that checks if the user has a specific role.
// It must be used AFTER the Authenticate middleware.
func (m *AuthMiddleware) RequireRole(requiredRole entity.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, ok := c.Get(ContextKeyUser).(*entity.User)
			if !ok {
				return errors.Wrap(domainerrors.ErrForbidden, "role information missing")
			}

			if user.Role != requiredRole {
				return errors.Wrapf(domainerrors.ErrForbidden, "requires %q role", requiredRole)
			}

			return next(c)
		}
	}
}

// CurrentUser extracts the authenticated user set by Authenticate.
func CurrentUser(c echo.Context) (*entity.User, error) {
	user, ok := c.Get(ContextKeyUser).(*entity.User)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	return user, nil
}

// CurrentAccessToken extracts the raw bearer token set by Authenticate.
func CurrentAccessToken(c echo.Context) string {
	token, _ := c.Get(ContextKeyAccessToken).(string)

	return token
}
