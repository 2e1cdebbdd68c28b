// Package handler contains the HTTP handlers for the application.
package handler

import (
	"net/http"
	"time"

	"clio/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// HealthCheck reports liveness.
func HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// userView is the outward-facing representation of a user. Credential fields
// never leave the service.
type userView struct {
	ID              uuid.UUID `json:"id"`
	FirstName       string    `json:"first_name"`
	MiddleName      string    `json:"middle_name,omitempty"`
	LastName        string    `json:"last_name"`
	FullName        string    `json:"full_name"`
	Email           string    `json:"email"`
	MobileNumber    string    `json:"mobile_number,omitempty"`
	Role            string    `json:"role"`
	AccountStatus   string    `json:"account_status"`
	IsEmailVerified bool      `json:"is_email_verified"`
	CreatedAt       time.Time `json:"created_at"`
}

func toUserView(user *entity.User) *userView {
	if user == nil {
		return nil
	}

	return &userView{
		ID:              user.ID,
		FirstName:       user.FirstName,
		MiddleName:      user.MiddleName,
		LastName:        user.LastName,
		FullName:        user.FullName(),
		Email:           user.Email,
		MobileNumber:    user.MobileNumber,
		Role:            user.Role.String(),
		AccountStatus:   user.AccountStatus.String(),
		IsEmailVerified: user.IsEmailVerified,
		CreatedAt:       user.CreatedAt,
	}
}

// clientMetadata captures where the request came from, for session auditing.
func clientMetadata(c echo.Context) entity.ClientMetadata {
	return entity.ClientMetadata{
		BrowserAgent: c.Request().UserAgent(),
		IP:           c.RealIP(),
	}
}
