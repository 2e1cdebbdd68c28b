package handler

import (
	"log/slog"
	"net/http"
	"time"

	"clio/internal/delivery/http/middleware"
	"clio/internal/delivery/http/response"
	"clio/internal/domain/entity"
	"clio/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// SessionHandler holds dependencies for session management handlers.
type SessionHandler struct {
	uc     usecase.SessionUsecase
	logger *slog.Logger
}

// NewSessionHandler is the constructor for SessionHandler, injected by Fx.
func NewSessionHandler(uc usecase.SessionUsecase, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		uc:     uc,
		logger: logger,
	}
}

type sessionView struct {
	ID           uuid.UUID `json:"id"`
	BrowserAgent string    `json:"browser_agent,omitempty"`
	IP           string    `json:"ip,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
	IsActive     bool      `json:"is_active"`
	Current      bool      `json:"current"`
}

func toSessionView(session *entity.SessionInfo) *sessionView {
	return &sessionView{
		ID:           session.ID,
		BrowserAgent: session.Metadata.BrowserAgent,
		IP:           session.Metadata.IP,
		CreatedAt:    session.CreatedAt,
		ExpiresAt:    session.ExpiresAt,
		IsActive:     session.IsActive,
		Current:      session.Current,
	}
}

// ListSessions returns the authenticated user's sessions.
func (h *SessionHandler) ListSessions(c echo.Context) error {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}

	sessions, err := h.uc.GetActiveSessions(c.Request().Context(), user.ID, middleware.CurrentAccessToken(c))
	if err != nil {
		return errors.WithStack(err)
	}

	views := make([]*sessionView, 0, len(sessions))
	for _, session := range sessions {
		views = append(views, toSessionView(session))
	}

	return response.Success(c, http.StatusOK, views, "")
}

// RevokeSession revokes one of the authenticated user's sessions.
func (h *SessionHandler) RevokeSession(c echo.Context) error {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}

	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return response.BadRequest(c, "INVALID_SESSION_ID", "Session ID must be a UUID")
	}

	if err := h.uc.RevokeSession(c.Request().Context(), user.ID, sessionID); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "Session revoked")
}

// AdminRevokeUserSessions force-revokes every session of the given user. It is
// the security-response path: a compromised account is locked out everywhere
// at once, effective on the victim's very next request.
func (h *SessionHandler) AdminRevokeUserSessions(c echo.Context) error {
	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return response.BadRequest(c, "INVALID_USER_ID", "User ID must be a UUID")
	}

	if err := h.uc.RevokeAllSessions(c.Request().Context(), targetID); err != nil {
		return errors.WithStack(err)
	}

	h.logger.Info("Admin revoked all sessions", slog.Any("target_user_id", targetID))

	return response.Success(c, http.StatusOK, nil, "All sessions revoked for user")
}

// RevokeOtherSessions revokes all of the user's sessions except the one the
// request's bearer token belongs to.
func (h *SessionHandler) RevokeOtherSessions(c echo.Context) error {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}

	if err := h.uc.RevokeAllOtherSessions(c.Request().Context(), user.ID, middleware.CurrentAccessToken(c)); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "Other sessions revoked")
}
