package handler

import (
	"log/slog"
	"net/http"

	"clio/internal/delivery/http/middleware"
	"clio/internal/delivery/http/response"
	"clio/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// ProfileHandler holds dependencies for profile handlers.
type ProfileHandler struct {
	uc     usecase.ProfileUsecase
	logger *slog.Logger
}

// NewProfileHandler is the constructor for ProfileHandler, injected by Fx.
func NewProfileHandler(uc usecase.ProfileUsecase, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{
		uc:     uc,
		logger: logger,
	}
}

type profileView struct {
	User            *userView `json:"user"`
	ProfileImageURL string    `json:"profile_image_url,omitempty"`
}

// GetProfile returns the authenticated user's profile.
func (h *ProfileHandler) GetProfile(c echo.Context) error {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}

	output, err := h.uc.GetProfile(c.Request().Context(), user.ID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, &profileView{
		User:            toUserView(output.User),
		ProfileImageURL: output.ProfileImageURL,
	}, "")
}

// UploadProfileImage stores a new profile image for the authenticated user.
func (h *ProfileHandler) UploadProfileImage(c echo.Context) error {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Multipart field 'image' is required")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Failed to read uploaded file")
	}
	defer file.Close()

	output, err := h.uc.UploadProfileImage(c.Request().Context(), &usecase.UploadProfileImageInput{
		UserID:      user.ID,
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get(echo.HeaderContentType),
		Size:        fileHeader.Size,
		Content:     file,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, &profileView{
		User:            toUserView(output.User),
		ProfileImageURL: output.ProfileImageURL,
	}, "Profile image updated")
}
