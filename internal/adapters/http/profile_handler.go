package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/remindly/core/internal/domain/entities"
	"github.com/remindly/core/internal/infrastructure/logger"
	"github.com/remindly/core/internal/ports"
)

// avatarField is the multipart field carrying the avatar file
const avatarField = "image"

// ProfileHandler handles the signed-in user's profile
type ProfileHandler struct {
	service ports.ProfileService
	logger  *logger.Logger
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(service ports.ProfileService, logger *logger.Logger) *ProfileHandler {
	return &ProfileHandler{
		service: service,
		logger:  logger,
	}
}

// GetProfile godoc
// @Summary Get the caller's profile
// @Tags profile
// @Produce json
// @Success 200 {object} ports.ProfileResponse
// @Failure 404 {object} ports.ErrorResponse
// @Security BearerAuth
// @Router /api/profile [get]
func (h *ProfileHandler) GetProfile(c echo.Context) error {
	userID, err := UserID(c)
	if err != nil {
		return err
	}

	profile, err := h.service.GetProfile(c.Request().Context(), userID)
	if err != nil {
		return MapError(err)
	}

	return c.JSON(http.StatusOK, profile)
}

// UpdateUsername godoc
// @Summary Change the caller's username
// @Tags profile
// @Accept json
// @Produce json
// @Param request body ports.UpdateUsernameRequest true "New username"
// @Success 200 {object} ports.UpdateUsernameResponse
// @Failure 400 {object} ports.ErrorResponse
// @Failure 409 {object} ports.ErrorResponse
// @Security BearerAuth
// @Router /api/profile/username [put]
func (h *ProfileHandler) UpdateUsername(c echo.Context) error {
	userID, err := UserID(c)
	if err != nil {
		return err
	}

	var req ports.UpdateUsernameRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("Invalid request format")
	}

	username, err := h.service.UpdateUsername(c.Request().Context(), userID, req.Username)
	if err != nil {
		return MapError(err)
	}

	return c.JSON(http.StatusOK, ports.UpdateUsernameResponse{
		Message:  "Username updated successfully",
		Username: username,
	})
}

// UploadAvatar godoc
// @Summary Replace the caller's avatar
// @Tags profile
// @Accept multipart/form-data
// @Produce json
// @Param image formData file true "Avatar image"
// @Success 200 {object} ports.AvatarResponse
// @Failure 400 {object} ports.ErrorResponse
// @Security BearerAuth
// @Router /api/profile/uploads/avatars [put]
func (h *ProfileHandler) UploadAvatar(c echo.Context) error {
	userID, err := UserID(c)
	if err != nil {
		return err
	}

	fh, err := c.FormFile(avatarField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return MapError(entities.NewValidationError("no image uploaded").WithField(avatarField, "is required"))
		}
		return badRequest("Invalid multipart form")
	}

	file, err := fh.Open()
	if err != nil {
		return MapError(fmt.Errorf("open upload: %w", err))
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return MapError(fmt.Errorf("read upload: %w", err))
	}

	path, err := h.service.UploadAvatar(c.Request().Context(), userID, data, fh.Filename)
	if err != nil {
		return MapError(err)
	}

	return c.JSON(http.StatusOK, ports.AvatarResponse{
		Message: "Avatar uploaded successfully",
		Avatar:  path,
	})
}
