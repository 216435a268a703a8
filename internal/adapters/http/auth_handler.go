package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/remindly/core/internal/infrastructure/logger"
	"github.com/remindly/core/internal/ports"
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	authService ports.AuthService
	logger      *logger.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService ports.AuthService, logger *logger.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// Signup godoc
// @Summary Register a new account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body ports.RegisterRequest true "Account data"
// @Success 201 {object} ports.AuthResponse
// @Failure 400 {object} ports.ErrorResponse
// @Failure 409 {object} ports.ErrorResponse
// @Router /api/auth/signup [post]
func (h *AuthHandler) Signup(c echo.Context) error {
	var req ports.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return MapError(err)
	}

	resp, err := h.authService.Register(c.Request().Context(), req)
	if err != nil {
		return MapError(err)
	}

	return c.JSON(http.StatusCreated, resp)
}

// Login godoc
// @Summary Log in with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body ports.LoginRequest true "Credentials"
// @Success 200 {object} ports.AuthResponse
// @Failure 400 {object} ports.ErrorResponse
// @Failure 401 {object} ports.ErrorResponse
// @Router /api/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req ports.LoginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return MapError(err)
	}

	resp, err := h.authService.Login(c.Request().Context(), req)
	if err != nil {
		h.logger.LogSecurityEvent("login_failed", "", c.RealIP(), nil)
		return MapError(err)
	}

	return c.JSON(http.StatusOK, resp)
}

// CheckUsername godoc
// @Summary Check whether a username is free
// @Tags auth
// @Accept json
// @Produce json
// @Param request body ports.CheckUsernameRequest true "Username"
// @Success 200 {object} ports.AvailabilityResponse
// @Failure 400 {object} ports.ErrorResponse
// @Router /api/auth/check-username [post]
func (h *AuthHandler) CheckUsername(c echo.Context) error {
	var req ports.CheckUsernameRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("Invalid request format")
	}

	resp, err := h.authService.CheckUsername(c.Request().Context(), req.Username)
	if err != nil {
		return MapError(err)
	}

	return c.JSON(http.StatusOK, resp)
}

// CheckEmail godoc
// @Summary Check whether an email is free
// @Tags auth
// @Accept json
// @Produce json
// @Param request body ports.CheckEmailRequest true "Email"
// @Success 200 {object} ports.AvailabilityResponse
// @Failure 400 {object} ports.ErrorResponse
// @Router /api/auth/check-email [post]
func (h *AuthHandler) CheckEmail(c echo.Context) error {
	var req ports.CheckEmailRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("Invalid request format")
	}

	resp, err := h.authService.CheckEmail(c.Request().Context(), req.Email)
	if err != nil {
		return MapError(err)
	}

	return c.JSON(http.StatusOK, resp)
}
