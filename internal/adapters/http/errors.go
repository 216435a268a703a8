package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/remindly/core/internal/domain/entities"
	"github.com/remindly/core/internal/ports"
)

const internalErrorMessage = "Internal server error"

// MapError converts a service error into an HTTP error. The original error is kept as
// Internal so the error handler can log it; clients only see the mapped message.
func MapError(err error) *echo.HTTPError {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}

	var ve *entities.ValidationError
	if errors.As(err, &ve) {
		return newError(http.StatusBadRequest, ve.Message, ve.Fields, err)
	}

	switch {
	case errors.Is(err, entities.ErrInvalidCredentials):
		return newError(http.StatusUnauthorized, "Invalid credentials", nil, err)
	case errors.Is(err, entities.ErrUnauthorized):
		return newError(http.StatusUnauthorized, "Invalid or expired token", nil, err)
	case errors.Is(err, entities.ErrForbidden):
		return newError(http.StatusForbidden, "You do not have access to this task list", nil, err)
	case errors.Is(err, entities.ErrTaskListNotFound):
		return newError(http.StatusNotFound, "Task list not found", nil, err)
	case errors.Is(err, entities.ErrUserNotFound):
		return newError(http.StatusNotFound, "User not found", nil, err)
	case errors.Is(err, entities.ErrBlobNotFound):
		return newError(http.StatusNotFound, "File not found", nil, err)
	case errors.Is(err, entities.ErrUsernameTaken):
		return newError(http.StatusConflict, "Username is already taken", nil, err)
	case errors.Is(err, entities.ErrEmailTaken):
		return newError(http.StatusConflict, "Email is already registered", nil, err)
	}

	return newError(http.StatusInternalServerError, internalErrorMessage, nil, err)
}

func newError(code int, message string, details map[string]string, internal error) *echo.HTTPError {
	he := echo.NewHTTPError(code, ports.ErrorResponse{Message: message, Details: details})
	return he.SetInternal(internal)
}

func badRequest(message string) *echo.HTTPError {
	return echo.NewHTTPError(http.StatusBadRequest, ports.ErrorResponse{Message: message})
}

// ErrorBody renders any HTTPError message as the common error body
func ErrorBody(he *echo.HTTPError) ports.ErrorResponse {
	switch m := he.Message.(type) {
	case ports.ErrorResponse:
		return m
	case string:
		return ports.ErrorResponse{Message: m}
	case error:
		return ports.ErrorResponse{Message: m.Error()}
	}
	return ports.ErrorResponse{Message: http.StatusText(he.Code)}
}
