package http

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// userContextKey holds the verified user id set by the auth middleware
const userContextKey = "user"

// SetUserID stores the verified user id on the request context
func SetUserID(c echo.Context, id uuid.UUID) {
	c.Set(userContextKey, id)
}

// UserID returns the verified user id, or 401 when the route was not authenticated
func UserID(c echo.Context) (uuid.UUID, error) {
	id, ok := c.Get(userContextKey).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
	}
	return id, nil
}

func parseListID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, badRequest("Invalid task list ID")
	}
	return id, nil
}
