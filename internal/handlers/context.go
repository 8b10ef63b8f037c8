package handlers

import (
	"net/http"

	"github.com/anonto42/socialpulse/backend/internal/middleware"
	"github.com/labstack/echo/v4"
)

// getUserIDFromContext returns the id set by the auth middleware, or 0
func getUserIDFromContext(c echo.Context) uint {
	userID, _ := c.Get(middleware.UserIDKey).(uint)
	return userID
}

func requireUser(c echo.Context) (uint, error) {
	userID := getUserIDFromContext(c)
	if userID == 0 {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	return userID, nil
}

func success(c echo.Context, status int, data any) error {
	return c.JSON(status, echo.Map{"success": true, "data": data})
}
