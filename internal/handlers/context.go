package handlers

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/openfeedhq/feedengine/internal/models"
)

// getUserIDFromContext extracts the authenticated user id from JWT claims.
// Returns 0 for anonymous requests.
func getUserIDFromContext(c echo.Context) uint {
	claims, ok := c.Get("user").(*models.JwtCustomClaims)
	if !ok {
		return 0
	}
	return claims.UserID
}

// getLimit parses the ?limit= query param with a default and cap.
func getLimit(c echo.Context, def, max int) int {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 || limit > max {
		return def
	}
	return limit
}
