package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clintrack/trial-registry/internal/core/domain"
	"github.com/clintrack/trial-registry/internal/core/ports"
)

// ctxActor extracts the caller identity injected by the Auth middleware
// and performs a fast-fail check before any service call: both the user
// id and a parseable role must be present, which proves the middleware
// ran and the token carried a complete identity.
func ctxActor(c echo.Context) (ports.Actor, error) {
	userID, _ := c.Get("user_id").(string)
	rawRole, _ := c.Get("role").(string)

	role, ok := domain.ParseRole(rawRole)
	if userID == "" || !ok {
		return ports.Actor{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}

	return ports.Actor{ID: userID, Role: role}, nil
}
