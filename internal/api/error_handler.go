package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clintrack/trial-registry/internal/api/metrics"
	"github.com/clintrack/trial-registry/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
// Details carries the full list of violated rules on validation failures.
type errorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Renders every violated rule on validation failures.
//   - Logs unexpected errors internally; their detail reaches the client
//     only in development mode.
func NewHTTPErrorHandler(log zerolog.Logger, development bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, resp := resolveError(err, log, c, development)
		_ = c.JSON(code, resp)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context, development bool) (int, errorResponse) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, errorResponse{Error: fmt.Sprintf("%v", he.Message)}
	}

	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		metrics.ValidationRejectionsTotal.Inc()
		return http.StatusBadRequest, errorResponse{Error: "validation failed", Details: ve.Violations}
	}

	// Known domain errors → deterministic HTTP codes. Conflict-class
	// failures render as 400 per the API contract.
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, errorResponse{Error: "invalid credentials"}
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, errorResponse{Error: err.Error()}
	case errors.Is(err, domain.ErrTrialNotFound):
		return http.StatusNotFound, errorResponse{Error: "trial not found"}
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, errorResponse{Error: "user not found"}
	case errors.Is(err, domain.ErrUserExists):
		return http.StatusBadRequest, errorResponse{Error: "username or email already in use"}
	case errors.Is(err, domain.ErrDuplicateTrialID):
		return http.StatusBadRequest, errorResponse{Error: "trial id already in use"}
	case errors.Is(err, domain.ErrInvalidID):
		return http.StatusBadRequest, errorResponse{Error: "invalid identifier"}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	msg := "internal server error"
	if development {
		msg = err.Error()
	}
	return http.StatusInternalServerError, errorResponse{Error: msg}
}
