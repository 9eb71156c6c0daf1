package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "trial_session"

// RevocationChecker answers whether a session token has been logged out.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Auth validates the session token (cookie or bearer header), rejects
// revoked sessions and injects the caller identity into the context.
func Auth(jwtSecret string, sessions RevocationChecker, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := extractToken(c)
			if token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}

			claims, err := parseClaims(token, jwtSecret)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid session")
			}

			if revoked := checkRevoked(c, claims, sessions, log); revoked {
				return echo.NewHTTPError(http.StatusUnauthorized, "session expired")
			}

			applyClaims(c, claims)
			return next(c)
		}
	}
}

// OptionalAuth injects the caller identity when a valid session is present
// and lets the request through anonymously otherwise. Used by /auth/check.
func OptionalAuth(jwtSecret string, sessions RevocationChecker, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := extractToken(c)
			if token == "" {
				return next(c)
			}
			claims, err := parseClaims(token, jwtSecret)
			if err != nil {
				return next(c)
			}
			if revoked := checkRevoked(c, claims, sessions, log); revoked {
				return next(c)
			}
			applyClaims(c, claims)
			return next(c)
		}
	}
}

func extractToken(c echo.Context) string {
	if cookie, err := c.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}

func parseClaims(token, jwtSecret string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(jwtSecret), nil
	})
	if err != nil || !tkn.Valid {
		return nil, jwt.ErrTokenUnverifiable
	}
	return claims, nil
}

// checkRevoked consults the revocation store. When the store is
// unreachable the request proceeds; sessions still expire on their own.
func checkRevoked(c echo.Context, claims jwt.MapClaims, sessions RevocationChecker, log zerolog.Logger) bool {
	tokenID, _ := claims["jti"].(string)
	if sessions == nil || tokenID == "" {
		return false
	}
	revoked, err := sessions.IsRevoked(c.Request().Context(), tokenID)
	if err != nil {
		log.Warn().Err(err).Msg("session revocation check failed, accepting token")
		return false
	}
	return revoked
}

func applyClaims(c echo.Context, claims jwt.MapClaims) {
	c.Set("user_id", claims["sub"])
	c.Set("username", claims["username"])
	c.Set("role", claims["role"])
	c.Set("token_id", claims["jti"])
	if exp, ok := claims["exp"].(float64); ok {
		c.Set("token_expires", time.Unix(int64(exp), 0))
	}
}
