package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/band-manager/internal/utils"
)

// JWTAuth returns an Echo middleware that validates a Bearer access token and
// stores the authenticated user id (uint64) under "user_id".  The secret
// must match the one used when issuing tokens.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			uid, err := utils.ParseAccessToken(secret, strings.TrimSpace(strings.TrimPrefix(auth, "Bearer ")))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			c.Set("user_id", uid)
			return next(c)
		}
	}
}

// OptionalJWT behaves like JWTAuth when a bearer token is present and lets
// anonymous requests through untouched.  A malformed token is still rejected.
func OptionalJWT(secret string) echo.MiddlewareFunc {
	strict := JWTAuth(secret)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		guarded := strict(next)
		return func(c echo.Context) error {
			if c.Request().Header.Get("Authorization") == "" {
				return next(c)
			}
			return guarded(c)
		}
	}
}
