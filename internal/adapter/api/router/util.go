package router

import (
	"strings"

	"github.com/labstack/echo/v4"

	"livemarket/internal/adapter/api/middleware"
	"livemarket/internal/usecase"
)

// OptionalAuth sets "uid" when a valid Bearer token is present and lets
// anonymous requests through otherwise.
func OptionalAuth(verifier usecase.TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return next(c)
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				return next(c)
			}

			uid, err := verifier.VerifyToken(c.Request().Context(), parts[1])
			if err != nil {
				return next(c)
			}

			c.Set(middleware.ContextUserID, uid)
			return next(c)
		}
	}
}
