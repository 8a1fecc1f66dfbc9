package middleware

import (
	"net/http"
	"strings"

	"girvi-backend/internal/auth"

	"github.com/labstack/echo/v4"
)

const (
	// context keys set on authenticated requests
	CtxUserID = "user_id"
	CtxClaims = "claims"
)

// SessionGuard gates every route behind a valid bearer token: no valid
// session, no data.
func SessionGuard(mgr *auth.JWTManager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing authorization header"})
			}
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "authorization must be a bearer token"})
			}

			claims, err := mgr.ValidateToken(strings.TrimSpace(token))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid or expired session"})
			}

			c.Set(CtxUserID, claims.UserID)
			c.Set(CtxClaims, claims)
			return next(c)
		}
	}
}
