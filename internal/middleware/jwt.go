package middleware // reusable HTTP middleware shared by all route groups

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/openstudent/platform/internal/utils"
)

// SessionCookie is the cookie carrying the signed session token.
const SessionCookie = "auth_token"

// SessionAuth returns an Echo middleware that validates the session token and
// injects the caller's identity into the request context. The token is read
// from the auth_token cookie or, failing that, from an Authorization bearer
// header so API clients without a cookie jar can still authenticate. The
// provided secret must match the one used when issuing tokens. Handlers
// downstream read the identity via c.Get("user_id"), c.Get("email") and
// c.Get("role").
func SessionAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := ""
			if cookie, err := c.Cookie(SessionCookie); err == nil && cookie.Value != "" {
				raw = cookie.Value
			} else if auth := c.Request().Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
				raw = strings.TrimPrefix(auth, "Bearer ")
			}
			if raw == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
			}
			claims := utils.VerifySession(secret, raw)
			if claims == nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired session"})
			}
			c.Set("user_id", claims.UserID)
			c.Set("email", claims.Email)
			c.Set("role", claims.Role)
			return next(c)
		}
	}
}
