package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/openstudent/platform/internal/middleware"
)

// dbTimeout bounds every database round trip made from a handler so a stuck
// connection surfaces as a request failure instead of blocking forever.
const dbTimeout = 5 * time.Second

var errNoIdentity = errors.New("no authenticated user in context")

// nowPlusSeconds computes an expiry that far in the future, in UTC, for
// storing alongside hashed action tokens.
func nowPlusSeconds(s int) time.Time {
	return time.Now().UTC().Add(time.Duration(s) * time.Second)
}

// getUserID extracts the authenticated user's id placed in the context by
// SessionAuth.
func getUserID(c echo.Context) (uint64, error) {
	if id, ok := c.Get("user_id").(uint64); ok && id != 0 {
		return id, nil
	}
	return 0, errNoIdentity
}

// clientIP returns the caller's network address for rate-limit keys and
// audit entries.
func clientIP(c echo.Context) string {
	if ip := c.RealIP(); ip != "" {
		return ip
	}
	return "unknown"
}

// setSessionCookie attaches the signed session token as an HTTP-only,
// secure, strict-same-site cookie valid until exp.
func setSessionCookie(c echo.Context, token string, exp time.Time) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  exp,
		MaxAge:   int(time.Until(exp).Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}

// clearSessionCookie expires the session cookie client-side. The token
// itself stays valid until its natural expiry; there is no server-side
// revocation.
func clearSessionCookie(c echo.Context, name string) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}
