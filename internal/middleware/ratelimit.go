package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/openstudent/platform/internal/audit"
	"github.com/openstudent/platform/internal/config"
	"github.com/openstudent/platform/internal/ratelimit"
)

// RateLimit guards one action with a per-source window limit. The key is the
// action name plus the caller's network address, so one abusive source
// cannot lock everyone out. Blocked attempts are recorded in the audit trail
// and answered with a fixed 429 message.
func RateLimit(l ratelimit.Limiter, trail *audit.Log, action string, wl config.WindowLimit) echo.MiddlewareFunc {
	if l == nil || wl.Limit <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error { return next(c) }
		}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()
			if ip == "" {
				ip = "unknown"
			}
			if !l.Allow(c.Request().Context(), action+":"+ip, wl.Limit, wl.Window) {
				if trail != nil {
					trail.Record(audit.Entry{
						Action:     action,
						Resource:   "rate-limit",
						Outcome:    audit.Failure,
						Detail:     "rate limit exceeded",
						SourceAddr: ip,
					})
				}
				return c.JSON(http.StatusTooManyRequests, echo.Map{
					"error": "too many requests, please try again later",
				})
			}
			return next(c)
		}
	}
}
