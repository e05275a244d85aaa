package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/openstudent/platform/internal/audit"
	"github.com/openstudent/platform/internal/config"
	"github.com/openstudent/platform/internal/model"
	"github.com/openstudent/platform/internal/utils"
)

// AdminHandler covers the back-office login and the audit trail view.
// Admin rights are carried exclusively by the signed role claim in the
// session token; the admin_authenticated cookie is set for the front end
// but no server path ever reads it.
type AdminHandler struct {
	Cfg   config.Config
	Trail *audit.Log
}

func NewAdminHandler(cfg config.Config, trail *audit.Log) *AdminHandler {
	return &AdminHandler{Cfg: cfg, Trail: trail}
}

// Login authenticates the single configured back-office admin. The account
// lives in the environment, not in the users table, so its id in claims is
// zero.
func (h *AdminHandler) Login(c echo.Context) error {
	ip := clientIP(c)
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and password are required"})
	}

	if h.Cfg.AdminEmail == "" || h.Cfg.AdminPasswordHash == "" {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "Admin login is not configured"})
	}
	if req.Email != strings.ToLower(h.Cfg.AdminEmail) ||
		!utils.VerifyPassword(h.Cfg.AdminPasswordHash, req.Password) {
		h.Trail.Record(audit.Entry{Action: "ADMIN_LOGIN", Resource: "auth",
			Outcome: audit.Failure, SourceAddr: ip})
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": invalidCredentials})
	}

	tok, err := utils.IssueSession(h.Cfg.JWTSecret, 0, req.Email, model.RoleAdmin, h.Cfg.SessionTTLDays)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Login failed. Please try again."})
	}
	setSessionCookie(c, tok.Token, tok.Exp)
	c.SetCookie(&http.Cookie{
		Name:     "admin_authenticated",
		Value:    "true",
		Path:     "/",
		Expires:  tok.Exp,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})

	h.Trail.Record(audit.Entry{Action: "ADMIN_LOGIN", Resource: "auth",
		Outcome: audit.Success, SourceAddr: ip})
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// AuditTrail returns recorded entries, optionally filtered by query
// parameters actor_id, action, outcome, from and to (RFC 3339).
func (h *AdminHandler) AuditTrail(c echo.Context) error {
	var f audit.Filter
	if v := c.QueryParam("actor_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid actor_id"})
		}
		f.ActorID = id
	}
	f.Action = c.QueryParam("action")
	f.Outcome = c.QueryParam("outcome")
	if v := c.QueryParam("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid from timestamp"})
		}
		f.From = t
	}
	if v := c.QueryParam("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid to timestamp"})
		}
		f.To = t
	}

	entries := h.Trail.Query(f)
	return c.JSON(http.StatusOK, echo.Map{"entries": entries, "count": len(entries)})
}
