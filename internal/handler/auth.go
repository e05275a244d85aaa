package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/openstudent/platform/internal/audit"
	"github.com/openstudent/platform/internal/config"
	"github.com/openstudent/platform/internal/mailer"
	"github.com/openstudent/platform/internal/model"
	"github.com/openstudent/platform/internal/repository"
	"github.com/openstudent/platform/internal/utils"
)

// Token lifetimes for the email-driven flows.
const (
	verifyTokenTTL = 24 * 60 * 60 // seconds; 24 hours
	resetTokenTTL  = 60 * 60      // seconds; 1 hour
)

// invalidCredentials is the uniform message for every failed login. It never
// discloses whether the email exists.
const invalidCredentials = "Invalid email or password"

// AuthHandler bundles dependencies for signup, login, logout, email
// verification and password reset.
type AuthHandler struct {
	Cfg   config.Config
	Users *repository.UserRepo
	Trail *audit.Log
	Mail  mailer.Mailer
}

func NewAuthHandler(cfg config.Config, users *repository.UserRepo, trail *audit.Log, mail mailer.Mailer) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: users, Trail: trail, Mail: mail}
}

// ----- DTOs -----

type signupReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
	Phone    string `json:"phone"`
	Age      int    `json:"age"`
	Country  string `json:"country"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type emailReq struct {
	Email string `json:"email"`
}

type verifyEmailReq struct {
	Token string `json:"token"`
}

type resetPasswordReq struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// Signup creates the account, issues a session immediately (verification is
// encouraged but not gating) and reports 201 with the session cookie set.
func (h *AuthHandler) Signup(c echo.Context) error {
	ip := clientIP(c)
	var req signupReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if err := utils.ValidateEmail(req.Email); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if err := utils.ValidatePassword(req.Password); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if err := utils.ValidateString(req.FullName, "Full name", 2, 100); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if req.Phone != "" {
		if err := utils.ValidatePhone(req.Phone); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
	}
	if req.Age != 0 && (req.Age < 10 || req.Age > 120) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Please provide a valid age"})
	}
	if req.Country != "" {
		if err := utils.ValidateString(req.Country, "Country", 2, 100); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	uid, err := h.Users.Create(ctx, repository.NewUserParams{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
		Phone:    req.Phone,
		Age:      req.Age,
		Country:  req.Country,
		Role:     model.RoleStudent,
	}, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			h.Trail.Record(audit.Entry{Action: "SIGNUP", Resource: "auth", Outcome: audit.Failure,
				Detail: "email already registered", SourceAddr: ip})
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Email already registered"})
		}
		h.Trail.Record(audit.Entry{Action: "SIGNUP", Resource: "auth", Outcome: audit.Failure,
			Detail: "create failed", SourceAddr: ip})
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Signup failed. Please try again."})
	}

	tok, err := utils.IssueSession(h.Cfg.JWTSecret, uid, req.Email, model.RoleStudent, h.Cfg.SessionTTLDays)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Signup failed. Please try again."})
	}
	setSessionCookie(c, tok.Token, tok.Exp)

	h.Trail.Record(audit.Entry{ActorID: uid, Action: "SIGNUP", Resource: "auth",
		Outcome: audit.Success, SourceAddr: ip})
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "user_id": uid})
}

// Login authenticates and sets a fresh session cookie. Failures share one
// generic message regardless of whether the email exists.
func (h *AuthHandler) Login(c echo.Context) error {
	ip := clientIP(c)
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and password are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.Trail.Record(audit.Entry{Action: "LOGIN", Resource: "auth", Outcome: audit.Failure,
				Detail: "unknown email", SourceAddr: ip})
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": invalidCredentials})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Login failed. Please try again."})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		h.Trail.Record(audit.Entry{ActorID: u.ID, Action: "LOGIN", Resource: "auth",
			Outcome: audit.Failure, Detail: "bad password", SourceAddr: ip})
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": invalidCredentials})
	}

	tok, err := utils.IssueSession(h.Cfg.JWTSecret, u.ID, u.Email, u.Role, h.Cfg.SessionTTLDays)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Login failed. Please try again."})
	}
	setSessionCookie(c, tok.Token, tok.Exp)

	h.Trail.Record(audit.Entry{ActorID: u.ID, Action: "LOGIN", Resource: "auth",
		Outcome: audit.Success, SourceAddr: ip})
	return c.JSON(http.StatusOK, echo.Map{"success": true, "user_id": u.ID})
}

// Logout clears the session cookie. Sessions are stateless so nothing is
// invalidated server-side; a copied token keeps working until expiry.
func (h *AuthHandler) Logout(c echo.Context) error {
	clearSessionCookie(c, "auth_token")
	clearSessionCookie(c, "admin_authenticated")
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// ForgotPassword issues a reset token and mails a link. The response is the
// same whether or not the email exists, so accounts cannot be enumerated.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req emailReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := utils.ValidateEmail(req.Email); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	generic := echo.Map{"success": true, "message": "If the email exists, a password reset link has been sent"}

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusOK, generic)
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to process request"})
	}

	raw, hash, err := utils.NewActionToken()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to process request"})
	}
	if err := h.Users.SetResetToken(ctx, u.ID, hash, nowPlusSeconds(resetTokenTTL)); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to process request"})
	}

	link := fmt.Sprintf("%s/auth/reset-password?token=%s", strings.TrimRight(h.Cfg.BaseURL, "/"), raw)
	subject, body := mailer.PasswordResetEmail(u.FullName, link)
	if err := h.Mail.Send(ctx, u.Email, subject, body); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to send reset email"})
	}

	h.Trail.Record(audit.Entry{ActorID: u.ID, Action: "FORGOT_PASSWORD", Resource: "auth",
		Outcome: audit.Success, SourceAddr: clientIP(c)})
	return c.JSON(http.StatusOK, generic)
}

// ResetPassword applies a new password for the holder of a live reset token.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Token) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Reset token is required"})
	}
	if err := utils.ValidatePassword(req.Password); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	newHash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to reset password"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Users.ResetPasswordByToken(ctx, utils.HashActionToken(req.Token), newHash); err != nil {
		if errors.Is(err, repository.ErrTokenInvalid) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid or expired reset token"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to reset password"})
	}

	h.Trail.Record(audit.Entry{Action: "RESET_PASSWORD", Resource: "auth",
		Outcome: audit.Success, SourceAddr: clientIP(c)})
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Password has been reset successfully"})
}

// SendVerificationEmail issues a fresh verification token and mails the
// link. Unknown addresses get the same generic answer as known ones.
func (h *AuthHandler) SendVerificationEmail(c echo.Context) error {
	ip := clientIP(c)
	var req emailReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := utils.ValidateEmail(req.Email); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusOK, echo.Map{"success": true,
				"message": "If the email exists, a verification link has been sent"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to send email"})
	}
	if u.EmailVerified {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Email is already verified"})
	}

	raw, hash, err := utils.NewActionToken()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to send email"})
	}
	if err := h.Users.SetVerifyToken(ctx, u.ID, hash, nowPlusSeconds(verifyTokenTTL)); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to send email"})
	}

	link := fmt.Sprintf("%s/auth/verify-email?token=%s", strings.TrimRight(h.Cfg.BaseURL, "/"), raw)
	subject, body := mailer.VerificationEmail(u.FullName, link)
	if err := h.Mail.Send(ctx, u.Email, subject, body); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to send verification email"})
	}

	h.Trail.Record(audit.Entry{ActorID: u.ID, Action: "SEND_VERIFICATION_EMAIL", Resource: "email",
		Outcome: audit.Success, SourceAddr: ip})
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Verification email has been sent"})
}

// VerifyEmail confirms an address. The token is single-use: success clears
// the stored hash so a replay fails.
func (h *AuthHandler) VerifyEmail(c echo.Context) error {
	var req verifyEmailReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Token) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Verification token is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Users.VerifyEmailByToken(ctx, utils.HashActionToken(req.Token)); err != nil {
		if errors.Is(err, repository.ErrTokenInvalid) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid or expired verification token"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to verify email"})
	}

	h.Trail.Record(audit.Entry{Action: "VERIFY_EMAIL", Resource: "email",
		Outcome: audit.Success, SourceAddr: clientIP(c)})
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Email verified successfully"})
}
