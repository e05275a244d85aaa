// Package router wires handlers, auth middleware and rate limiting onto the
// Echo instance. Paths are flat (no version prefix) to match the public API.
package router

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/openstudent/platform/internal/audit"
	"github.com/openstudent/platform/internal/config"
	"github.com/openstudent/platform/internal/handler"
	"github.com/openstudent/platform/internal/middleware"
	"github.com/openstudent/platform/internal/model"
	"github.com/openstudent/platform/internal/ratelimit"
)

// Deps collects everything route registration needs.
type Deps struct {
	Cfg     config.Config
	Limits  config.RateLimitConfig
	Limiter ratelimit.Limiter
	Trail   *audit.Log
	Auth    *handler.AuthHandler
	Admin   *handler.AdminHandler
	Courses *handler.CourseHandler
	Tours   *handler.TourHandler
	Enroll  *handler.EnrollmentHandler
	Profile *handler.ProfileHandler
}

// RegisterRoutes registers routes that need no session.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the account flows. Request bodies on these routes
// are small by definition, so they share a tight body limit.
func RegisterAuth(e *echo.Echo, d Deps) {
	limiter := d.Limiter
	if !d.Limits.Enabled {
		limiter = nil
	}
	rl := func(action string, wl config.WindowLimit) echo.MiddlewareFunc {
		return middleware.RateLimit(limiter, d.Trail, action, wl)
	}

	g := e.Group("/auth", echomw.BodyLimit("10K"))
	g.POST("/signup", d.Auth.Signup, rl("signup", d.Limits.Signup))
	g.POST("/login", d.Auth.Login, rl("login", d.Limits.Login))
	g.POST("/logout", d.Auth.Logout)
	g.POST("/forgot-password", d.Auth.ForgotPassword, rl("forgot-password", d.Limits.ForgotPassword))
	g.POST("/reset-password", d.Auth.ResetPassword)
	g.POST("/send-verification-email", d.Auth.SendVerificationEmail, rl("verify-email", d.Limits.VerifyEmail))
	g.POST("/verify-email", d.Auth.VerifyEmail, rl("verify-email", d.Limits.VerifyEmail))

	e.POST("/admin/login", d.Admin.Login, echomw.BodyLimit("10K"), rl("login", d.Limits.Login))
}

// RegisterCatalog registers the catalog routes. Reads are public; the
// mutating methods on the same paths demand an admin session.
func RegisterCatalog(e *echo.Echo, d Deps) {
	adminOnly := []echo.MiddlewareFunc{
		middleware.SessionAuth(d.Cfg.JWTSecret),
		middleware.RequireRole(model.RoleAdmin),
	}

	e.GET("/courses", d.Courses.List)
	e.POST("/courses", d.Courses.Create, adminOnly...)
	e.GET("/courses/:id", d.Courses.Get)
	e.PUT("/courses/:id", d.Courses.Update, adminOnly...)

	e.GET("/tours", d.Tours.List)
	e.POST("/tours", d.Tours.Create, adminOnly...)
	e.GET("/tours/:id", d.Tours.Get)
	e.PUT("/tours/:id", d.Tours.Update, adminOnly...)

	e.GET("/admin/audit", d.Admin.AuditTrail, adminOnly...)
	e.GET("/admin/enrollments", d.Enroll.ListAll, adminOnly...)
}

// RegisterLearner registers the session-protected learner routes.
func RegisterLearner(e *echo.Echo, d Deps) {
	limiter := d.Limiter
	if !d.Limits.Enabled {
		limiter = nil
	}

	auth := e.Group("", middleware.SessionAuth(d.Cfg.JWTSecret))
	auth.GET("/user/profile", d.Profile.Get)
	auth.GET("/enrollments", d.Enroll.List)
	auth.POST("/enrollments", d.Enroll.Create,
		middleware.RateLimit(limiter, d.Trail, "enrollments", d.Limits.Enrollments))
	auth.PUT("/enrollments/:id/progress", d.Enroll.UpdateProgress)
	auth.POST("/update-progress", d.Enroll.UpdateProgressBody)
	auth.POST("/complete-course", d.Enroll.CompleteCourse)

	// Payment verification is keyed by the reference alone: the gateway
	// callback flow has no session to present.
	e.POST("/verify-payment", d.Enroll.VerifyPayment)
}
