package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/openstudent/platform/internal/audit"
	"github.com/openstudent/platform/internal/certificate"
	"github.com/openstudent/platform/internal/config"
	"github.com/openstudent/platform/internal/database"
	"github.com/openstudent/platform/internal/handler"
	"github.com/openstudent/platform/internal/mailer"
	"github.com/openstudent/platform/internal/payment"
	"github.com/openstudent/platform/internal/queue"
	"github.com/openstudent/platform/internal/ratelimit"
	"github.com/openstudent/platform/internal/repository"
	"github.com/openstudent/platform/internal/router"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()
	limits := config.LoadRateLimitConfig()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	users := repository.NewUserRepo(db)
	courses := repository.NewCourseRepo(db)
	tours := repository.NewTourRepo(db)
	enrollments := repository.NewEnrollmentRepo(db)
	certs := repository.NewCertificateRepo(db)

	trail := audit.New(audit.DefaultRetention)
	mail := mailer.New(cfg)
	gateway := payment.NewPaystack(cfg.PaystackBaseURL, cfg.PaystackSecretKey)
	issuer := certificate.NewIssuer(certs, enrollments, mail)

	// Redis backs the rate limiter when reachable; otherwise each instance
	// falls back to counting in its own memory.
	var limiter ratelimit.Limiter = ratelimit.NewMemory()
	if rdb := config.NewRedisClient(); rdb != nil {
		limiter = ratelimit.NewRedis(rdb, limits.Prefix)
		log.Println("rate limiting backed by redis")
	}

	// Completion events land on a durable queue; the consumer survives
	// broker restarts on its own backoff loop.
	go func() {
		if err := queue.StartCompletionConsumer(); err != nil {
			log.Printf("completion consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true

	deps := router.Deps{
		Cfg:     cfg,
		Limits:  limits,
		Limiter: limiter,
		Trail:   trail,
		Auth:    handler.NewAuthHandler(cfg, users, trail, mail),
		Admin:   handler.NewAdminHandler(cfg, trail),
		Courses: handler.NewCourseHandler(courses, trail),
		Tours:   handler.NewTourHandler(tours, trail),
		Enroll:  handler.NewEnrollmentHandler(enrollments, courses, tours, users, issuer, trail, gateway),
		Profile: handler.NewProfileHandler(users),
	}
	router.RegisterRoutes(e)
	router.RegisterAuth(e, deps)
	router.RegisterCatalog(e, deps)
	router.RegisterLearner(e, deps)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
