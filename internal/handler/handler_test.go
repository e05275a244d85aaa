package handler_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/openstudent/platform/internal/audit"
	"github.com/openstudent/platform/internal/certificate"
	"github.com/openstudent/platform/internal/config"
	"github.com/openstudent/platform/internal/handler"
	"github.com/openstudent/platform/internal/payment"
	"github.com/openstudent/platform/internal/queue"
	"github.com/openstudent/platform/internal/ratelimit"
	"github.com/openstudent/platform/internal/repository"
	"github.com/openstudent/platform/internal/router"
	"github.com/openstudent/platform/internal/testutil"
	"github.com/openstudent/platform/internal/utils"
)

// stubMailer records every send instead of talking SMTP.
type stubMailer struct {
	sent []sentMail
	fail bool
}

type sentMail struct {
	To      string
	Subject string
	Body    string
}

func (m *stubMailer) Send(_ context.Context, to, subject, html string) error {
	if m.fail {
		return fmt.Errorf("smtp unavailable")
	}
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: html})
	return nil
}

// stubGateway answers verification from a fixed table.
type stubGateway struct {
	settled map[string]payment.Verification
}

func (g *stubGateway) Verify(_ context.Context, reference string) (payment.Verification, error) {
	if v, ok := g.settled[reference]; ok {
		return v, nil
	}
	return payment.Verification{}, fmt.Errorf("payment not successful")
}

// env is one fully wired application instance on an in-memory database.
type env struct {
	e         *echo.Echo
	db        *sql.DB
	cfg       config.Config
	trail     *audit.Log
	mail      *stubMailer
	gateway   *stubGateway
	users     *repository.UserRepo
	published []queue.CourseCompletedEvent
}

const adminPassword = "Adm1n!pass"

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testutil.OpenDB(t)

	adminHash, err := utils.HashPassword(adminPassword, 4)
	require.NoError(t, err)

	ev := &env{
		e:       echo.New(),
		db:      db,
		trail:   audit.New(audit.DefaultRetention),
		mail:    &stubMailer{},
		gateway: &stubGateway{settled: map[string]payment.Verification{}},
		cfg: config.Config{
			JWTSecret:         testutil.JWTSecret,
			SessionTTLDays:    7,
			BcryptCost:        4,
			BaseURL:           "http://localhost:3000",
			AdminEmail:        "admin@example.com",
			AdminPasswordHash: adminHash,
		},
	}

	ev.users = repository.NewUserRepo(db)
	courses := repository.NewCourseRepo(db)
	tours := repository.NewTourRepo(db)
	enrollments := repository.NewEnrollmentRepo(db)
	certs := repository.NewCertificateRepo(db)

	issuer := certificate.NewIssuer(certs, enrollments, ev.mail)
	issuer.Publish = func(_ context.Context, e queue.CourseCompletedEvent) error {
		ev.published = append(ev.published, e)
		return nil
	}

	deps := router.Deps{
		Cfg:     ev.cfg,
		Limits:  config.LoadRateLimitConfig(),
		Limiter: ratelimit.NewMemory(),
		Trail:   ev.trail,
		Auth:    handler.NewAuthHandler(ev.cfg, ev.users, ev.trail, ev.mail),
		Admin:   handler.NewAdminHandler(ev.cfg, ev.trail),
		Courses: handler.NewCourseHandler(courses, ev.trail),
		Tours:   handler.NewTourHandler(tours, ev.trail),
		Enroll:  handler.NewEnrollmentHandler(enrollments, courses, tours, ev.users, issuer, ev.trail, ev.gateway),
		Profile: handler.NewProfileHandler(ev.users),
	}
	router.RegisterRoutes(ev.e)
	router.RegisterAuth(ev.e, deps)
	router.RegisterCatalog(ev.e, deps)
	router.RegisterLearner(ev.e, deps)
	return ev
}

// do performs one request against the in-process server. body may be a
// string (sent raw) or anything JSON-marshalable. token, when non-empty, is
// sent as the session cookie.
func (ev *env) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	switch b := body.(type) {
	case nil:
		reader = strings.NewReader("")
	case string:
		reader = strings.NewReader(b)
	default:
		buf, err := json.Marshal(b)
		require.NoError(t, err)
		reader = strings.NewReader(string(buf))
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: "auth_token", Value: token})
	}
	rec := httptest.NewRecorder()
	ev.e.ServeHTTP(rec, req)
	return rec
}

// newRequest builds a bare request with the session cookie attached, for
// tests that need to add extra cookies or headers before serving.
func newRequest(t *testing.T, method, path, token string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(""))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: "auth_token", Value: token})
	}
	return req
}

func serve(ev *env, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	ev.e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

// signupAndLogin registers a student and returns its id and a session token.
func (ev *env) signupAndLogin(t *testing.T, email string) (uint64, string) {
	t.Helper()
	rec := ev.do(t, http.MethodPost, "/auth/signup", "", map[string]any{
		"email": email, "password": "Str0ng!pass", "fullName": "Test Student",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	uid := uint64(decode(t, rec)["user_id"].(float64))
	return uid, sessionCookie(t, rec)
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == "auth_token" && c.Value != "" {
			return c.Value
		}
	}
	t.Fatal("no auth_token cookie in response")
	return ""
}
