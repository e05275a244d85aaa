package handler_test

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openstudent/platform/internal/payment"
	"github.com/openstudent/platform/internal/repository"
	"github.com/openstudent/platform/internal/testutil"
)

func TestEnrollmentLifecycle(t *testing.T) {
	ev := newEnv(t)
	uid, token := ev.signupAndLogin(t, "jane@example.com")
	cid := testutil.CreateCourse(t, ev.db, "Creative Writing")

	// Enroll.
	rec := ev.do(t, http.MethodPost, "/enrollments", token, map[string]any{
		"course_id": cid, "amount": 5000000, "currency": "NGN",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decode(t, rec)
	eid := uint64(body["id"].(float64))
	reference := body["payment_reference"].(string)
	assert.Equal(t, "pending", body["payment_status"])
	assert.True(t, strings.HasPrefix(reference, "PAY-"), "reference generated when omitted")

	// Verify payment via the gateway stub.
	ev.gateway.settled[reference] = payment.Verification{
		Reference: reference, Amount: 5000000, Currency: "NGN",
	}
	rec = ev.do(t, http.MethodPost, "/verify-payment", token, map[string]any{"reference": reference})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Progress partway.
	rec = ev.do(t, http.MethodPut, "/enrollments/"+itoa(eid)+"/progress", token, map[string]any{
		"progress": 60,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Reaching 100 completes the course and issues the certificate in one
	// request.
	rec = ev.do(t, http.MethodPut, "/enrollments/"+itoa(eid)+"/progress", token, map[string]any{
		"progress": 100,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body = decode(t, rec)
	assert.Equal(t, true, body["completed"])
	assert.Regexp(t, `^CERT-\d+-[0-9A-Z]{9}$`, body["certificate_number"])
	assert.True(t, strings.HasPrefix(body["certificate_url"].(string), "data:image/svg+xml;base64,"))
	assert.Equal(t, true, body["email_sent"])

	// Exactly one certificate email and one completion event.
	var certMails int
	for _, m := range ev.mail.sent {
		if strings.Contains(m.Subject, "Certificate") {
			certMails++
		}
	}
	assert.Equal(t, 1, certMails)
	require.Len(t, ev.published, 1)
	assert.Equal(t, eid, ev.published[0].EnrollmentID)
	assert.Equal(t, "Creative Writing", ev.published[0].ProgramTitle)

	// One certificate row, flagged as sent.
	cert, err := repository.NewCertificateRepo(ev.db).GetByEnrollment(context.Background(), eid)
	require.NoError(t, err)
	assert.Equal(t, uid, cert.UserID)
	e, err := repository.NewEnrollmentRepo(ev.db).GetByID(context.Background(), eid)
	require.NoError(t, err)
	assert.True(t, e.Completed)
	assert.True(t, e.CertificateSent)

	// Completing again is rejected.
	rec = ev.do(t, http.MethodPost, "/complete-course", token, map[string]any{"enrollment_id": eid})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "already completed")
}

func TestEnrollmentValidation(t *testing.T) {
	ev := newEnv(t)
	_, token := ev.signupAndLogin(t, "jane@example.com")
	cid := testutil.CreateCourse(t, ev.db, "Course")
	tid := testutil.CreateTour(t, ev.db, "Lagos Tour")

	cases := []struct {
		name string
		body map[string]any
	}{
		{"neither target", map[string]any{"amount": 100, "currency": "NGN"}},
		{"both targets", map[string]any{"course_id": cid, "tour_id": tid, "amount": 100, "currency": "NGN"}},
		{"bad currency", map[string]any{"course_id": cid, "amount": 100, "currency": "EUR"}},
		{"negative amount", map[string]any{"course_id": cid, "amount": -5, "currency": "NGN"}},
		{"bad type", map[string]any{"course_id": cid, "amount": 100, "currency": "NGN", "enrollment_type": "weird"}},
		{"unknown course", map[string]any{"course_id": 9999, "amount": 100, "currency": "NGN"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := ev.do(t, http.MethodPost, "/enrollments", token, tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestEnrollmentDuplicateReference(t *testing.T) {
	ev := newEnv(t)
	_, token := ev.signupAndLogin(t, "jane@example.com")
	cid := testutil.CreateCourse(t, ev.db, "Course")

	body := map[string]any{"course_id": cid, "amount": 100, "currency": "NGN",
		"payment_reference": "PAY-fixed"}
	require.Equal(t, http.StatusCreated, ev.do(t, http.MethodPost, "/enrollments", token, body).Code)
	assert.Equal(t, http.StatusConflict, ev.do(t, http.MethodPost, "/enrollments", token, body).Code)
}

func TestProgressOwnershipAndBounds(t *testing.T) {
	ev := newEnv(t)
	uid, token := ev.signupAndLogin(t, "owner@example.com")
	_, intruder := ev.signupAndLogin(t, "intruder@example.com")
	cid := testutil.CreateCourse(t, ev.db, "Course")
	eid := testutil.CreateEnrollment(t, ev.db, uid, cid, "PAY-1")

	// Another user's enrollment is forbidden.
	rec := ev.do(t, http.MethodPut, "/enrollments/"+itoa(eid)+"/progress", intruder, map[string]any{
		"progress": 50,
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Out-of-range progress is rejected.
	for _, p := range []int{-1, 101} {
		rec = ev.do(t, http.MethodPut, "/enrollments/"+itoa(eid)+"/progress", token, map[string]any{
			"progress": p,
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code, "progress %d", p)
	}

	// Unknown enrollment.
	rec = ev.do(t, http.MethodPut, "/enrollments/9999/progress", token, map[string]any{"progress": 10})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateProgressBodyRoute(t *testing.T) {
	ev := newEnv(t)
	uid, token := ev.signupAndLogin(t, "jane@example.com")
	cid := testutil.CreateCourse(t, ev.db, "Course")
	eid := testutil.CreateEnrollment(t, ev.db, uid, cid, "PAY-1")

	rec := ev.do(t, http.MethodPost, "/update-progress", token, map[string]any{
		"enrollment_id": eid, "progress": 30,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	e, err := repository.NewEnrollmentRepo(ev.db).GetByID(context.Background(), eid)
	require.NoError(t, err)
	assert.Equal(t, 30, e.Progress)

	rec = ev.do(t, http.MethodPost, "/update-progress", token, map[string]any{"progress": 30})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "missing enrollment_id")
}

func TestVerifyPaymentFailure(t *testing.T) {
	ev := newEnv(t)
	uid, token := ev.signupAndLogin(t, "jane@example.com")
	cid := testutil.CreateCourse(t, ev.db, "Course")
	eid := testutil.CreateEnrollment(t, ev.db, uid, cid, "PAY-1")

	// Gateway says no.
	rec := ev.do(t, http.MethodPost, "/verify-payment", token, map[string]any{"reference": "PAY-1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	e, err := repository.NewEnrollmentRepo(ev.db).GetByID(context.Background(), eid)
	require.NoError(t, err)
	assert.Equal(t, "pending", e.PaymentStatus, "failed verification leaves the enrollment pending")

	// Gateway settles a reference with no enrollment behind it.
	ev.gateway.settled["PAY-ghost"] = payment.Verification{Reference: "PAY-ghost", Amount: 1, Currency: "NGN"}
	rec = ev.do(t, http.MethodPost, "/verify-payment", token, map[string]any{"reference": "PAY-ghost"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCompletionSurvivesMailFailure(t *testing.T) {
	ev := newEnv(t)
	uid, token := ev.signupAndLogin(t, "jane@example.com")
	cid := testutil.CreateCourse(t, ev.db, "Course")
	eid := testutil.CreateEnrollment(t, ev.db, uid, cid, "PAY-1")
	ev.mail.fail = true

	rec := ev.do(t, http.MethodPost, "/complete-course", token, map[string]any{"enrollment_id": eid})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, true, body["completed"])
	assert.Equal(t, false, body["email_sent"])

	// The certificate exists even though the email did not go out.
	_, err := repository.NewCertificateRepo(ev.db).GetByEnrollment(context.Background(), eid)
	assert.NoError(t, err)
	e, err := repository.NewEnrollmentRepo(ev.db).GetByID(context.Background(), eid)
	require.NoError(t, err)
	assert.False(t, e.CertificateSent)
}

func TestListEnrollments(t *testing.T) {
	ev := newEnv(t)
	uid, token := ev.signupAndLogin(t, "jane@example.com")
	cid := testutil.CreateCourse(t, ev.db, "Course")
	testutil.CreateEnrollment(t, ev.db, uid, cid, "PAY-1")
	testutil.CreateEnrollment(t, ev.db, uid, cid, "PAY-2")

	rec := ev.do(t, http.MethodGet, "/enrollments", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Len(t, body["enrollments"], 2)
}

func itoa(n uint64) string {
	return strconv.FormatUint(n, 10)
}
