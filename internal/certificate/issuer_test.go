package certificate_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openstudent/platform/internal/certificate"
	"github.com/openstudent/platform/internal/model"
	"github.com/openstudent/platform/internal/queue"
	"github.com/openstudent/platform/internal/repository"
	"github.com/openstudent/platform/internal/testutil"
)

var certNumberRe = regexp.MustCompile(`^CERT-\d{13}-[0-9A-Z]{9}$`)

type recordingMailer struct {
	sent []string
	fail bool
}

func (m *recordingMailer) Send(_ context.Context, to, _, _ string) error {
	if m.fail {
		return errors.New("relay down")
	}
	m.sent = append(m.sent, to)
	return nil
}

type issuerEnv struct {
	issuer      *certificate.Issuer
	enrollments *repository.EnrollmentRepo
	certs       *repository.CertificateRepo
	mail        *recordingMailer
	events      []queue.CourseCompletedEvent
	enrollment  model.Enrollment
	user        model.User
}

func newIssuerEnv(t *testing.T) *issuerEnv {
	t.Helper()
	db := testutil.OpenDB(t)
	uid := testutil.CreateUser(t, db, "grad@example.com", "Sup3r-secret!")
	cid := testutil.CreateCourse(t, db, "Creative Writing")
	eid := testutil.CreateEnrollment(t, db, uid, cid, "PAY-issuer-test")

	env := &issuerEnv{
		enrollments: repository.NewEnrollmentRepo(db),
		certs:       repository.NewCertificateRepo(db),
		mail:        &recordingMailer{},
	}
	env.issuer = certificate.NewIssuer(env.certs, env.enrollments, env.mail)
	env.issuer.Publish = func(_ context.Context, ev queue.CourseCompletedEvent) error {
		env.events = append(env.events, ev)
		return nil
	}

	var err error
	env.enrollment, err = env.enrollments.GetByID(context.Background(), eid)
	require.NoError(t, err)
	env.user = model.User{ID: uid, Email: "grad@example.com", FullName: "Test Student"}
	return env
}

func TestIssuerDefaultPublisher(t *testing.T) {
	env := newIssuerEnv(t)
	iss := certificate.NewIssuer(env.certs, env.enrollments, env.mail)
	assert.NotNil(t, iss.Publish)
}

func TestIssuePersistsAndNotifies(t *testing.T) {
	env := newIssuerEnv(t)
	completedAt := time.Now().UTC().Truncate(time.Second)

	res, err := env.issuer.Issue(context.Background(), env.enrollment, env.user, "Creative Writing", completedAt)
	require.NoError(t, err)

	assert.True(t, res.EmailSent)
	assert.Regexp(t, certNumberRe, res.Certificate.CertificateNumber)
	assert.NotZero(t, res.Certificate.ID)

	stored, err := env.certs.GetByEnrollment(context.Background(), env.enrollment.ID)
	require.NoError(t, err)
	assert.Equal(t, res.Certificate.CertificateNumber, stored.CertificateNumber)

	require.Len(t, env.events, 1)
	assert.Equal(t, env.enrollment.ID, env.events[0].EnrollmentID)
	assert.Equal(t, env.user.ID, env.events[0].UserID)
	assert.Equal(t, "Creative Writing", env.events[0].ProgramTitle)

	assert.Equal(t, []string{"grad@example.com"}, env.mail.sent)
	after, err := env.enrollments.GetByID(context.Background(), env.enrollment.ID)
	require.NoError(t, err)
	assert.True(t, after.CertificateSent)
}

func TestIssueSecondAttemptRejected(t *testing.T) {
	env := newIssuerEnv(t)
	now := time.Now().UTC()

	_, err := env.issuer.Issue(context.Background(), env.enrollment, env.user, "Creative Writing", now)
	require.NoError(t, err)

	_, err = env.issuer.Issue(context.Background(), env.enrollment, env.user, "Creative Writing", now)
	assert.ErrorIs(t, err, repository.ErrAlreadyIssued)
}

func TestIssueEmailFailureKeepsCertificate(t *testing.T) {
	env := newIssuerEnv(t)
	env.mail.fail = true

	res, err := env.issuer.Issue(context.Background(), env.enrollment, env.user, "Creative Writing", time.Now().UTC())
	require.NoError(t, err)
	assert.False(t, res.EmailSent)

	_, err = env.certs.GetByEnrollment(context.Background(), env.enrollment.ID)
	assert.NoError(t, err)

	after, err := env.enrollments.GetByID(context.Background(), env.enrollment.ID)
	require.NoError(t, err)
	assert.False(t, after.CertificateSent)
}
