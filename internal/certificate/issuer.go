package certificate

import (
	"context"
	"log"
	"time"

	"github.com/openstudent/platform/internal/mailer"
	"github.com/openstudent/platform/internal/model"
	"github.com/openstudent/platform/internal/queue"
	"github.com/openstudent/platform/internal/repository"
	queuepub "github.com/openstudent/platform/internal/service/queue_publisher"
)

// Issuer orchestrates certificate issuance for a completed enrollment:
// generate the number, render and persist the artifact, then notify. The
// persisted certificate is the source of truth — a failed email is reported
// back but never rolls the record back.
type Issuer struct {
	Certificates *repository.CertificateRepo
	Enrollments  *repository.EnrollmentRepo
	Mail         mailer.Mailer
	// Publish emits the completion event to the broker. Swappable so tests
	// do not need a running RabbitMQ.
	Publish func(ctx context.Context, ev queue.CourseCompletedEvent) error
}

func NewIssuer(certs *repository.CertificateRepo, enrolls *repository.EnrollmentRepo, mail mailer.Mailer) *Issuer {
	return &Issuer{
		Certificates: certs,
		Enrollments:  enrolls,
		Mail:         mail,
		Publish:      queuepub.PublishCourseCompleted,
	}
}

// Result reports what issuance produced.
type Result struct {
	Certificate model.Certificate
	EmailSent   bool
}

// Issue creates the certificate for the enrollment and emails it to the
// learner. Enrollment completion must already have been won by the caller;
// the unique index on enrollment_id still guards against a duplicate record.
func (i *Issuer) Issue(ctx context.Context, enrollment model.Enrollment, user model.User, programTitle string, completedAt time.Time) (Result, error) {
	number, err := NewNumber()
	if err != nil {
		return Result{}, err
	}
	studentName := user.FullName
	if studentName == "" {
		studentName = "Student"
	}
	uri := DataURI(RenderSVG(studentName, programTitle, completedAt, number))

	cert := model.Certificate{
		EnrollmentID:      enrollment.ID,
		UserID:            user.ID,
		CertificateNumber: number,
		CertificateURL:    uri,
		IssuedAt:          completedAt,
	}
	id, err := i.Certificates.Create(ctx, cert)
	if err != nil {
		return Result{}, err
	}
	cert.ID = id

	// Notify downstream consumers. Best-effort, same as the email below.
	_ = i.Publish(ctx, queue.CourseCompletedEvent{
		EnrollmentID:      enrollment.ID,
		UserID:            user.ID,
		ProgramTitle:      programTitle,
		CertificateNumber: number,
		CompletedAt:       completedAt.Format(time.RFC3339),
	})

	subject, body := mailer.CertificateEmail(studentName, programTitle, cert.CertificateURL)
	emailSent := false
	if err := i.Mail.Send(ctx, user.Email, subject, body); err != nil {
		log.Printf("certificate %s: email to %s failed: %v", number, user.Email, err)
	} else {
		emailSent = true
		if err := i.Enrollments.MarkCertificateSent(ctx, enrollment.ID); err != nil {
			log.Printf("certificate %s: mark sent failed: %v", number, err)
		}
	}
	return Result{Certificate: cert, EmailSent: emailSent}, nil
}
