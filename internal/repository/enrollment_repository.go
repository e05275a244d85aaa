package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/openstudent/platform/internal/model"
)

// EnrollmentRepo persists enrollments and drives their two independent state
// transitions: payment confirmation and course completion.
type EnrollmentRepo struct{ DB *sql.DB }

func NewEnrollmentRepo(db *sql.DB) *EnrollmentRepo { return &EnrollmentRepo{DB: db} }

const enrollmentColumns = `id,user_id,course_id,tour_id,enrollment_type,payment_reference,payment_status,
amount_paid,currency,progress,completed,completed_at,certificate_sent,created_at,updated_at`

// Create inserts a pending enrollment with progress 0 and returns its ID.
func (r *EnrollmentRepo) Create(ctx context.Context, e model.Enrollment) (uint64, error) {
	now := time.Now().UTC()
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO enrollments (user_id, course_id, tour_id, enrollment_type, payment_reference,
		 payment_status, amount_paid, currency, progress, completed, certificate_sent, created_at, updated_at)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		e.UserID, e.CourseID, e.TourID, e.EnrollmentType, e.PaymentReference,
		model.PaymentPending, e.AmountPaid, e.Currency, 0, false, false, now, now)
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrReferenceExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches one enrollment.
func (r *EnrollmentRepo) GetByID(ctx context.Context, id uint64) (model.Enrollment, error) {
	return scanEnrollment(r.DB.QueryRowContext(ctx,
		"SELECT "+enrollmentColumns+" FROM enrollments WHERE id=? LIMIT 1", id))
}

// ListByUser returns all enrollments owned by the user, newest first.
func (r *EnrollmentRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Enrollment, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+enrollmentColumns+" FROM enrollments WHERE user_id=? ORDER BY created_at DESC, id DESC", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Enrollment
	for rows.Next() {
		var e model.Enrollment
		if err := rows.Scan(&e.ID, &e.UserID, &e.CourseID, &e.TourID, &e.EnrollmentType,
			&e.PaymentReference, &e.PaymentStatus, &e.AmountPaid, &e.Currency, &e.Progress,
			&e.Completed, &e.CompletedAt, &e.CertificateSent, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ListAll returns the newest enrollments across all users, capped at 100
// rows for the back-office overview. Learner listings go through ListByUser.
func (r *EnrollmentRepo) ListAll(ctx context.Context) ([]model.Enrollment, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+enrollmentColumns+" FROM enrollments ORDER BY created_at DESC, id DESC LIMIT 100")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Enrollment
	for rows.Next() {
		var e model.Enrollment
		if err := rows.Scan(&e.ID, &e.UserID, &e.CourseID, &e.TourID, &e.EnrollmentType,
			&e.PaymentReference, &e.PaymentStatus, &e.AmountPaid, &e.Currency, &e.Progress,
			&e.Completed, &e.CompletedAt, &e.CertificateSent, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ConfirmPayment marks the enrollment holding this reference as paid and
// records the confirmed amount. Returns ErrNotFound for unknown references.
// Reprocessing a reference reapplies the same terminal state.
func (r *EnrollmentRepo) ConfirmPayment(ctx context.Context, reference string, amount int64) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE enrollments SET payment_status=?, amount_paid=?, updated_at=? WHERE payment_reference=?",
		model.PaymentCompleted, amount, time.Now().UTC(), reference)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateProgress persists a new progress percentage. Range checking is the
// handler's job; this only writes.
func (r *EnrollmentRepo) UpdateProgress(ctx context.Context, id uint64, progress int) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE enrollments SET progress=?, updated_at=? WHERE id=?",
		progress, time.Now().UTC(), id)
	return err
}

// Complete transitions the enrollment to completed exactly once: the guarded
// UPDATE only matches rows that are still incomplete, so two racing calls
// cannot both win. Returns ErrAlreadyCompleted when the row was already done.
func (r *EnrollmentRepo) Complete(ctx context.Context, id uint64) (time.Time, error) {
	now := time.Now().UTC()
	res, err := r.DB.ExecContext(ctx,
		`UPDATE enrollments SET completed=?, progress=100, completed_at=?, updated_at=?
		 WHERE id=? AND completed=?`,
		true, now, now, id, false)
	if err != nil {
		return time.Time{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return time.Time{}, err
	}
	if n == 0 {
		return time.Time{}, ErrAlreadyCompleted
	}
	return now, nil
}

// MarkCertificateSent flags that the certificate email was delivered.
func (r *EnrollmentRepo) MarkCertificateSent(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE enrollments SET certificate_sent=?, updated_at=? WHERE id=?",
		true, time.Now().UTC(), id)
	return err
}

func scanEnrollment(row *sql.Row) (model.Enrollment, error) {
	var e model.Enrollment
	err := row.Scan(&e.ID, &e.UserID, &e.CourseID, &e.TourID, &e.EnrollmentType,
		&e.PaymentReference, &e.PaymentStatus, &e.AmountPaid, &e.Currency, &e.Progress,
		&e.Completed, &e.CompletedAt, &e.CertificateSent, &e.CreatedAt, &e.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.Enrollment{}, ErrNotFound
	}
	return e, err
}
