package repository

import (
	"context"
	"database/sql"

	"github.com/openstudent/platform/internal/model"
)

// CertificateRepo persists issued certificates. Rows are written once and
// never mutated or deleted.
type CertificateRepo struct{ DB *sql.DB }

func NewCertificateRepo(db *sql.DB) *CertificateRepo { return &CertificateRepo{DB: db} }

// Create inserts the certificate and returns its ID. The unique index on
// enrollment_id turns a second issuance attempt into ErrAlreadyIssued.
func (r *CertificateRepo) Create(ctx context.Context, c model.Certificate) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO certificates (enrollment_id, user_id, certificate_number, certificate_url, issued_at)
		 VALUES (?,?,?,?,?)`,
		c.EnrollmentID, c.UserID, c.CertificateNumber, c.CertificateURL, c.IssuedAt)
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrAlreadyIssued
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEnrollment fetches the certificate for one enrollment.
func (r *CertificateRepo) GetByEnrollment(ctx context.Context, enrollmentID uint64) (model.Certificate, error) {
	var c model.Certificate
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, enrollment_id, user_id, certificate_number, certificate_url, issued_at
		 FROM certificates WHERE enrollment_id=? LIMIT 1`, enrollmentID).
		Scan(&c.ID, &c.EnrollmentID, &c.UserID, &c.CertificateNumber, &c.CertificateURL, &c.IssuedAt)
	if err == sql.ErrNoRows {
		return model.Certificate{}, ErrNotFound
	}
	return c, err
}

// ListByUser returns all certificates a learner has earned, newest first.
func (r *CertificateRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Certificate, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, enrollment_id, user_id, certificate_number, certificate_url, issued_at
		 FROM certificates WHERE user_id=? ORDER BY issued_at DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Certificate
	for rows.Next() {
		var c model.Certificate
		if err := rows.Scan(&c.ID, &c.EnrollmentID, &c.UserID, &c.CertificateNumber,
			&c.CertificateURL, &c.IssuedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
