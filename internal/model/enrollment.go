package model

import (
	"database/sql"
	"time"
)

// Payment status values for enrollments.paymentStatus.
const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
)

// Enrollment type values.
const (
	EnrollCourse = "course"
	EnrollTour   = "tour"
	EnrollCombo  = "combo"
)

// Supported settlement currencies.
const (
	CurrencyNGN = "NGN"
	CurrencyUSD = "USD"
)

// Enrollment records a learner's paid access to one course or one tour and
// their progress through it. Payment completion and course completion are
// independent transitions: the first is driven by the gateway callback, the
// second by progress reaching 100.
//
// Fields:
//
//	ID               – primary key identifier.
//	UserID           – owning learner.
//	CourseID         – enrolled course (null when TourID is set).
//	TourID           – enrolled tour (null when CourseID is set).
//	EnrollmentType   – "course", "tour" or "combo".
//	PaymentReference – unique gateway reference for the purchase.
//	PaymentStatus    – "pending", "completed" or "failed".
//	AmountPaid       – settled amount in minor units.
//	Currency         – "NGN" or "USD".
//	Progress         – completion percentage, 0..100.
//	Completed        – whether the program was finished.
//	CompletedAt      – when progress reached 100 (null before that).
//	CertificateSent  – whether the certificate email went out.
//	CreatedAt        – creation timestamp.
//	UpdatedAt        – last update timestamp.
type Enrollment struct {
	ID               uint64
	UserID           uint64
	CourseID         sql.NullInt64
	TourID           sql.NullInt64
	EnrollmentType   string
	PaymentReference string
	PaymentStatus    string
	AmountPaid       int64
	Currency         string
	Progress         int
	Completed        bool
	CompletedAt      sql.NullTime
	CertificateSent  bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Certificate is the immutable proof-of-completion record. At most one
// exists per enrollment, enforced by a unique index on enrollment_id.
//
// Fields:
//
//	ID                – primary key identifier.
//	EnrollmentID      – completed enrollment this certifies.
//	UserID            – learner the certificate belongs to.
//	CertificateNumber – globally unique human-readable number.
//	CertificateURL    – rendered artifact as a data: URI.
//	IssuedAt          – issuance timestamp.
type Certificate struct {
	ID                uint64
	EnrollmentID      uint64
	UserID            uint64
	CertificateNumber string
	CertificateURL    string
	IssuedAt          time.Time
}
