// Package queue defines message payloads exchanged over the message broker.
package queue

// CourseCompletedEvent is published when a learner finishes a program and a
// certificate is issued. It carries enough for downstream consumers to log,
// notify or feed analytics without querying the primary database.
type CourseCompletedEvent struct {
	EnrollmentID      uint64 `json:"enrollment_id"`
	UserID            uint64 `json:"user_id"`
	ProgramTitle      string `json:"program_title"`
	CertificateNumber string `json:"certificate_number"`
	CompletedAt       string `json:"completed_at"`
}
