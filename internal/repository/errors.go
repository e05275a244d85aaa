// Package repository defines error types that are reused across multiple
// repositories. These sentinel values let handlers distinguish failure
// scenarios without inspecting driver error strings themselves: for example
// ErrForbidden marks an operation on a resource owned by someone else, and
// ErrAlreadyCompleted marks a second completion attempt on the same
// enrollment.
package repository

import (
	"errors"
	"strings"
)

// ErrNotFound is returned when the requested row does not exist. Handlers
// translate it into HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own. Handlers translate it into HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrEmailExists is returned when a signup collides with a registered email.
var ErrEmailExists = errors.New("email already exists")

// ErrReferenceExists is returned when an enrollment reuses a payment
// reference.
var ErrReferenceExists = errors.New("payment reference already exists")

// ErrAlreadyCompleted is returned when an enrollment was completed before
// this call. The condition is terminal for the call, not retriable.
var ErrAlreadyCompleted = errors.New("already completed")

// ErrAlreadyIssued is returned when a certificate already exists for the
// enrollment. The unique index on enrollment_id makes double issuance
// impossible at the storage layer.
var ErrAlreadyIssued = errors.New("certificate already issued")

// ErrTokenInvalid is returned when a verification or reset token does not
// match any live row.
var ErrTokenInvalid = errors.New("invalid or expired token")

// isDuplicate reports whether err is a unique-constraint violation. MySQL
// surfaces error 1062; sqlite (used in tests) says "UNIQUE constraint".
func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "1062") || strings.Contains(msg, "unique")
}
