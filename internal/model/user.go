package model

import (
	"database/sql"
	"time"
)

// Role values stored in users.role and carried in session token claims.
const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

// User mirrors the `users` table. The password is only ever stored as a
// bcrypt hash; verification and reset tokens are stored as SHA-256 digests
// of the raw values handed to the user, so a leaked table cannot be replayed.
//
// Fields:
//
//	ID                – primary key identifier.
//	Email             – unique, lowercased email address.
//	PasswordHash      – bcrypt hash of the password.
//	FullName          – display name.
//	Phone             – optional contact number.
//	Age               – optional age.
//	Country           – optional country.
//	Role              – "student" or "admin".
//	EmailVerified     – whether the address was confirmed.
//	VerifyTokenHash   – SHA-256 of the outstanding verification token.
//	VerifyExpires     – verification token expiry (24h after issuance).
//	ResetTokenHash    – SHA-256 of the outstanding password-reset token.
//	ResetExpires      – reset token expiry (1h after issuance).
//	CreatedAt         – timestamp of signup.
//	UpdatedAt         – timestamp of last mutation.
type User struct {
	ID              uint64
	Email           string
	PasswordHash    string
	FullName        string
	Phone           sql.NullString
	Age             sql.NullInt64
	Country         sql.NullString
	Role            string
	EmailVerified   bool
	VerifyTokenHash sql.NullString
	VerifyExpires   sql.NullTime
	ResetTokenHash  sql.NullString
	ResetExpires    sql.NullTime
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
