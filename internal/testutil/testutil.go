// Package testutil provides an in-memory database and fixture helpers
// shared by repository and handler tests. The schema mirrors the production
// one closely enough for the portable SQL the repositories emit.
package testutil

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/openstudent/platform/internal/model"
	"github.com/openstudent/platform/internal/repository"
)

// JWTSecret is a deliberately long throwaway signing key for tests.
const JWTSecret = "test-secret-0123456789abcdef-0123456789abcdef"

const schema = `
CREATE TABLE users (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	email             TEXT NOT NULL UNIQUE,
	password_hash     TEXT NOT NULL,
	full_name         TEXT NOT NULL,
	phone             TEXT,
	age               INTEGER,
	country           TEXT,
	role              TEXT NOT NULL,
	email_verified    BOOLEAN NOT NULL DEFAULT 0,
	verify_token_hash TEXT,
	verify_expires    DATETIME,
	reset_token_hash  TEXT,
	reset_expires     DATETIME,
	created_at        DATETIME NOT NULL,
	updated_at        DATETIME NOT NULL
);

CREATE TABLE courses (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	title          TEXT NOT NULL,
	description    TEXT NOT NULL DEFAULT '',
	category       TEXT NOT NULL,
	price_ngn      INTEGER NOT NULL DEFAULT 0,
	price_usd      INTEGER NOT NULL DEFAULT 0,
	duration_weeks INTEGER NOT NULL DEFAULT 1,
	classroom_link TEXT,
	is_active      BOOLEAN NOT NULL DEFAULT 1,
	created_at     DATETIME NOT NULL,
	updated_at     DATETIME NOT NULL
);

CREATE TABLE tours (
	id                   INTEGER PRIMARY KEY AUTOINCREMENT,
	title                TEXT NOT NULL,
	description          TEXT,
	location             TEXT,
	state                TEXT,
	date                 DATETIME,
	price_ngn            INTEGER NOT NULL DEFAULT 0,
	price_usd            INTEGER NOT NULL DEFAULT 0,
	max_participants     INTEGER NOT NULL DEFAULT 0,
	current_participants INTEGER NOT NULL DEFAULT 0,
	is_active            BOOLEAN NOT NULL DEFAULT 1,
	created_at           DATETIME NOT NULL,
	updated_at           DATETIME NOT NULL
);

CREATE TABLE enrollments (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id           INTEGER NOT NULL,
	course_id         INTEGER,
	tour_id           INTEGER,
	enrollment_type   TEXT NOT NULL,
	payment_reference TEXT NOT NULL UNIQUE,
	payment_status    TEXT NOT NULL,
	amount_paid       INTEGER NOT NULL DEFAULT 0,
	currency          TEXT NOT NULL,
	progress          INTEGER NOT NULL DEFAULT 0,
	completed         BOOLEAN NOT NULL DEFAULT 0,
	completed_at      DATETIME,
	certificate_sent  BOOLEAN NOT NULL DEFAULT 0,
	created_at        DATETIME NOT NULL,
	updated_at        DATETIME NOT NULL
);

CREATE TABLE certificates (
	id                 INTEGER PRIMARY KEY AUTOINCREMENT,
	enrollment_id      INTEGER NOT NULL UNIQUE,
	user_id            INTEGER NOT NULL,
	certificate_number TEXT NOT NULL UNIQUE,
	certificate_url    TEXT NOT NULL,
	issued_at          DATETIME NOT NULL
);
`

// OpenDB returns an isolated in-memory database with the schema applied.
// A single connection is forced so every statement sees the same memory.
func OpenDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	_, err = db.Exec(schema)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// CreateUser inserts a student with the given email and password and
// returns its id.
func CreateUser(t *testing.T, db *sql.DB, email, password string) uint64 {
	t.Helper()
	id, err := repository.NewUserRepo(db).Create(context.Background(), repository.NewUserParams{
		Email:    email,
		Password: password,
		FullName: "Test Student",
		Role:     model.RoleStudent,
	}, 4)
	require.NoError(t, err)
	return id
}

// CreateCourse inserts an active course and returns its id.
func CreateCourse(t *testing.T, db *sql.DB, title string) uint64 {
	t.Helper()
	id, err := repository.NewCourseRepo(db).Create(context.Background(), model.Course{
		Title:         title,
		Description:   "A test course",
		Category:      "writing",
		PriceNGN:      5000000,
		PriceUSD:      5000,
		DurationWeeks: 6,
	})
	require.NoError(t, err)
	return id
}

// CreateTour inserts an active tour and returns its id.
func CreateTour(t *testing.T, db *sql.DB, title string) uint64 {
	t.Helper()
	id, err := repository.NewTourRepo(db).Create(context.Background(), model.Tour{
		Title:           title,
		PriceNGN:        2000000,
		PriceUSD:        2000,
		MaxParticipants: 30,
	})
	require.NoError(t, err)
	return id
}

// CreateEnrollment inserts a pending course enrollment and returns its id.
func CreateEnrollment(t *testing.T, db *sql.DB, userID, courseID uint64, reference string) uint64 {
	t.Helper()
	id, err := repository.NewEnrollmentRepo(db).Create(context.Background(), model.Enrollment{
		UserID:           userID,
		CourseID:         sql.NullInt64{Int64: int64(courseID), Valid: true},
		EnrollmentType:   model.EnrollCourse,
		PaymentReference: reference,
		AmountPaid:       5000000,
		Currency:         model.CurrencyNGN,
	})
	require.NoError(t, err)
	return id
}
