package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/openstudent/platform/internal/model"
	"github.com/openstudent/platform/internal/utils"
)

// UserRepo persists user identity records.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = `id,email,password_hash,full_name,phone,age,country,role,email_verified,
verify_token_hash,verify_expires,reset_token_hash,reset_expires,created_at,updated_at`

// NewUserParams carries the validated signup input.
type NewUserParams struct {
	Email    string
	Password string
	FullName string
	Phone    string
	Age      int
	Country  string
	Role     string
}

// Create hashes the password and inserts the user, returning its ID. The
// plaintext never reaches the database.
func (r *UserRepo) Create(ctx context.Context, p NewUserParams, cost int) (uint64, error) {
	email := strings.ToLower(strings.TrimSpace(p.Email))
	hash, err := utils.HashPassword(p.Password, cost)
	if err != nil {
		return 0, err
	}
	now := time.Now().UTC()
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO users (email, password_hash, full_name, phone, age, country, role, email_verified, created_at, updated_at)
		 VALUES (?,?,?,?,?,?,?,?,?,?)`,
		email, hash, p.FullName, nullStr(p.Phone), nullInt(p.Age), nullStr(p.Country), p.Role, false, now, now)
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// SetVerifyToken stores the hash and expiry of a freshly issued email
// verification token, replacing any outstanding one.
func (r *UserRepo) SetVerifyToken(ctx context.Context, userID uint64, tokenHash string, expires time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET verify_token_hash=?, verify_expires=?, updated_at=? WHERE id=?",
		tokenHash, expires, time.Now().UTC(), userID)
	return err
}

// VerifyEmailByToken flips the verified flag for the user holding this token
// hash, provided the token is still live, and clears the token fields so it
// cannot be replayed. Returns ErrTokenInvalid when nothing matched.
func (r *UserRepo) VerifyEmailByToken(ctx context.Context, tokenHash string) error {
	now := time.Now().UTC()
	res, err := r.DB.ExecContext(ctx,
		`UPDATE users SET email_verified=?, verify_token_hash=NULL, verify_expires=NULL, updated_at=?
		 WHERE verify_token_hash=? AND verify_expires > ?`,
		true, now, tokenHash, now)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrTokenInvalid
	}
	return nil
}

// SetResetToken stores the hash and expiry of a password-reset token.
func (r *UserRepo) SetResetToken(ctx context.Context, userID uint64, tokenHash string, expires time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET reset_token_hash=?, reset_expires=?, updated_at=? WHERE id=?",
		tokenHash, expires, time.Now().UTC(), userID)
	return err
}

// ResetPasswordByToken replaces the password hash for the user holding this
// live reset token and clears the token fields. Returns ErrTokenInvalid when
// nothing matched.
func (r *UserRepo) ResetPasswordByToken(ctx context.Context, tokenHash, newPasswordHash string) error {
	now := time.Now().UTC()
	res, err := r.DB.ExecContext(ctx,
		`UPDATE users SET password_hash=?, reset_token_hash=NULL, reset_expires=NULL, updated_at=?
		 WHERE reset_token_hash=? AND reset_expires > ?`,
		newPasswordHash, now, tokenHash, now)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrTokenInvalid
	}
	return nil
}

func (r *UserRepo) scanOne(row *sql.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.Phone, &u.Age, &u.Country,
		&u.Role, &u.EmailVerified, &u.VerifyTokenHash, &u.VerifyExpires,
		&u.ResetTokenHash, &u.ResetExpires, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.User{}, ErrNotFound
	}
	return u, err
}

func nullStr(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(n int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(n), Valid: n != 0}
}
