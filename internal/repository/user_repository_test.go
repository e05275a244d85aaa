package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openstudent/platform/internal/model"
	"github.com/openstudent/platform/internal/repository"
	"github.com/openstudent/platform/internal/testutil"
	"github.com/openstudent/platform/internal/utils"
)

func TestUserCreateAndGet(t *testing.T) {
	db := testutil.OpenDB(t)
	repo := repository.NewUserRepo(db)
	ctx := context.Background()

	id, err := repo.Create(ctx, repository.NewUserParams{
		Email:    "Jane@Example.COM",
		Password: "Str0ng!pass",
		FullName: "Jane Doe",
		Phone:    "08012345678",
		Age:      25,
		Country:  "Nigeria",
		Role:     model.RoleStudent,
	}, 4)
	require.NoError(t, err)
	require.NotZero(t, id)

	// Email is normalized on write and on lookup.
	u, err := repo.GetByEmail(ctx, "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, id, u.ID)
	assert.Equal(t, "jane@example.com", u.Email)
	assert.Equal(t, "Jane Doe", u.FullName)
	assert.Equal(t, model.RoleStudent, u.Role)
	assert.False(t, u.EmailVerified)
	assert.NotEqual(t, "Str0ng!pass", u.PasswordHash)
	assert.True(t, utils.VerifyPassword(u.PasswordHash, "Str0ng!pass"))

	byID, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, u.Email, byID.Email)
}

func TestUserCreateDuplicateEmail(t *testing.T) {
	db := testutil.OpenDB(t)
	repo := repository.NewUserRepo(db)
	ctx := context.Background()

	p := repository.NewUserParams{Email: "dup@example.com", Password: "Str0ng!pass",
		FullName: "First", Role: model.RoleStudent}
	_, err := repo.Create(ctx, p, 4)
	require.NoError(t, err)

	_, err = repo.Create(ctx, p, 4)
	assert.ErrorIs(t, err, repository.ErrEmailExists)
}

func TestUserGetNotFound(t *testing.T) {
	db := testutil.OpenDB(t)
	repo := repository.NewUserRepo(db)

	_, err := repo.GetByEmail(context.Background(), "ghost@example.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = repo.GetByID(context.Background(), 999)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestVerifyEmailByToken(t *testing.T) {
	db := testutil.OpenDB(t)
	repo := repository.NewUserRepo(db)
	ctx := context.Background()
	id := testutil.CreateUser(t, db, "v@example.com", "Str0ng!pass")

	raw, hash, err := utils.NewActionToken()
	require.NoError(t, err)
	require.NoError(t, repo.SetVerifyToken(ctx, id, hash, time.Now().UTC().Add(24*time.Hour)))

	require.NoError(t, repo.VerifyEmailByToken(ctx, utils.HashActionToken(raw)))

	u, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.True(t, u.EmailVerified)
	assert.False(t, u.VerifyTokenHash.Valid, "token cleared after use")

	// Single use: the same token fails the second time.
	assert.ErrorIs(t, repo.VerifyEmailByToken(ctx, utils.HashActionToken(raw)), repository.ErrTokenInvalid)
}

func TestVerifyEmailByTokenExpired(t *testing.T) {
	db := testutil.OpenDB(t)
	repo := repository.NewUserRepo(db)
	ctx := context.Background()
	id := testutil.CreateUser(t, db, "e@example.com", "Str0ng!pass")

	raw, hash, err := utils.NewActionToken()
	require.NoError(t, err)
	require.NoError(t, repo.SetVerifyToken(ctx, id, hash, time.Now().UTC().Add(-time.Minute)))

	assert.ErrorIs(t, repo.VerifyEmailByToken(ctx, utils.HashActionToken(raw)), repository.ErrTokenInvalid)
}

func TestResetPasswordByToken(t *testing.T) {
	db := testutil.OpenDB(t)
	repo := repository.NewUserRepo(db)
	ctx := context.Background()
	id := testutil.CreateUser(t, db, "r@example.com", "Str0ng!pass")

	raw, hash, err := utils.NewActionToken()
	require.NoError(t, err)
	require.NoError(t, repo.SetResetToken(ctx, id, hash, time.Now().UTC().Add(time.Hour)))

	newHash, err := utils.HashPassword("N3w!password", 4)
	require.NoError(t, err)
	require.NoError(t, repo.ResetPasswordByToken(ctx, utils.HashActionToken(raw), newHash))

	u, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.True(t, utils.VerifyPassword(u.PasswordHash, "N3w!password"))
	assert.False(t, utils.VerifyPassword(u.PasswordHash, "Str0ng!pass"), "old password no longer works")
	assert.False(t, u.ResetTokenHash.Valid)

	assert.ErrorIs(t, repo.ResetPasswordByToken(ctx, utils.HashActionToken(raw), newHash),
		repository.ErrTokenInvalid)
}

func TestResetPasswordUnknownToken(t *testing.T) {
	db := testutil.OpenDB(t)
	repo := repository.NewUserRepo(db)

	err := repo.ResetPasswordByToken(context.Background(),
		utils.HashActionToken("nope"), "whatever")
	assert.ErrorIs(t, err, repository.ErrTokenInvalid)
}
