package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// setRequired sets every variable Load treats as mandatory so tests can
// exercise the optional ones in isolation.
func setRequired(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("APP_PORT", "8080")
	t.Setenv("DB_USER", "student")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", "3306")
	t.Setenv("DB_NAME", "platform")
	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("BCRYPT_COST", "4")
}

func TestLoadPoolDefaults(t *testing.T) {
	setRequired(t)

	cfg := Load()

	assert.Equal(t, 25, cfg.DBMaxOpen)
	assert.Equal(t, 25, cfg.DBMaxIdle)
	assert.Equal(t, 30*time.Minute, cfg.DBConnLifetime)
}

func TestLoadPoolOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("DB_MAX_OPEN_CONNS", "5")
	t.Setenv("DB_MAX_IDLE_CONNS", "2")
	t.Setenv("DB_CONN_MAX_LIFETIME", "90s")

	cfg := Load()

	assert.Equal(t, 5, cfg.DBMaxOpen)
	assert.Equal(t, 2, cfg.DBMaxIdle)
	assert.Equal(t, 90*time.Second, cfg.DBConnLifetime)
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg := Load()

	assert.Equal(t, "test", cfg.Env)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 7, cfg.SessionTTLDays)
	assert.Equal(t, "http://localhost:3000", cfg.BaseURL)
	assert.Equal(t, 587, cfg.SMTPPort)
	assert.Equal(t, "https://api.paystack.co", cfg.PaystackBaseURL)
	assert.Empty(t, cfg.DBPass)
}
