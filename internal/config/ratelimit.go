package config

import (
	"os"
	"strconv"
	"time"
)

// WindowLimit bounds how many requests one source may make inside a fixed
// window. A zero Limit disables the guard for that action.
type WindowLimit struct {
	Limit  int
	Window time.Duration
}

// RateLimitConfig carries the per-action limits applied to sensitive
// endpoints. Defaults follow the platform's abuse policy: login 5/15min,
// signup and forgot-password 3/h, verify-email 10/h, enrollments 20/h.
type RateLimitConfig struct {
	Enabled        bool
	Prefix         string // key namespace when backed by Redis
	Login          WindowLimit
	Signup         WindowLimit
	ForgotPassword WindowLimit
	VerifyEmail    WindowLimit
	Enrollments    WindowLimit
}

// LoadRateLimitConfig reads environment overrides and falls back to the
// documented defaults. Windows accept Go duration syntax (e.g. "15m").
func LoadRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Enabled: envBool("RATE_LIMIT_ENABLED", true),
		Prefix:  envStr("RATE_LIMIT_PREFIX", "rl"),
		Login: WindowLimit{
			Limit:  envInt("RATE_LIMIT_LOGIN", 5),
			Window: envDur("RATE_LIMIT_LOGIN_WINDOW", 15*time.Minute),
		},
		Signup: WindowLimit{
			Limit:  envInt("RATE_LIMIT_SIGNUP", 3),
			Window: envDur("RATE_LIMIT_SIGNUP_WINDOW", time.Hour),
		},
		ForgotPassword: WindowLimit{
			Limit:  envInt("RATE_LIMIT_FORGOT_PASSWORD", 3),
			Window: envDur("RATE_LIMIT_FORGOT_PASSWORD_WINDOW", time.Hour),
		},
		VerifyEmail: WindowLimit{
			Limit:  envInt("RATE_LIMIT_VERIFY_EMAIL", 10),
			Window: envDur("RATE_LIMIT_VERIFY_EMAIL_WINDOW", time.Hour),
		},
		Enrollments: WindowLimit{
			Limit:  envInt("RATE_LIMIT_ENROLLMENTS", 20),
			Window: envDur("RATE_LIMIT_ENROLLMENTS_WINDOW", time.Hour),
		},
	}
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	switch v {
	case "1", "true", "TRUE", "True", "yes", "YES", "on", "ON":
		return true
	case "0", "false", "FALSE", "False", "no", "NO", "off", "OFF":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}
