package config // package config loads application configuration from environment variables

import (
	"log"     // log reports configuration errors and halts execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"time"    // time expresses pool lifetimes
)

// Config holds all runtime configuration values. Each field corresponds to an
// environment variable. Secrets and identifiers stay strings; durations and
// costs are ints matching how the values are used in the application.
type Config struct {
	Env            string // application environment (e.g. "dev", "prod")
	Port           string // HTTP port to listen on
	DBUser         string // database username
	DBPass         string // database password (optional)
	DBHost         string // database host address
	DBPort         string // database port number
	DBName         string // database name

	DBMaxOpen      int           // connection pool: max open connections
	DBMaxIdle      int           // connection pool: max idle connections
	DBConnLifetime time.Duration // connection pool: max connection age

	JWTSecret      string // secret used to sign session tokens, minimum 32 bytes
	SessionTTLDays int    // session token time-to-live in days
	BcryptCost     int    // bcrypt cost for password hashing
	BaseURL        string // public base URL for verification/reset links

	AdminEmail        string // back-office admin email
	AdminPasswordHash string // bcrypt hash of the back-office admin password

	SMTPHost      string // SMTP server host (empty disables real mail delivery)
	SMTPPort      int    // SMTP server port
	SMTPUser      string // SMTP auth user
	SMTPPassword  string // SMTP auth password
	SMTPFromEmail string // From address for outbound mail
	SMTPFromName  string // display name for outbound mail

	PaystackSecretKey string // secret key for the payment gateway API
	PaystackBaseURL   string // gateway API base URL
}

// Load reads configuration values from environment variables and returns a
// Config. Required variables are enforced by must() and missing values cause
// the program to exit with a fatal log message. The JWT secret is validated
// here once, at startup: an absent or short secret is a fatal configuration
// error, not something a request can recover from.
func Load() Config {
	cfg := Config{
		Env:            must("APP_ENV"),
		Port:           must("APP_PORT"),
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"), // empty allowed
		DBHost:         must("DB_HOST"),
		DBPort:         must("DB_PORT"),
		DBName:         must("DB_NAME"),
		DBMaxOpen:      envInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdle:      envInt("DB_MAX_IDLE_CONNS", 25),
		DBConnLifetime: envDur("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		JWTSecret:      must("JWT_SECRET"),
		SessionTTLDays: envInt("SESSION_TTL_DAYS", 7),
		BcryptCost:     mustInt("BCRYPT_COST"),
		BaseURL:        envStr("BASE_URL", "http://localhost:3000"),

		AdminEmail:        os.Getenv("ADMIN_EMAIL"),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),

		SMTPHost:      os.Getenv("SMTP_HOST"),
		SMTPPort:      envInt("SMTP_PORT", 587),
		SMTPUser:      os.Getenv("SMTP_USER"),
		SMTPPassword:  os.Getenv("SMTP_PASSWORD"),
		SMTPFromEmail: os.Getenv("SMTP_FROM_EMAIL"),
		SMTPFromName:  envStr("SMTP_FROM_NAME", "Open Student"),

		PaystackSecretKey: os.Getenv("PAYSTACK_SECRET_KEY"),
		PaystackBaseURL:   envStr("PAYSTACK_BASE_URL", "https://api.paystack.co"),
	}
	if len(cfg.JWTSecret) < 32 {
		log.Fatalf("JWT_SECRET must be at least 32 bytes, got %d", len(cfg.JWTSecret))
	}
	return cfg
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
