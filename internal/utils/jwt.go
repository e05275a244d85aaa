package utils // package utils provides helpers for session tokens, hashing and validation

import (
	"log"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// SessionToken is a signed claim bundle proving identity and role for a
// bounded time. It is stateless: validity is determined purely by signature
// and expiry, there is no server-side revocation list, and logout only clears
// the client-held cookie.
type SessionToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// SessionClaims is the decoded identity carried by a verified session token.
type SessionClaims struct {
	UserID uint64
	Email  string
	Role   string
	Exp    time.Time
}

// IssueSession builds and signs an HS256 JWT embedding the subject id, email
// and role plus issued-at and an expiry ttlDays from now. The secret must be
// the one validated at startup (config.Load fails fast when it is missing or
// shorter than 32 bytes).
func IssueSession(secret string, userID uint64, email, role string, ttlDays int) (SessionToken, error) {
	exp := time.Now().UTC().Add(time.Duration(ttlDays) * 24 * time.Hour)
	claims := jwt.MapClaims{
		"sub":   userID,
		"email": email,
		"role":  role,
		"exp":   exp.Unix(),
		"iat":   time.Now().UTC().Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return SessionToken{}, err
	}
	return SessionToken{Token: signed, Exp: exp}, nil
}

// VerifySession checks signature and expiry and returns the decoded claims,
// or nil on any failure (malformed token, bad signature, wrong algorithm,
// expired). Failures are logged with their reason but never surfaced as
// errors: an invalid session is simply an anonymous caller.
func VerifySession(secret, raw string) *SessionClaims {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		// Reject tokens signed with anything but HMAC.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		log.Printf("session token rejected: %v", err)
		return nil
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		log.Printf("session token rejected: unexpected claims type")
		return nil
	}
	out := &SessionClaims{}
	// Numeric JSON values decode as float64; admin sessions may carry no
	// subject at all when the back office is configured purely from env.
	switch sub := claims["sub"].(type) {
	case float64:
		out.UserID = uint64(sub)
	case string:
		if n, err := strconv.ParseUint(sub, 10, 64); err == nil {
			out.UserID = n
		}
	}
	if v, ok := claims["email"].(string); ok {
		out.Email = v
	}
	if v, ok := claims["role"].(string); ok {
		out.Role = v
	}
	if v, ok := claims["exp"].(float64); ok {
		out.Exp = time.Unix(int64(v), 0).UTC()
	}
	return out
}
