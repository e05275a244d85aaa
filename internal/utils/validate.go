package utils

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRe = regexp.MustCompile(`^[+\d\s\-()]+$`)
	digitRe = regexp.MustCompile(`\D`)
)

// ValidateEmail checks presence, length and shape of an email address.
func ValidateEmail(email string) error {
	if email == "" {
		return errors.New("email is required")
	}
	if len(email) > 255 {
		return errors.New("email is too long")
	}
	if !emailRe.MatchString(email) {
		return errors.New("invalid email format")
	}
	return nil
}

// ValidatePassword enforces the platform's password policy: 8..128
// characters with at least one uppercase letter, one digit and one symbol
// from the allowed set.
func ValidatePassword(password string) error {
	if password == "" {
		return errors.New("password is required")
	}
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	if len(password) > 128 {
		return errors.New("password is too long")
	}
	var upper, digit, symbol bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune("@$!%*?&", r):
			symbol = true
		}
	}
	if !upper || !digit || !symbol {
		return errors.New("password must contain uppercase letter, number, and special character (@$!%*?&)")
	}
	return nil
}

// ValidateString bounds a free-text field between minLen and maxLen after
// trimming. fieldName is interpolated into the returned message.
func ValidateString(value, fieldName string, minLen, maxLen int) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s is required", fieldName)
	}
	if len(strings.TrimSpace(value)) < minLen {
		return fmt.Errorf("%s must be at least %d characters", fieldName, minLen)
	}
	if len(value) > maxLen {
		return fmt.Errorf("%s cannot exceed %d characters", fieldName, maxLen)
	}
	return nil
}

// ValidatePhone accepts digits plus the usual separators and requires at
// least ten digits overall.
func ValidatePhone(phone string) error {
	if phone == "" {
		return errors.New("phone number is required")
	}
	if !phoneRe.MatchString(phone) {
		return errors.New("invalid phone number format")
	}
	if len(digitRe.ReplaceAllString(phone, "")) < 10 {
		return errors.New("phone number must have at least 10 digits")
	}
	return nil
}
