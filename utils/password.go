package utils

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

var (
	weakPrefix   = regexp.MustCompile(`(?i)^(password|123456|admin|qwerty)`)
	hasDigit     = regexp.MustCompile(`\d`)
	hasLower     = regexp.MustCompile(`[a-z]`)
	hasUpper     = regexp.MustCompile(`[A-Z]`)
	hasSpecial   = regexp.MustCompile(`[!@#$%^&*()_+\-=\[\]{};':"\\|,.<>/?]`)
	errWeakInput = errors.New("password must be 8-72 characters with uppercase, lowercase, numbers, and special characters")
)

func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.Wrap(err, "failed to hash password")
	}
	return string(hashed), nil
}

// VerifyPassword compares a bcrypt hashed password with its plain-text version
func VerifyPassword(hashedPassword, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) == nil
}

// IsPasswordHash reports whether stored already looks like a bcrypt hash.
func IsPasswordHash(stored string) bool {
	return strings.HasPrefix(stored, "$2a$") || strings.HasPrefix(stored, "$2b$") || strings.HasPrefix(stored, "$2y$")
}

// ValidatePasswordStrength enforces the admin password policy.
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 || len(password) > 72 {
		return errWeakInput
	}
	if weakPrefix.MatchString(password) {
		return errWeakInput
	}
	if !hasDigit.MatchString(password) || !hasLower.MatchString(password) ||
		!hasUpper.MatchString(password) || !hasSpecial.MatchString(password) {
		return errWeakInput
	}
	return nil
}
