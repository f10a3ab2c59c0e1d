package service

import (
	"regexp"
	"strings"
	"unicode"

	apperrors "github.com/Abhirsi/HawalaSend-backend/internal/errors"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

const minPasswordLength = 8

// validateRegistration applies the credential policy before any store access.
// Returns nil or a ValidationError carrying field-level messages.
func validateRegistration(email, username, password string) error {
	fields := map[string]string{}

	if !emailPattern.MatchString(strings.TrimSpace(email)) {
		fields["email"] = "must be a valid email address"
	}
	if strings.TrimSpace(username) == "" {
		fields["username"] = "must not be empty"
	}
	if msg := validatePasswordPolicy(password); msg != "" {
		fields["password"] = msg
	}

	if len(fields) > 0 {
		return apperrors.NewValidationError(fields)
	}
	return nil
}

// validatePasswordPolicy enforces the minimum complexity policy: at least 8
// characters with one digit and one uppercase letter.
func validatePasswordPolicy(password string) string {
	if strings.TrimSpace(password) == "" {
		return "must not be empty"
	}
	if len(password) < minPasswordLength {
		return "must be at least 8 characters"
	}
	var hasDigit, hasUpper bool
	for _, r := range password {
		switch {
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsUpper(r):
			hasUpper = true
		}
	}
	if !hasDigit || !hasUpper {
		return "must contain at least one digit and one uppercase letter"
	}
	return ""
}
