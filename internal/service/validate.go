package service

import (
	"net/mail"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/sakif/character-studio/internal/apperror"
)

// Validation limits. Lengths count characters, not bytes.
const (
	MinPasswordLength    = 8
	MaxNameLength        = 100
	MaxNicknameLength    = 100
	MaxMessageLength     = 1000
	passwordSpecialChars = `!@#$%^&*(),.?":{}|<>`
)

// validateEmail accepts a bare address with a dotted domain.
// "Name <a@b.com>" and "a@localhost" are rejected.
func validateEmail(email string) error {
	invalid := apperror.ValidationFailed("email", "Invalid email format")

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return invalid
	}
	at := strings.LastIndexByte(email, '@')
	domain := email[at+1:]
	if !strings.Contains(domain, ".") || strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return invalid
	}
	return nil
}

func validateNewPassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return apperror.ValidationFailed("password", "Password must be at least 8 characters long")
	}
	if !strings.ContainsAny(password, passwordSpecialChars) {
		return apperror.ValidationFailed("password", "Password must contain at least one special character")
	}
	return nil
}

func validateImageURL(raw string) error {
	u, err := url.ParseRequestURI(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return apperror.ValidationFailed("characterImageUrl", "Invalid image URL format")
	}
	return nil
}

// requireText checks 1..max characters; max <= 0 means no upper bound.
func requireText(field, value string, max int, required, tooLong string) error {
	if value == "" {
		return apperror.ValidationFailed(field, required)
	}
	if max > 0 && utf8.RuneCountInString(value) > max {
		return apperror.ValidationFailed(field, tooLong)
	}
	return nil
}
