package auth

import (
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/ayush/nebula-feed/internal/apperr"
)

const (
	maxUsernameLen = 50
	maxEmailLen    = 255
	maxBioLen      = 500

	// bcrypt only reads the first 72 bytes of its input.
	maxPasswordBytes = 72
)

// NormalizeUsername trims surrounding whitespace. Usernames are case-sensitive.
func NormalizeUsername(s string) string {
	return strings.TrimSpace(s)
}

// NormalizeEmail performs case-insensitive canonicalization.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func validateUsername(op, username string) error {
	switch {
	case username == "":
		return apperr.Validation(op, "username is required")
	case utf8.RuneCountInString(username) > maxUsernameLen:
		return apperr.Validation(op, "username is too long")
	case !utf8.ValidString(username), strings.ContainsFunc(username, func(r rune) bool { return r < 0x20 || r == 0x7f }):
		return apperr.Validation(op, "username contains invalid characters")
	}
	return nil
}

// ValidateEmail expects an already normalized address.
func ValidateEmail(op, email string) error {
	if email == "" {
		return apperr.Validation(op, "email is required")
	}
	if len(email) > maxEmailLen {
		return apperr.Validation(op, "email is too long")
	}
	if !ValidText(email) {
		return apperr.Validation(op, "email is invalid")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return apperr.Validation(op, "email is invalid")
	}
	return nil
}

func ValidateBio(op, bio string) error {
	if utf8.RuneCountInString(bio) > maxBioLen {
		return apperr.Validation(op, "bio is too long")
	}
	if !ValidText(bio) {
		return apperr.Validation(op, "bio contains invalid characters")
	}
	return nil
}

// ValidText reports whether s can be stored in a Postgres text column,
// which rejects NUL bytes and invalid UTF-8.
func ValidText(s string) bool {
	return utf8.ValidString(s) && !strings.ContainsRune(s, 0)
}

func validatePassword(op, password string) error {
	if password == "" {
		return apperr.Validation(op, "password is required")
	}
	if len(password) > maxPasswordBytes {
		return apperr.Validation(op, "password is too long")
	}
	return nil
}
