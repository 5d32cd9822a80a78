// Package validation provides input validation for accounts, posts and comments.
package validation

import (
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"

	"picfeed/internal/models"
)

const (
	MinUsernameLength = 3
	MaxUsernameLength = 150
	MinPasswordLength = 8
	MaxPasswordLength = 64
	MaxEmailLength    = 254
	MaxCaptionLength  = 2200
	MaxCommentLength  = 500
)

var (
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_.]+$`)

	passwordCharset = regexp.MustCompile(`^[A-Za-z\d!@#$%^&*(),.?":{}|<>]+$`)
	hasLower        = regexp.MustCompile(`[a-z]`)
	hasUpper        = regexp.MustCompile(`[A-Z]`)
	hasDigit        = regexp.MustCompile(`\d`)
	hasSpecial      = regexp.MustCompile(`[!@#$%^&*(),.?":{}|<>]`)
)

var (
	reservedUsernames       = map[string]struct{}{"admin": {}, "root": {}, "null": {}}
	reservedUsernamesUpdate = map[string]struct{}{"admin": {}, "root": {}, "null": {}, "user": {}}
)

var (
	ErrUsernameFormat   = errors.New("Username may contain only letters, numbers, underscores and dots.")
	ErrUsernameShort    = errors.New("Username must be at least 3 characters long.")
	ErrUsernameReserved = errors.New("This username is not valid!")
	ErrPasswordWeak     = errors.New("Password must be 8-64 characters long and include at least one uppercase letter, one lowercase letter, one number, and one special character.")
	ErrEmailInvalid     = errors.New("Email must be valid!")
	ErrCommentEmpty     = errors.New("Comment cannot be empty")
	ErrCommentTooLong   = errors.New("Comment is too long (maximum 500 characters)")
	ErrCaptionTooLong   = errors.New("Caption is too long (maximum 2200 characters)")
)

// ValidateUsername checks a username chosen at registration.
func ValidateUsername(username string) error {
	return validateUsername(username, reservedUsernames)
}

// ValidateUsernameUpdate checks a username change; "user" is additionally reserved.
func ValidateUsernameUpdate(username string) error {
	return validateUsername(username, reservedUsernamesUpdate)
}

func validateUsername(username string, reserved map[string]struct{}) error {
	if !usernameRegex.MatchString(username) {
		return ErrUsernameFormat
	}
	if len(username) < MinUsernameLength {
		return ErrUsernameShort
	}
	if len(username) > MaxUsernameLength {
		return fmt.Errorf("Username must not exceed %d characters.", MaxUsernameLength)
	}
	if _, ok := reserved[strings.ToLower(username)]; ok {
		return ErrUsernameReserved
	}
	return nil
}

// ValidatePassword enforces length, character set and character class rules.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength || len(password) > MaxPasswordLength {
		return ErrPasswordWeak
	}
	if !passwordCharset.MatchString(password) {
		return ErrPasswordWeak
	}
	for _, re := range []*regexp.Regexp{hasLower, hasUpper, hasDigit, hasSpecial} {
		if !re.MatchString(password) {
			return ErrPasswordWeak
		}
	}
	return nil
}

// ValidateEmail accepts a bare RFC 5322 address with a dotted domain.
func ValidateEmail(email string) error {
	if email == "" || len(email) > MaxEmailLength {
		return ErrEmailInvalid
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return ErrEmailInvalid
	}
	at := strings.LastIndex(email, "@")
	domain := email[at+1:]
	if !strings.Contains(domain, ".") || strings.HasSuffix(domain, ".") || strings.HasPrefix(domain, ".") {
		return ErrEmailInvalid
	}
	return nil
}

// NormalizeEmail lowercases the domain part of an address.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at+1] + strings.ToLower(email[at+1:])
}

// ValidateCaption limits captions to MaxCaptionLength characters. Empty captions are allowed.
func ValidateCaption(caption string) error {
	if utf8.RuneCountInString(caption) > MaxCaptionLength {
		return ErrCaptionTooLong
	}
	return nil
}

// ValidateCommentText returns the trimmed text or an error.
func ValidateCommentText(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", ErrCommentEmpty
	}
	if utf8.RuneCountInString(trimmed) > MaxCommentLength {
		return "", ErrCommentTooLong
	}
	return trimmed, nil
}

// ValidateLanguage accepts the supported interface languages.
func ValidateLanguage(lang string) error {
	switch lang {
	case models.LanguageEnglish, models.LanguageRussian, models.LanguageUzbek:
		return nil
	}
	return fmt.Errorf("%q is not a supported language", lang)
}
