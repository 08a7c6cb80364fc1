package helpers

import (
	"errors"
	"strconv"
	"strings"
	"unicode/utf8"
)

const MaxProfileNameLength = 64

var (
	ErrInvalidID          = errors.New("invalid ID")
	ErrInvalidProfileName = errors.New("profile name must be 1-64 printable characters")
	ErrInvalidUsername    = errors.New("username must be 3-64 characters without spaces")
)

// ParseID parses a positive decimal ID from a path variable
func ParseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidID
	}
	return id, nil
}

// ValidateProfileName checks a key profile display name
func ValidateProfileName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > MaxProfileNameLength {
		return ErrInvalidProfileName
	}
	for _, r := range name {
		if r < 0x20 || r == 0x7f {
			return ErrInvalidProfileName
		}
	}
	return nil
}

// ValidateUsername checks an account name
func ValidateUsername(username string) error {
	n := utf8.RuneCountInString(username)
	if n < 3 || n > 64 || strings.ContainsAny(username, " \t\r\n") {
		return ErrInvalidUsername
	}
	return nil
}
