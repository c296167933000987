package validation

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	lserrors "langsite/internal/errors"
)

const (
	// MinPasswordLength is the shortest accepted password, in characters.
	MinPasswordLength = 6
	// MinNameLength is the shortest accepted display name, in characters.
	MinNameLength = 2
)

// Storage backends accepted by the configuration.
const (
	BackendCookie = "cookie"
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// IsEmail reports whether value has the local@domain.tld shape.
func IsEmail(value string) bool {
	return emailPattern.MatchString(value)
}

// IsPassword reports whether value is long enough to be a password.
func IsPassword(value string) bool {
	return utf8.RuneCountInString(value) >= MinPasswordLength
}

// IsName reports whether value, once trimmed, is long enough to be a display name.
func IsName(value string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(value)) >= MinNameLength
}

func ValidateAuthURL(address string) error {
	trimmed := strings.TrimSpace(address)
	if trimmed == "" {
		return lserrors.ErrInvalidAuthURL
	}
	parsed, err := url.ParseRequestURI(trimmed)
	if err != nil {
		return lserrors.ErrInvalidAuthURL
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return lserrors.ErrInvalidAuthURL
	}
	if parsed.Host == "" {
		return lserrors.ErrInvalidAuthURL
	}
	return nil
}

func ValidateStorageBackend(backend string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(backend))
	switch normalized {
	case "":
		return BackendCookie, nil
	case BackendCookie, BackendMemory, BackendRedis, BackendSQLite:
		return normalized, nil
	default:
		return "", lserrors.ErrInvalidStorageBackend
	}
}
