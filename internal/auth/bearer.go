package auth

import (
	"errors"
	"strings"
)

const bearerPrefix = "Bearer "

var (
	ErrAuthorizationRequired = errors.New("authorization header required")
	ErrInvalidScheme         = errors.New("invalid authorization format")
	ErrTokenRequired         = errors.New("token required")
)

// BearerToken extracts the token from an Authorization header value.
// The scheme match is case sensitive.
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrAuthorizationRequired
	}
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", ErrInvalidScheme
	}
	token := header[len(bearerPrefix):]
	if token == "" {
		return "", ErrTokenRequired
	}
	return token, nil
}
