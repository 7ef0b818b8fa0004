package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	SaltLength = 16
	KeyLength  = 32
	Iterations = 100000
)

var ErrMalformedCredential = errors.New("malformed credential")

// Credential is the stored form of a password: a random salt and the
// PBKDF2-SHA256 key derived from it.
type Credential struct {
	Salt []byte
	Key  []byte
}

// String encodes the credential as hex(salt):hex(key).
func (c Credential) String() string {
	return hex.EncodeToString(c.Salt) + ":" + hex.EncodeToString(c.Key)
}

// ParseCredential decodes the hex(salt):hex(key) storage form.
func ParseCredential(s string) (Credential, error) {
	saltHex, keyHex, ok := strings.Cut(s, ":")
	if !ok || saltHex == "" || keyHex == "" {
		return Credential{}, ErrMalformedCredential
	}
	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return Credential{}, fmt.Errorf("%w: salt: %v", ErrMalformedCredential, err)
	}
	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return Credential{}, fmt.Errorf("%w: key: %v", ErrMalformedCredential, err)
	}
	return Credential{Salt: salt, Key: key}, nil
}

func deriveKey(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, Iterations, KeyLength, sha256.New)
}

// HashPassword derives a fresh credential for password using a new random salt.
// An error means the system random source failed.
func HashPassword(password string) (Credential, error) {
	salt := make([]byte, SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return Credential{}, fmt.Errorf("generate salt: %w", err)
	}
	return Credential{Salt: salt, Key: deriveKey(password, salt)}, nil
}

// VerifyPassword reports whether password matches the stored credential.
// A stored value that cannot be parsed never matches.
func VerifyPassword(password, stored string) bool {
	c, err := ParseCredential(stored)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(deriveKey(password, c.Salt), c.Key) == 1
}
