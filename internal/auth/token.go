package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is the lifetime of an issued token when none is configured.
const DefaultTokenTTL = 24 * time.Hour

// Token is the decoded content of a verified bearer token. Times are unix seconds.
type Token struct {
	SubjectID    string
	SubjectEmail string
	IssuedAt     int64
	ExpiresAt    int64
}

type claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies HS256 bearer tokens with a single secret.
// It holds no mutable state and is safe for concurrent use.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService returns a service signing with secret. A zero ttl selects
// DefaultTokenTTL.
func NewTokenService(secret []byte, ttl time.Duration) (*TokenService, error) {
	if len(secret) == 0 {
		return nil, errors.New("token secret is required")
	}
	if ttl == 0 {
		ttl = DefaultTokenTTL
	}
	if ttl < time.Second {
		return nil, fmt.Errorf("token ttl must be at least 1s, got %s", ttl)
	}
	return &TokenService{secret: secret, ttl: ttl, now: time.Now}, nil
}

// TTL returns the lifetime applied by Issue.
func (s *TokenService) TTL() time.Duration { return s.ttl }

// Issue signs a token for the subject valid for the configured TTL.
func (s *TokenService) Issue(subjectID, email string) (string, error) {
	return s.IssueTTL(subjectID, email, s.ttl)
}

// IssueTTL signs a token for the subject valid for ttl, rounded down to whole seconds.
func (s *TokenService) IssueTTL(subjectID, email string, ttl time.Duration) (string, error) {
	ttl = ttl.Truncate(time.Second)
	if ttl < time.Second {
		return "", fmt.Errorf("token ttl must be at least 1s, got %s", ttl)
	}
	iat := s.now().Truncate(time.Second)
	c := claims{
		UserID: subjectID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(iat),
			ExpiresAt: jwt.NewNumericDate(iat.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry of raw. The boolean is false for any
// malformed, forged or expired token and the reason is not reported.
func (s *TokenService) Verify(raw string) (Token, bool) {
	var c claims
	// The one second leeway makes the library agree with the check below:
	// a token is still valid during the second named by its exp claim.
	t, err := jwt.ParseWithClaims(raw, &c, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(time.Second),
		jwt.WithTimeFunc(s.now),
		jwt.WithStrictDecoding(),
	)
	if err != nil || !t.Valid {
		return Token{}, false
	}
	if c.UserID == "" || c.IssuedAt == nil || c.ExpiresAt == nil {
		return Token{}, false
	}
	tok := Token{
		SubjectID:    c.UserID,
		SubjectEmail: c.Email,
		IssuedAt:     c.IssuedAt.Unix(),
		ExpiresAt:    c.ExpiresAt.Unix(),
	}
	if tok.ExpiresAt <= tok.IssuedAt || tok.ExpiresAt < s.now().Unix() {
		return Token{}, false
	}
	return tok, true
}
