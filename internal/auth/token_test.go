package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestTokenService(t *testing.T, secret string) (*TokenService, *fakeClock) {
	t.Helper()
	s, err := NewTokenService([]byte(secret), 0)
	require.NoError(t, err)
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	s.now = clock.now
	return s, clock
}

func TestNewTokenService(t *testing.T) {
	t.Parallel()

	_, err := NewTokenService(nil, time.Hour)
	assert.Error(t, err)
	_, err = NewTokenService([]byte("k"), 500*time.Millisecond)
	assert.Error(t, err)
	_, err = NewTokenService([]byte("k"), -time.Hour)
	assert.Error(t, err)

	s, err := NewTokenService([]byte("k"), 0)
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, s.TTL())
	assert.Equal(t, int64(86400), int64(DefaultTokenTTL/time.Second))
}

func TestTokenService_IssueVerify(t *testing.T) {
	t.Parallel()

	s, clock := newTestTokenService(t, "super-secret")

	raw, err := s.Issue("user-123", "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(raw, "."))

	tok, ok := s.Verify(raw)
	require.True(t, ok)
	assert.Equal(t, "user-123", tok.SubjectID)
	assert.Equal(t, "a@b.com", tok.SubjectEmail)
	assert.Equal(t, clock.t.Unix(), tok.IssuedAt)
	assert.Equal(t, tok.IssuedAt+86400, tok.ExpiresAt)
}

func TestTokenService_ValidityWindow(t *testing.T) {
	t.Parallel()

	s, clock := newTestTokenService(t, "secret")

	raw, err := s.IssueTTL("u1", "u1@example.com", time.Minute)
	require.NoError(t, err)

	_, ok := s.Verify(raw)
	assert.True(t, ok, "fresh token")

	clock.advance(time.Minute)
	_, ok = s.Verify(raw)
	assert.True(t, ok, "token is valid through its expiry second")

	clock.advance(time.Second)
	_, ok = s.Verify(raw)
	assert.False(t, ok, "token past expiry")
}

func TestTokenService_IssueTTLRejectsSubSecond(t *testing.T) {
	t.Parallel()

	s, _ := newTestTokenService(t, "secret")
	_, err := s.IssueTTL("u1", "e", 0)
	assert.Error(t, err)
	_, err = s.IssueTTL("u1", "e", 999*time.Millisecond)
	assert.Error(t, err)
}

func TestTokenService_WrongSecret(t *testing.T) {
	t.Parallel()

	issuer, _ := newTestTokenService(t, "right-secret")
	verifier, _ := newTestTokenService(t, "wrong-secret")

	raw, err := issuer.Issue("u2", "u2@example.com")
	require.NoError(t, err)

	_, ok := verifier.Verify(raw)
	assert.False(t, ok)
}

func TestTokenService_TamperedToken(t *testing.T) {
	t.Parallel()

	s, _ := newTestTokenService(t, "secret")
	raw, err := s.Issue("u3", "u3@example.com")
	require.NoError(t, err)

	for i := range raw {
		b := []byte(raw)
		if b[i] == 'A' {
			b[i] = 'B'
		} else {
			b[i] = 'A'
		}
		_, ok := s.Verify(string(b))
		assert.False(t, ok, "byte %d changed from %q", i, raw[i])
	}
}

func TestTokenService_Malformed(t *testing.T) {
	t.Parallel()

	s, _ := newTestTokenService(t, "secret")
	for _, raw := range []string{"", "not.a.jwt", "abc", "a.b.c.d", "...."} {
		_, ok := s.Verify(raw)
		assert.False(t, ok, "token %q", raw)
	}
}

func TestTokenService_RejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()

	s, clock := newTestTokenService(t, "secret")
	c := claims{
		UserID: "u4",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(clock.t),
			ExpiresAt: jwt.NewNumericDate(clock.t.Add(time.Hour)),
		},
	}

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, c).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, ok := s.Verify(none)
	assert.False(t, ok, "alg none")

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, c).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, ok = s.Verify(hs512)
	assert.False(t, ok, "HS512")
}

func TestTokenService_RequiresClaims(t *testing.T) {
	t.Parallel()

	s, clock := newTestTokenService(t, "secret")
	sign := func(c claims) string {
		raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte("secret"))
		require.NoError(t, err)
		return raw
	}
	iat := jwt.NewNumericDate(clock.t)
	exp := jwt.NewNumericDate(clock.t.Add(time.Hour))

	_, ok := s.Verify(sign(claims{UserID: "u", RegisteredClaims: jwt.RegisteredClaims{IssuedAt: iat}}))
	assert.False(t, ok, "missing exp")
	_, ok = s.Verify(sign(claims{UserID: "u", RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: exp}}))
	assert.False(t, ok, "missing iat")
	_, ok = s.Verify(sign(claims{RegisteredClaims: jwt.RegisteredClaims{IssuedAt: iat, ExpiresAt: exp}}))
	assert.False(t, ok, "missing user id")
	_, ok = s.Verify(sign(claims{UserID: "u", RegisteredClaims: jwt.RegisteredClaims{IssuedAt: exp, ExpiresAt: iat}}))
	assert.False(t, ok, "exp before iat")
	_, ok = s.Verify(sign(claims{UserID: "u", RegisteredClaims: jwt.RegisteredClaims{IssuedAt: iat, ExpiresAt: exp}}))
	assert.True(t, ok)
}
