package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func newSigner(t *testing.T, clock *fakeClock, mutate ...func(*SignerConfig)) *SessionSigner {
	t.Helper()
	cfg := SignerConfig{Secret: "super-secret", Issuer: "resumex", Clock: clock.Now}
	for _, m := range mutate {
		m(&cfg)
	}
	s, err := NewSessionSigner(cfg)
	require.NoError(t, err)
	return s
}

func TestNewSessionSignerDefaults(t *testing.T) {
	_, err := NewSessionSigner(SignerConfig{})
	require.EqualError(t, err, "session: signing secret is required")

	s, err := NewSessionSigner(SignerConfig{Secret: "secret"})
	require.NoError(t, err)
	token, err := s.Sign("user-1")
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().Add(DefaultSessionTTL), token.ExpiresAt, time.Minute)
}

func TestSignAndVerify(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 500, time.UTC)}
	s := newSigner(t, clock)

	first, err := s.Sign(" user-123 ")
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)
	require.Equal(t, time.Date(2024, 1, 8, 12, 0, 0, 0, time.UTC), first.ExpiresAt)

	second, err := s.Sign("user-123")
	require.NoError(t, err)
	require.NotEqual(t, first.ID, second.ID)

	claims, err := s.Verify(first.Value)
	require.NoError(t, err)
	require.Equal(t, "user-123", claims.UserID())
	require.Equal(t, "resumex", claims.Issuer)
	require.Equal(t, first.ID, claims.ID)

	_, err = s.Sign("  ")
	require.Error(t, err)
}

func TestVerifyRejectsForeignTokens(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 13, 0, 0, 0, time.UTC)}
	signed, err := newSigner(t, clock).Sign("user-123")
	require.NoError(t, err)

	cases := map[string]*SessionSigner{
		"other secret": newSigner(t, clock, func(c *SignerConfig) { c.Secret = "different" }),
		"other issuer": newSigner(t, clock, func(c *SignerConfig) { c.Issuer = "someone-else" }),
	}
	for name, verifier := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := verifier.Verify(signed.Value)
			require.ErrorIs(t, err, ErrTokenInvalid)
		})
	}

	_, err = newSigner(t, clock).Verify("")
	require.ErrorIs(t, err, ErrTokenInvalid)

	_, err = newSigner(t, clock).Verify("not.a.jwt")
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyRejectsOtherAlgorithms(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := newSigner(t, clock)

	claims := jwt.RegisteredClaims{
		Subject:   "user-123",
		Issuer:    "resumex",
		IssuedAt:  jwt.NewNumericDate(clock.now),
		ExpiresAt: jwt.NewNumericDate(clock.now.Add(time.Hour)),
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("super-secret"))
	require.NoError(t, err)

	_, err = s.Verify(raw)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyExpiryAndLeeway(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := newSigner(t, clock, func(c *SignerConfig) { c.TTL = time.Hour })
	lenient := newSigner(t, clock, func(c *SignerConfig) {
		c.TTL = time.Hour
		c.Leeway = 5 * time.Minute
	})

	signed, err := s.Sign("user-123")
	require.NoError(t, err)

	clock.now = clock.now.Add(time.Hour + time.Minute)
	_, err = s.Verify(signed.Value)
	require.ErrorIs(t, err, ErrTokenExpired)

	_, err = lenient.Verify(signed.Value)
	require.NoError(t, err)
}
