package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultSessionTTL is the session lifetime used when none is configured.
const DefaultSessionTTL = 7 * 24 * time.Hour

var (
	// ErrTokenExpired reports a well-formed session token past its expiry.
	ErrTokenExpired = errors.New("session: token expired")
	// ErrTokenInvalid covers every other rejection: bad signature, wrong
	// issuer, malformed payload, missing subject.
	ErrTokenInvalid = errors.New("session: token invalid")
)

// SignerConfig bundles the inputs of NewSessionSigner.
type SignerConfig struct {
	Secret string
	Issuer string
	TTL    time.Duration
	// Leeway tolerates clock skew when checking exp and nbf.
	Leeway time.Duration
	Clock  func() time.Time
}

// SessionClaims is the payload of a session token. The subject holds the
// user id and the token id is unique per login.
type SessionClaims struct {
	jwt.RegisteredClaims
}

// UserID returns the user the session belongs to.
func (c *SessionClaims) UserID() string { return c.Subject }

// SignedToken is a freshly issued session token.
type SignedToken struct {
	Value     string
	ID        string
	ExpiresAt time.Time
}

// SessionSigner issues and verifies HS256 session tokens. Tokens are not
// stored server side, so one stays valid until it expires even after logout.
type SessionSigner struct {
	key    []byte
	issuer string
	ttl    time.Duration
	parser *jwt.Parser
	now    func() time.Time
}

// NewSessionSigner validates cfg and applies defaults.
func NewSessionSigner(cfg SignerConfig) (*SessionSigner, error) {
	if cfg.Secret == "" {
		return nil, errors.New("session: signing secret is required")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultSessionTTL
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(cfg.Clock),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(cfg.Leeway),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	return &SessionSigner{
		key:    []byte(cfg.Secret),
		issuer: cfg.Issuer,
		ttl:    cfg.TTL,
		parser: jwt.NewParser(opts...),
		now:    cfg.Clock,
	}, nil
}

// Sign issues a session token for userID.
func (s *SessionSigner) Sign(userID string) (SignedToken, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return SignedToken{}, errors.New("session: user id is required")
	}

	issuedAt := s.now().UTC().Truncate(time.Second)
	claims := SessionClaims{RegisteredClaims: jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   userID,
		Issuer:    s.issuer,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		NotBefore: jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.ttl)),
	}}

	value, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return SignedToken{}, fmt.Errorf("session: sign: %w", err)
	}
	return SignedToken{Value: value, ID: claims.ID, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// Verify checks the signature and time claims of raw and returns its claims.
// Errors wrap ErrTokenExpired or ErrTokenInvalid.
func (s *SessionSigner) Verify(raw string) (*SessionClaims, error) {
	if raw == "" {
		return nil, fmt.Errorf("%w: empty token", ErrTokenInvalid)
	}

	var claims SessionClaims
	_, err := s.parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return s.key, nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, fmt.Errorf("%w: %w", ErrTokenExpired, err)
	case err != nil:
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	case claims.Subject == "":
		return nil, fmt.Errorf("%w: missing subject", ErrTokenInvalid)
	}
	return &claims, nil
}
