package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charlesng35/resumex/pkg/crypto"
)

const (
	jwtSecretKey      = "auth.jwt.secret"
	generatedJWTBytes = 48
	minJWTSecretLen   = 32
)

var (
	// ErrMissingJWTSecret is returned when a production server starts without a signing secret.
	ErrMissingJWTSecret = errors.New(jwtSecretKey + " must be set in production")
	// ErrWeakJWTSecret is returned when a production signing secret is too short to resist guessing.
	ErrWeakJWTSecret = fmt.Errorf("%s must be at least %d characters in production", jwtSecretKey, minJWTSecretLen)
)

// EnsureSecrets fills in signing secrets missing from cfg and returns the keys
// it generated. Production configurations must supply their own secrets.
func EnsureSecrets(cfg *Config) ([]string, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	secret := strings.TrimSpace(cfg.Auth.JWT.Secret)
	if cfg.Server.Production() {
		switch {
		case secret == "":
			return nil, ErrMissingJWTSecret
		case len(secret) < minJWTSecretLen:
			return nil, ErrWeakJWTSecret
		}
		return nil, nil
	}
	if secret != "" {
		return nil, nil
	}

	generated, err := crypto.GenerateToken(generatedJWTBytes)
	if err != nil {
		return nil, fmt.Errorf("generate %s: %w", jwtSecretKey, err)
	}
	cfg.Auth.JWT.Secret = generated
	return []string{jwtSecretKey}, nil
}
