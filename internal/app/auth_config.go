package app

import (
	"time"

	"github.com/charlesng35/resumex/internal/auth"
	"github.com/charlesng35/resumex/internal/services"
)

const defaultJWTLeeway = 30 * time.Second

// SignerConfig maps the jwt section onto session signer settings, filling
// zero durations with defaults.
func (c AuthConfig) SignerConfig() auth.SignerConfig {
	cfg := auth.SignerConfig{
		Secret: c.JWT.Secret,
		Issuer: c.JWT.Issuer,
		TTL:    c.JWT.TTL,
		Leeway: c.JWT.Leeway,
	}
	if cfg.TTL <= 0 {
		cfg.TTL = auth.DefaultSessionTTL
	}
	if cfg.Leeway <= 0 {
		cfg.Leeway = defaultJWTLeeway
	}
	return cfg
}

// CookieSettings derives the session cookie policy. Production servers issue
// Secure, SameSite=None cookies; everything else gets Lax.
func (c AuthConfig) CookieSettings(environment string) auth.CookieSettings {
	return auth.NewCookieSettings(c.CookieName, c.SignerConfig().TTL, environment)
}

// AuthServiceOptions converts the token lifetimes, hashing cost and notify policy
// into AuthService options. Zero values keep the service defaults.
func (c AuthConfig) AuthServiceOptions() []services.AuthOption {
	return []services.AuthOption{
		services.WithVerificationTTL(c.VerificationTTL),
		services.WithResetTTL(c.ResetTTL),
		services.WithPasswordCost(c.BcryptCost),
		services.WithNotifyPolicy(services.ParseNotifyPolicy(c.NotifyPolicy)),
	}
}
