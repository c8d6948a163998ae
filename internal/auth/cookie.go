package auth

import (
	"net/http"
	"strings"
	"time"
)

// DefaultCookieName is the cookie carrying the session token.
const DefaultCookieName = "token"

// CookieSettings describe how the session cookie is issued and cleared.
// Clearing reuses the issuing attributes so browsers match the cookie.
type CookieSettings struct {
	Name       string
	TTL        time.Duration
	Production bool
}

// NewCookieSettings returns settings for the given environment name.
func NewCookieSettings(name string, ttl time.Duration, environment string) CookieSettings {
	if strings.TrimSpace(name) == "" {
		name = DefaultCookieName
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return CookieSettings{
		Name:       name,
		TTL:        ttl,
		Production: strings.EqualFold(strings.TrimSpace(environment), "production"),
	}
}

// SameSite is None in production so the cross-site frontend can send the cookie;
// Secure is required alongside it.
func (s CookieSettings) SameSite() http.SameSite {
	if s.Production {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}

// Set writes the session cookie.
func (s CookieSettings) Set(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.name(),
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.TTL / time.Second),
		Secure:   s.Production,
		HttpOnly: true,
		SameSite: s.SameSite(),
	})
}

// Clear expires the session cookie on the client.
func (s CookieSettings) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.name(),
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		Secure:   s.Production,
		HttpOnly: true,
		SameSite: s.SameSite(),
	})
}

// Read returns the session token from the request, or "" when absent.
func (s CookieSettings) Read(r *http.Request) string {
	cookie, err := r.Cookie(s.name())
	if err != nil {
		return ""
	}
	return cookie.Value
}

func (s CookieSettings) name() string {
	if s.Name == "" {
		return DefaultCookieName
	}
	return s.Name
}
