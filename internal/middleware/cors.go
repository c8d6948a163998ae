package middleware

import (
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/resumex/pkg/errors"
	"github.com/charlesng35/resumex/pkg/response"
)

// DefaultCORSOrigins is used when no allowlist is configured.
var DefaultCORSOrigins = []string{
	"http://localhost:5173",
	"http://localhost:3000",
	"https://*.vercel.app",
}

const (
	corsAllowMethods = "GET, POST, PUT, PATCH, DELETE, OPTIONS"
	corsAllowHeaders = "Content-Type, Authorization, X-Requested-With"
	corsMaxAge       = "600"
)

// OriginMatcher decides whether a browser origin may call the API with credentials.
type OriginMatcher struct {
	exact    map[string]struct{}
	wildcard []wildcardOrigin
}

type wildcardOrigin struct {
	scheme string
	host   *regexp.Regexp
}

// NewOriginMatcher compiles patterns. A pattern is either an exact origin or
// an origin with one "*" in the host, e.g. https://*.vercel.app. The scheme
// must always match exactly.
func NewOriginMatcher(patterns []string) *OriginMatcher {
	m := &OriginMatcher{exact: make(map[string]struct{})}
	for _, raw := range patterns {
		pattern := strings.TrimRight(strings.TrimSpace(raw), "/")
		if !strings.HasPrefix(pattern, "http") {
			continue
		}
		if !strings.Contains(pattern, "*") {
			m.exact[pattern] = struct{}{}
			continue
		}

		const marker = "wildcardmarker"
		parsed, err := url.Parse(strings.Replace(pattern, "*", marker, 1))
		if err != nil || parsed.Host == "" {
			continue
		}
		expr := strings.Replace(regexp.QuoteMeta(parsed.Host), marker, ".*", 1)
		re, err := regexp.Compile("(?i)^" + expr + "$")
		if err != nil {
			continue
		}
		m.wildcard = append(m.wildcard, wildcardOrigin{scheme: parsed.Scheme, host: re})
	}
	return m
}

// Allowed reports whether origin matches the allowlist.
func (m *OriginMatcher) Allowed(origin string) bool {
	if _, ok := m.exact[origin]; ok {
		return true
	}
	parsed, err := url.Parse(origin)
	if err != nil || parsed.Host == "" {
		return false
	}
	for _, w := range m.wildcard {
		if w.scheme == parsed.Scheme && w.host.MatchString(parsed.Host) {
			return true
		}
	}
	return false
}

// CORS applies an allowlist with credentials. Requests without an Origin
// header pass through untouched; disallowed origins get a 403.
func CORS(origins []string) gin.HandlerFunc {
	if len(origins) == 0 {
		origins = DefaultCORSOrigins
	}
	matcher := NewOriginMatcher(origins)

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" {
			c.Next()
			return
		}

		if !matcher.Allowed(origin) {
			response.Error(c, errors.NewForbidden("CORS_FORBIDDEN", fmt.Sprintf("Not allowed by CORS: %s", origin)))
			c.Abort()
			return
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Vary", "Origin")

		if c.Request.Method == http.MethodOptions {
			headers := c.GetHeader("Access-Control-Request-Headers")
			if headers == "" {
				headers = corsAllowHeaders
			}
			c.Header("Access-Control-Allow-Methods", corsAllowMethods)
			c.Header("Access-Control-Allow-Headers", headers)
			c.Header("Access-Control-Max-Age", corsMaxAge)
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
