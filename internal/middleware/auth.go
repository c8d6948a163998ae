package middleware

import (
	"github.com/gin-gonic/gin"

	iauth "github.com/charlesng35/resumex/internal/auth"
	"github.com/charlesng35/resumex/pkg/errors"
	"github.com/charlesng35/resumex/pkg/response"
)

const (
	CtxClaimsKey = "authClaims"
	CtxUserIDKey = "userID"
)

// Auth requires a valid session cookie and exposes the caller's user id
// under CtxUserIDKey.
func Auth(signer *iauth.SessionSigner, cookies iauth.CookieSettings) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := cookies.Read(c.Request)
		if token == "" {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		claims, err := signer.Verify(token)
		if err != nil {
			// Bad signature, wrong issuer and expiry all look the same to clients.
			response.Error(c, errors.ErrUnauthorized.WithInternal(err))
			c.Abort()
			return
		}

		c.Set(CtxClaimsKey, claims)
		c.Set(CtxUserIDKey, claims.UserID())

		c.Next()
	}
}

// UserID returns the authenticated user id set by Auth.
func UserID(c *gin.Context) (string, bool) {
	value, ok := c.Get(CtxUserIDKey)
	if !ok {
		return "", false
	}
	id, ok := value.(string)
	return id, ok && id != ""
}
