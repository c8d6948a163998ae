package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/resumex/internal/middleware"
	apperrors "github.com/charlesng35/resumex/pkg/errors"
	"github.com/charlesng35/resumex/pkg/response"
)

// requestContext safely returns the request context with a background fallback for tests.
func requestContext(c *gin.Context) context.Context {
	if c == nil {
		return context.Background()
	}
	if req := c.Request; req != nil {
		return req.Context()
	}
	return context.Background()
}

// requireUserID returns the authenticated user id, writing a 401 when the
// session middleware did not run or stored nothing.
func requireUserID(c *gin.Context) (string, bool) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperrors.ErrUnauthorized)
		return "", false
	}
	return userID, true
}
