// Package response renders the JSON envelope shared by every endpoint.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/charlesng35/resumex/pkg/errors"
)

// Response is the envelope: success flag, optional message, data on success
// and error details on failure.
type Response struct {
	Success bool       `json:"success"`
	Message string     `json:"message,omitempty"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
}

// ErrorInfo is the client-facing part of an AppError.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Success writes a success envelope.
func Success(c *gin.Context, statusCode int, data any) {
	SuccessWithMessage(c, statusCode, "", data)
}

// SuccessWithMessage writes a success envelope with a human readable message.
func SuccessWithMessage(c *gin.Context, statusCode int, message string, data any) {
	c.JSON(statusCode, Response{Success: true, Message: message, Data: data})
}

// Error renders err as a failure envelope. The message is repeated at the top
// level for clients that only read message. Server-side failures are attached
// to the gin context so the access log records the cause.
func Error(c *gin.Context, err error) {
	appErr := apperrors.FromError(err)
	if appErr == nil {
		appErr = apperrors.ErrInternalServer
	}

	status := appErr.StatusCode
	if status == 0 {
		status = http.StatusInternalServerError
	}
	if status >= http.StatusInternalServerError && err != nil {
		_ = c.Error(err)
	}

	c.JSON(status, Response{
		Success: false,
		Message: appErr.Message,
		Error:   &ErrorInfo{Code: appErr.Code, Message: appErr.Message},
	})
}
