package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	iauth "github.com/charlesng35/resumex/internal/auth"
	"github.com/charlesng35/resumex/internal/services"
	apperrors "github.com/charlesng35/resumex/pkg/errors"
	"github.com/charlesng35/resumex/pkg/response"
)

// AuthHandler exposes the account lifecycle: signup, login, logout, email
// verification and password reset. Sessions travel in an HttpOnly cookie.
type AuthHandler struct {
	auth    *services.AuthService
	cookies iauth.CookieSettings
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(auth *services.AuthService, cookies iauth.CookieSettings) (*AuthHandler, error) {
	if auth == nil {
		return nil, errors.New("auth handler: auth service is required")
	}
	return &AuthHandler{auth: auth, cookies: cookies}, nil
}

type signupRequest struct {
	Name     string `json:"name" validate:"max=120"`
	Email    string `json:"email" validate:"max=320"`
	Password string `json:"password" validate:"maxbytes=72"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,max=320"`
	Password string `json:"password" validate:"required,maxbytes=72"`
}

type verifyEmailRequest struct {
	Code string `json:"code" validate:"max=16"`
}

type emailRequest struct {
	Email string `json:"email" validate:"max=320"`
}

type resetPasswordRequest struct {
	Password string `json:"password" validate:"maxbytes=72"`
}

// POST /api/auth/signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var req signupRequest
	if !bindAndValidate(c, &req) {
		return
	}

	session, err := h.auth.Signup(requestContext(c), req.Name, req.Email, req.Password)
	if err != nil {
		publicFailure(c, err)
		return
	}

	h.cookies.Set(c.Writer, session.Token)
	response.SuccessWithMessage(c, http.StatusCreated, "User created successfully", gin.H{"user": session.User})
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	session, err := h.auth.Login(requestContext(c), req.Email, req.Password)
	if err != nil {
		publicFailure(c, err)
		return
	}

	h.cookies.Set(c.Writer, session.Token)
	response.SuccessWithMessage(c, http.StatusOK, "Logged in successfully", gin.H{"user": session.User})
}

// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	h.cookies.Clear(c.Writer)
	response.SuccessWithMessage(c, http.StatusOK, "Logged out successfully", nil)
}

// POST /api/auth/verify-email
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	var req verifyEmailRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, err := h.auth.VerifyEmail(requestContext(c), req.Code)
	if err != nil {
		publicFailure(c, err)
		return
	}
	response.SuccessWithMessage(c, http.StatusOK, "Email verified successfully", gin.H{"user": user})
}

// POST /api/auth/resend-verification
func (h *AuthHandler) ResendVerification(c *gin.Context) {
	var req emailRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.auth.ResendVerification(requestContext(c), req.Email); err != nil {
		publicFailure(c, err)
		return
	}
	response.SuccessWithMessage(c, http.StatusOK, "Verification code sent", nil)
}

// POST /api/auth/forgot-password
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req emailRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.auth.ForgotPassword(requestContext(c), req.Email); err != nil {
		publicFailure(c, err)
		return
	}
	response.SuccessWithMessage(c, http.StatusOK, "Password reset link sent to your email", nil)
}

// POST /api/auth/reset-password/:token
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.auth.ResetPassword(requestContext(c), c.Param("token"), req.Password); err != nil {
		publicFailure(c, err)
		return
	}
	response.SuccessWithMessage(c, http.StatusOK, "Password reset successful", nil)
}

// GET /api/auth/check
func (h *AuthHandler) CheckAuth(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	user, err := h.auth.CheckAuth(requestContext(c), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user": user})
}

// publicFailure renders caller mistakes on the unauthenticated auth routes as
// 400 while keeping their error code. Server faults keep their status.
func publicFailure(c *gin.Context, err error) {
	appErr := apperrors.FromError(err)
	if appErr.StatusCode >= http.StatusBadRequest && appErr.StatusCode < http.StatusInternalServerError {
		appErr = appErr.WithStatus(http.StatusBadRequest)
	}
	response.Error(c, appErr)
}
