package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/resumex/internal/handlers"
	"github.com/charlesng35/resumex/internal/middleware"
)

type authRouteDeps struct {
	Handler     *handlers.AuthHandler
	RequireAuth gin.HandlerFunc
	RateLimit   gin.HandlerFunc
}

func registerAuthRoutes(engine *gin.Engine, deps authRouteDeps) {
	auth := engine.Group("/api/auth")
	auth.Use(middleware.NoStore())

	public := auth.Group("")
	public.Use(deps.RateLimit)
	{
		public.POST("/signup", deps.Handler.Signup)
		public.POST("/login", deps.Handler.Login)
		public.POST("/verify-email", deps.Handler.VerifyEmail)
		public.POST("/resend-verification", deps.Handler.ResendVerification)
		public.POST("/forgot-password", deps.Handler.ForgotPassword)
		public.POST("/reset-password/:token", deps.Handler.ResetPassword)
	}

	auth.POST("/logout", deps.Handler.Logout)
	auth.GET("/check", deps.RequireAuth, deps.Handler.CheckAuth)
}
