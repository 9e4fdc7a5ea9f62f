package routes

import (
	"adboard/internal/api/middleware"
	"adboard/internal/config"
	"adboard/internal/handlers"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

func SetupAuthRoutes(e *echo.Echo, db *gorm.DB, cfg *config.Config) {
	authHandler := handlers.NewAuthHandler(db, cfg.JWT.Secret)

	base := e.Group("/api/v1")

	// Public auth routes group
	auth := base.Group("/auth")

	// Public routes (no auth required)
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.GET("/approve/:token", authHandler.Approve)
	auth.POST("/password-reset", authHandler.RequestPasswordReset)
	auth.POST("/password-reset/verify", authHandler.ConfirmPasswordReset)

	// Protected auth routes (require authentication)
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret)
	protectedAuth := base.Group("/auth")
	protectedAuth.Use(authMiddleware.Middleware())

	protectedAuth.POST("/logout", authHandler.Logout)
	protectedAuth.GET("/me", authHandler.GetMe)
}
