package api

import (
	"net/http"

	"adboard/internal/api/controllers"
	"adboard/internal/api/middleware"
	"adboard/internal/handlers"
	"adboard/internal/models"
	"adboard/internal/services"

	_ "adboard/docs/swagger"

	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"
)

func (s *Server) registerRoutes() {
	s.echo.GET("/", func(c echo.Context) error {
		return c.String(http.StatusOK, "Adboard API")
	})
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/swagger/*", echoSwagger.WrapHandler)

	// API v1 group
	api := s.echo.Group("/api/v1")
	auth := middleware.NewAuthMiddleware(s.config.JWT.Secret)
	api.Use(auth.Middleware())

	// Any authenticated user may update their own avatar
	userHandler := handlers.NewUserHandler(s.db)
	api.POST("/users/me/avatar", userHandler.UploadAvatar)

	// Ads and partners: admins and users write, viewers read
	board := api.Group("", middleware.RequireRoles("admin", "user", "viewer"), middleware.RequireWriter())

	adHandler := handlers.NewAdHandler(s.db)
	board.GET("/ads", adHandler.ListAds)
	board.GET("/ads/:id", adHandler.GetAd)
	board.POST("/ads", adHandler.CreateAd)
	board.PUT("/ads/:id", adHandler.UpdateAd)
	board.DELETE("/ads/:id", adHandler.DeleteAd)

	workbookHandler := handlers.NewWorkbookHandler(s.db)
	board.GET("/workbook/export", workbookHandler.ExportAds)
	board.POST("/workbook/import", workbookHandler.ImportAds)

	partnerHandler := handlers.NewPartnerHandler(s.db)
	board.GET("/partners", partnerHandler.ListPartners)
	board.GET("/partners/:id", partnerHandler.GetPartner)
	board.POST("/partners", partnerHandler.CreatePartner)
	board.PUT("/partners/:id", partnerHandler.UpdatePartner)
	board.DELETE("/partners/:id", partnerHandler.DeletePartner)

	statsHandler := handlers.NewStatsHandler(s.db)
	board.GET("/stats", statsHandler.GetStats)

	// Admin-only management surface
	admin := api.Group("", middleware.RequireRoles("admin"))

	admin.GET("/users", userHandler.ListUsers)
	admin.GET("/users/:id", userHandler.GetUser)
	admin.POST("/users", userHandler.CreateUser)
	admin.PUT("/users/:id", userHandler.UpdateUser)
	admin.DELETE("/users/:id", userHandler.DeleteUser)

	inviteHandler := handlers.NewInviteHandler(s.db)
	admin.GET("/invites", inviteHandler.ListInvites)
	admin.POST("/invites", inviteHandler.CreateInvite)
	admin.DELETE("/invites/:id", inviteHandler.DeleteInvite)

	settingsHandler := handlers.NewSettingsHandler(s.db)
	admin.GET("/settings", settingsHandler.ListSettings)
	admin.GET("/settings/:key", settingsHandler.GetSetting)
	admin.PUT("/settings/:key", settingsHandler.PutSetting)

	digestHandler := handlers.NewDigestHandler(s.db, s.taskClient, s.mailer)
	admin.POST("/digest/run", digestHandler.TriggerDigest)

	// Activity log is read-only, served by the generic controller
	logController := controllers.NewBaseController(
		services.NewBaseService(s.db, models.ActivityLog{}),
		"user_id", "username", "action", "entity_type", "entity_id")
	logController.RegisterRoutes(admin, "/logs", "GET")
}
