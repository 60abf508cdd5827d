package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/linisbayan/linisbayan/internal/app"
	iauth "github.com/linisbayan/linisbayan/internal/auth"
	"github.com/linisbayan/linisbayan/internal/dispatch"
	"github.com/linisbayan/linisbayan/internal/handlers"
	"github.com/linisbayan/linisbayan/internal/middleware"
	"github.com/linisbayan/linisbayan/internal/notifications"
	"github.com/linisbayan/linisbayan/internal/services"
)

// Dependencies bundles everything the router needs beyond the database.
type Dependencies struct {
	JWT           *iauth.JWTService
	Dispatcher    *dispatch.Dispatcher
	Hub           *notifications.Hub
	Verification  *services.VerificationService
	PasswordReset *services.PasswordResetService
}

// NewRouter builds the Gin engine, wires middleware and registers all routes.
func NewRouter(db *gorm.DB, cfg *app.Config, deps Dependencies) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}
	if deps.JWT == nil {
		return nil, fmt.Errorf("jwt service must be provided")
	}
	if deps.Dispatcher == nil {
		return nil, fmt.Errorf("dispatcher must be provided")
	}

	r := gin.New()

	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())

	if cfg.Monitoring.Health.Enabled {
		r.GET("/health", handlers.Health())
	}
	if cfg.Monitoring.Prometheus.Enabled {
		endpoint := cfg.Monitoring.Prometheus.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	authHandler, err := handlers.NewAuthHandler(db, deps.JWT)
	if err != nil {
		return nil, err
	}
	verificationHandler, err := handlers.NewVerificationHandler(db, deps.Verification, deps.PasswordReset)
	if err != nil {
		return nil, err
	}

	// Public auth routes
	auth := r.Group("/api/v1/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/forgot-password", verificationHandler.ForgotPassword)
		auth.POST("/reset-password", verificationHandler.ResetPassword)
	}

	notificationHandler, err := handlers.NewNotificationHandler(db, deps.Hub, deps.JWT)
	if err != nil {
		return nil, err
	}

	// The WebSocket endpoint authenticates via query token, not the header
	// middleware.
	r.GET("/api/v1/notifications/stream", notificationHandler.Stream)

	requireAuth := middleware.Auth(deps.JWT)

	api := r.Group("/api/v1")
	api.Use(requireAuth)

	api.GET("/auth/me", authHandler.Me)

	reportHandler, err := handlers.NewReportHandler(db, deps.Dispatcher)
	if err != nil {
		return nil, err
	}
	reports := api.Group("/reports")
	{
		reports.POST("", reportHandler.Create)
		reports.GET("", reportHandler.List)
		reports.GET("/:id", reportHandler.Get)
		reports.POST("/:id/upvote", reportHandler.Upvote)
		reports.POST("/:id/comments", reportHandler.AddComment)
		reports.DELETE("/:id", reportHandler.Delete)

		reports.PUT("/:id/status", middleware.RequireAdmin(), reportHandler.SetStatus)
		reports.PUT("/:id/approval", middleware.RequireAdmin(), reportHandler.SetApproval)
		reports.PUT("/:id/response", middleware.RequireAdmin(), reportHandler.SetAdminResponse)
		reports.POST("/:id/rejection-warning", middleware.RequireAdmin(), reportHandler.SendRejectionWarning)
	}

	announcementHandler, err := handlers.NewAnnouncementHandler(db, deps.Dispatcher)
	if err != nil {
		return nil, err
	}
	announcements := api.Group("/announcements")
	{
		announcements.GET("", announcementHandler.List)
		announcements.GET("/:id", announcementHandler.Get)
		announcements.POST("", middleware.RequireAdmin(), announcementHandler.Create)
		announcements.DELETE("/:id", middleware.RequireAdmin(), announcementHandler.Delete)
	}

	inbox := api.Group("/notifications")
	{
		inbox.GET("", notificationHandler.List)
		inbox.GET("/unread-count", notificationHandler.UnreadCount)
		inbox.PUT("/read-all", notificationHandler.MarkAllRead)
		inbox.PUT("/:id/read", notificationHandler.MarkRead)
		inbox.DELETE("/:id", notificationHandler.Delete)
		inbox.DELETE("", notificationHandler.DeleteAll)
	}

	userHandler, err := handlers.NewUserHandler(db, deps.Verification)
	if err != nil {
		return nil, err
	}
	users := api.Group("/users")
	{
		users.PUT("/me/settings", userHandler.UpdateSettings)
		users.PUT("/me/password", userHandler.ChangePassword)
		users.GET("", middleware.RequireAdmin(), userHandler.List)
		users.DELETE("/:id", middleware.RequireAdmin(), userHandler.Delete)
	}

	verification := api.Group("/verification")
	{
		verification.POST("/send", verificationHandler.SendCode)
		verification.POST("/verify", verificationHandler.VerifyCode)
	}

	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
