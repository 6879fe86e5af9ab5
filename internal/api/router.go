package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	iauth "github.com/nvalerio/accountd/internal/auth"
	"github.com/nvalerio/accountd/internal/handlers"
	"github.com/nvalerio/accountd/internal/middleware"
	"github.com/nvalerio/accountd/internal/services"
)

// RouterConfig carries the transport-level knobs the engine needs.
type RouterConfig struct {
	Cookies         handlers.CookieSettings
	Audit           *services.AuditService
	RateStore       middleware.RateStore
	RateLimitMax    int
	RateLimitWindow time.Duration
}

// NewRouter builds the Gin engine, wires middleware and registers routes.
func NewRouter(accounts *services.AccountService, sessions *iauth.SessionManager, cfg RouterConfig) (*gin.Engine, error) {
	if accounts == nil {
		return nil, fmt.Errorf("account service must be provided")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session manager must be provided")
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.RateLimit(cfg.RateStore, cfg.RateLimitMax, cfg.RateLimitWindow))

	// Health endpoint (public)
	r.GET("/health", handlers.Health())

	accountHandler := handlers.NewAccountHandler(accounts, sessions, cfg.Cookies)
	authHandler := handlers.NewAuthHandler(accounts, sessions, cfg.Audit, cfg.Cookies)

	// Public routes
	public := r.Group("/api")
	{
		public.POST("/accounts", accountHandler.Register)
		public.POST("/accounts/confirm", accountHandler.Confirm)
		public.POST("/auth/login", authHandler.Login)
	}

	// Protected routes
	requireSession := middleware.SessionAuth(sessions)

	protected := r.Group("/api")
	protected.Use(requireSession)
	{
		protected.GET("/auth/me", authHandler.Me)
		protected.POST("/auth/logout", authHandler.Logout)
		protected.DELETE("/accounts/me", accountHandler.DeleteMe)
	}

	// Metrics endpoint
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// NotFound fallback
	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
