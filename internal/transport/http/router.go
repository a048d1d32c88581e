package http

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"onsalenow.io/analytics/internal/transport/mw"
)

// NewRouter sets up all Echo routes and middleware.
func NewRouter(h *Handler, jwtSecret, adminRole string) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// Global middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		AllowMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
	}))

	// Health and metrics (no auth required)
	e.GET("/health", h.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Admin console, admin role required
	admin := e.Group("/admin")
	admin.Use(mw.JWTAuth(jwtSecret))
	admin.Use(mw.RequireRole(adminRole))

	admin.GET("/analytics", h.GetAnalytics)
	admin.POST("/analytics/refresh", h.RefreshAnalytics)
	admin.GET("/analytics/sellers", h.ListSellers)
	admin.GET("/analytics/stream", h.Stream)
	admin.POST("/notifications/evaluate", h.Evaluate)
	admin.POST("/test-data/sellers", h.SeedTestSeller)
	admin.DELETE("/test-data/sellers/:email", h.DeleteTestSeller)

	// Storefront, any authenticated user
	store := e.Group("/storefront")
	store.Use(mw.JWTAuth(jwtSecret))

	store.GET("/recommendations/home", h.HomeRecommendations)
	store.GET("/recommendations/for-you", h.ForYouRecommendations)

	return e
}
