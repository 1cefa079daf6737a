package server

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerRoutes() {
	// Observability endpoints
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/version", s.handleVersion)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Root - redirect to the widget
	s.echo.GET("/", func(c echo.Context) error {
		return c.Redirect(302, "/widget")
	})

	// Auth routes
	s.echo.GET("/auth/streamlabs", s.handleStreamlabsAuth)
	s.echo.GET("/auth/callback", s.handleOAuthCallback)

	// API routes (all cache-disabled, writes rate limited)
	s.echo.GET("/api/auth-status", s.handleAuthStatus, noCache)
	s.echo.GET("/api/current-followers", s.handleCurrentFollowers, noCache)
	s.echo.GET("/api/twitch-followers", s.handleTwitchFollowers, noCache)
	s.echo.POST("/api/set-followers", s.handleSetFollowers, noCache, s.rateLimit)
	s.echo.POST("/api/new-follow", s.handleNewFollow, noCache, s.rateLimit)

	// Widget page and its WebSocket feed
	s.echo.GET("/widget", s.handleWidget, noCache)
	s.echo.GET("/ws/widget", s.handleWebSocket)
}
