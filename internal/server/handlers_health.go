package server

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/brockodle/twitchfollowergoal/internal/version"
)

func (s *Server) handleLiveness(c echo.Context) error {
	uptime := time.Since(s.startTime).Seconds()
	return c.JSON(200, map[string]any{
		"status": "ok",
		"uptime": uptime,
	})
}

// handleReadiness verifies the goal projection works and the broadcast hub
// answers. There is no external storage to check.
func (s *Server) handleReadiness(c echo.Context) error {
	if _, err := s.projection(); err != nil {
		return c.JSON(503, map[string]any{
			"status":       "unhealthy",
			"failed_check": "projection",
			"error":        err.Error(),
		})
	}

	return c.JSON(200, map[string]any{
		"status":         "ready",
		"widget_clients": s.hub.ClientCount(),
	})
}

func (s *Server) handleVersion(c echo.Context) error {
	return c.JSON(200, version.Get())
}
