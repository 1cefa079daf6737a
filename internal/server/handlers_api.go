package server

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/labstack/echo/v4"

	apperrors "github.com/brockodle/twitchfollowergoal/internal/errors"
	"github.com/brockodle/twitchfollowergoal/internal/goal"
)

// followersResponse is the wire shape of the follower resource.
type followersResponse struct {
	FollowerCount int         `json:"follower_count"`
	Target        int         `json:"target"`
	Percentage    float64     `json:"percentage"`
	Remaining     int         `json:"remaining"`
	Tier          goal.Tier   `json:"tier"`
	Banner        goal.Banner `json:"banner"`
	Achieved      bool        `json:"achieved"`
}

func toFollowersResponse(p goal.Projection) followersResponse {
	return followersResponse{
		FollowerCount: p.Current,
		Target:        p.Target,
		Percentage:    p.Percentage,
		Remaining:     p.Remaining,
		Tier:          p.Tier,
		Banner:        p.Banner,
		Achieved:      p.Achieved,
	}
}

func (s *Server) handleAuthStatus(c echo.Context) error {
	if err := c.JSON(200, map[string]bool{"authenticated": s.oauth.Authenticated()}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleCurrentFollowers(c echo.Context) error {
	projection, err := s.projection()
	if err != nil {
		return apperrors.InternalError("failed to compute goal projection", err)
	}
	if err := c.JSON(200, toFollowersResponse(projection)); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleSetFollowers(c echo.Context) error {
	var body struct {
		Count *int `json:"count"`
	}
	if err := c.Bind(&body); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if body.Count == nil {
		return apperrors.ValidationError("count is required")
	}

	if _, err := s.counter.Apply(goal.Update{
		Kind:   goal.KindSetAbsolute,
		Value:  *body.Count,
		Source: goal.SourceManual,
	}); err != nil {
		if errors.Is(err, goal.ErrInvalidCount) {
			return apperrors.ValidationError("count must not be negative").WithField("count", *body.Count)
		}
		return apperrors.InternalError("failed to set follower count", err)
	}

	slog.Info("Follower count set manually", "count", *body.Count, "ip", c.RealIP())

	projection, err := s.projection()
	if err != nil {
		return apperrors.InternalError("failed to compute goal projection", err)
	}
	if err := c.JSON(200, toFollowersResponse(projection)); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleNewFollow(c echo.Context) error {
	var body struct {
		Name string `json:"name"`
	}
	// Body is optional; a bare POST simulates an anonymous follow.
	_ = c.Bind(&body)

	if _, err := s.counter.Apply(goal.Update{
		Kind:   goal.KindIncrement,
		Source: goal.SourceManual,
		Who:    body.Name,
	}); err != nil {
		return apperrors.InternalError("failed to record follow", err)
	}

	slog.Info("Manual follow recorded", "name", body.Name)

	projection, err := s.projection()
	if err != nil {
		return apperrors.InternalError("failed to compute goal projection", err)
	}
	if err := c.JSON(200, toFollowersResponse(projection)); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

// handleTwitchFollowers proxies the upstream follower count. Without
// credentials, or when the upstream call fails, it answers with the local
// counter and marks the response as mock data.
func (s *Server) handleTwitchFollowers(c echo.Context) error {
	if s.twitch != nil {
		count, err := s.twitch.FollowerCount(c.Request().Context())
		if err == nil {
			if err := c.JSON(200, map[string]any{
				"follower_count": count,
				"username":       s.config.TwitchUsername,
				"mock":           false,
			}); err != nil {
				return fmt.Errorf("failed to send JSON response: %w", err)
			}
			return nil
		}
		slog.Warn("Twitch follower lookup failed, serving mock data", "error", err)
	}

	if err := c.JSON(200, map[string]any{
		"follower_count": s.counter.Current(),
		"username":       s.config.TwitchUsername,
		"mock":           true,
	}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
