// Package twitch wraps the Twitch Helix API for follower lookups. The
// follows endpoint has been deprecated upstream, so callers must be ready
// for FollowerCount to fail and fall back to the manual counter.
package twitch

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/nicklaw5/helix/v2"
	"github.com/sony/gobreaker"

	"github.com/brockodle/twitchfollowergoal/internal/metrics"
)

// helixAPI is the subset of the helix client used here. Swappable for tests.
type helixAPI interface {
	RequestAppAccessToken(scopes []string) (*helix.AppAccessTokenResponse, error)
	SetAppAccessToken(token string)
	GetUsers(params *helix.UsersParams) (*helix.UsersResponse, error)
	GetUsersFollows(params *helix.UsersFollowsParams) (*helix.UsersFollowsResponse, error)
}

// Client fetches follower counts for a single channel. Outbound calls are
// guarded by a circuit breaker so a failing upstream is not hammered on
// every poll.
type Client struct {
	api      helixAPI
	username string
	breaker  *gobreaker.CircuitBreaker

	mu       sync.Mutex
	tokenSet bool
	userID   string
}

// NewClient creates a Twitch client for the given channel login.
func NewClient(clientID, clientSecret, username string) (*Client, error) {
	api, err := helix.NewClient(&helix.Options{
		ClientID:     clientID,
		ClientSecret: clientSecret,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create helix client: %w", err)
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "twitch",
		Timeout: 30 * time.Second,
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("Twitch circuit breaker state change", "from", from.String(), "to", to.String())
		},
	})

	return &Client{api: api, username: username, breaker: breaker}, nil
}

// FollowerCount returns the channel's follower total. Any upstream failure
// (including the deprecated follows endpoint being gone) surfaces as an
// error so the caller can fall back to the manual counter.
func (c *Client) FollowerCount(ctx context.Context) (int, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.followerCount(ctx)
	})
	if err != nil {
		metrics.TwitchPollsTotal.WithLabelValues("error").Inc()
		return 0, err
	}

	metrics.TwitchPollsTotal.WithLabelValues("ok").Inc()
	return result.(int), nil
}

func (c *Client) followerCount(ctx context.Context) (int, error) {
	if err := c.ensureAppToken(); err != nil {
		return 0, err
	}

	userID, err := c.resolveUserID()
	if err != nil {
		return 0, err
	}

	resp, err := c.api.GetUsersFollows(&helix.UsersFollowsParams{ToID: userID})
	if err != nil {
		return 0, fmt.Errorf("follows request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		// 410 Gone: the endpoint was retired by Twitch.
		return 0, fmt.Errorf("follows endpoint returned status %d: %s", resp.StatusCode, resp.ErrorMessage)
	}

	return resp.Data.Total, nil
}

func (c *Client) ensureAppToken() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.tokenSet {
		return nil
	}

	resp, err := c.api.RequestAppAccessToken(nil)
	if err != nil {
		return fmt.Errorf("app token request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("app token request returned status %d: %s", resp.StatusCode, resp.ErrorMessage)
	}

	c.api.SetAppAccessToken(resp.Data.AccessToken)
	c.tokenSet = true
	slog.Info("Obtained Twitch app access token")
	return nil
}

func (c *Client) resolveUserID() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.userID != "" {
		return c.userID, nil
	}

	resp, err := c.api.GetUsers(&helix.UsersParams{Logins: []string{c.username}})
	if err != nil {
		return "", fmt.Errorf("user lookup failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("user lookup returned status %d: %s", resp.StatusCode, resp.ErrorMessage)
	}
	if len(resp.Data.Users) == 0 {
		return "", fmt.Errorf("twitch user %q not found", c.username)
	}

	c.userID = resp.Data.Users[0].ID
	slog.Info("Resolved Twitch user", "login", c.username, "user_id", c.userID)
	return c.userID, nil
}
