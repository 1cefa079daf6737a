package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
)

const (
	sessionName          = "follower-goal-session"
	sessionKeyOAuthState = "oauth_state"
	oauthTimeout         = 10 * time.Second
)

const authSuccessPage = `<!DOCTYPE html>
<html>
<head><title>Connected</title></head>
<body>
<p>✅ Streamlabs connected! You can close this window.</p>
<script>
  if (window.opener) {
    window.opener.postMessage({ type: 'AUTH_SUCCESS' }, '*');
  }
  setTimeout(function () { window.close(); }, 1500);
</script>
</body>
</html>`

const authErrorPage = `<!DOCTYPE html>
<html>
<head><title>Connection failed</title></head>
<body>
<p>❌ Streamlabs authorization failed: %s</p>
<p>Close this window and try again.</p>
</body>
</html>`

func generateOAuthState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate OAuth state: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func (s *Server) handleStreamlabsAuth(c echo.Context) error {
	state, err := generateOAuthState()
	if err != nil {
		slog.Error("Failed to generate OAuth state", "error", err)
		return c.String(500, "Internal error")
	}

	session, err := s.sessionStore.Get(c.Request(), sessionName)
	if err != nil {
		slog.Warn("Failed to get session for OAuth state", "error", err)
	}
	session.Values[sessionKeyOAuthState] = state
	if err := session.Save(c.Request(), c.Response().Writer); err != nil {
		slog.Error("Failed to save OAuth state session", "error", err)
		return c.String(500, "Internal error")
	}

	return c.Redirect(302, s.oauth.AuthorizeURL(state))
}

func (s *Server) handleOAuthCallback(c echo.Context) error {
	if errParam := c.QueryParam("error"); errParam != "" {
		slog.Warn("OAuth flow denied upstream", "error", errParam)
		return c.HTML(400, fmt.Sprintf(authErrorPage, errParam))
	}

	code := c.QueryParam("code")
	if code == "" {
		return c.HTML(400, fmt.Sprintf(authErrorPage, "missing code parameter"))
	}

	session, err := s.sessionStore.Get(c.Request(), sessionName)
	if err != nil {
		return c.HTML(400, fmt.Sprintf(authErrorPage, "invalid session"))
	}
	expectedState, ok := session.Values[sessionKeyOAuthState].(string)
	if !ok || expectedState == "" {
		return c.HTML(400, fmt.Sprintf(authErrorPage, "missing OAuth state"))
	}
	if c.QueryParam("state") != expectedState {
		return c.HTML(400, fmt.Sprintf(authErrorPage, "invalid OAuth state"))
	}
	delete(session.Values, sessionKeyOAuthState)
	if err := session.Save(c.Request(), c.Response().Writer); err != nil {
		slog.Warn("Failed to save session after state check", "error", err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), oauthTimeout)
	defer cancel()

	if err := s.oauth.ExchangeCode(ctx, code); err != nil {
		slog.Error("Failed to exchange authorization code", "error", err)
		return c.HTML(500, fmt.Sprintf(authErrorPage, "token exchange failed"))
	}

	slog.Info("Streamlabs OAuth completed, starting socket pipeline")
	s.launchSocket()

	return c.HTML(200, authSuccessPage)
}
