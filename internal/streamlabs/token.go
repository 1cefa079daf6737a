package streamlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

const defaultSocketTokenURL = "https://streamlabs.com/api/v1.0/socket/token"

// TokenSource yields the token used to authenticate the socket subscription.
type TokenSource interface {
	SocketToken(ctx context.Context) (string, error)
}

// accessTokenProvider is the subset of OAuthClient the token source needs.
type accessTokenProvider interface {
	Authenticated() bool
	AccessToken() string
}

// SocketTokenSource resolves the socket token from a pre-provisioned
// credential when available, otherwise via the upstream token-exchange
// call using the OAuth access token. The resolved token is cached.
type SocketTokenSource struct {
	preProvisioned string
	oauth          accessTokenProvider
	tokenURL       string
	httpClient     *http.Client

	mu     sync.Mutex
	cached string
}

// NewSocketTokenSource creates a token source. preProvisioned may be empty.
func NewSocketTokenSource(preProvisioned string, oauth accessTokenProvider) *SocketTokenSource {
	return &SocketTokenSource{
		preProvisioned: preProvisioned,
		oauth:          oauth,
		tokenURL:       defaultSocketTokenURL,
		httpClient:     &http.Client{Timeout: 10 * time.Second},
	}
}

// SocketToken returns the socket token, preferring the pre-provisioned
// credential. When neither a credential nor an authenticated OAuth session
// is available, it returns an error so the caller can stay in poll-only mode.
func (s *SocketTokenSource) SocketToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached != "" {
		return s.cached, nil
	}

	if s.preProvisioned != "" {
		slog.Info("Using Streamlabs socket token from environment")
		s.cached = s.preProvisioned
		return s.cached, nil
	}

	if s.oauth == nil || !s.oauth.Authenticated() {
		return "", fmt.Errorf("no socket token available: not authenticated with Streamlabs")
	}

	token, err := s.exchange(ctx, s.oauth.AccessToken())
	if err != nil {
		return "", err
	}

	slog.Info("Obtained Streamlabs socket token from API")
	s.cached = token
	return token, nil
}

func (s *SocketTokenSource) exchange(ctx context.Context, accessToken string) (string, error) {
	payload, err := json.Marshal(map[string]string{"access_token": accessToken})
	if err != nil {
		return "", fmt.Errorf("failed to marshal token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.tokenURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create socket token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("socket token exchange failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("socket token endpoint returned status %d", resp.StatusCode)
	}

	var result struct {
		SocketToken string `json:"socket_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode socket token response: %w", err)
	}
	if result.SocketToken == "" {
		return "", fmt.Errorf("socket token response missing socket_token")
	}

	return result.SocketToken, nil
}
