package streamlabs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	defaultAuthorizeURL = "https://streamlabs.com/api/v2.0/authorize"
	defaultTokenURL     = "https://streamlabs.com/api/v2.0/token"
	oauthScope          = "donations.read alerts.create"
	httpCallTimeout     = 10 * time.Second
)

// OAuthClient handles the Streamlabs authorization-code flow and holds the
// resulting tokens in memory for the lifetime of the process.
type OAuthClient struct {
	clientID     string
	clientSecret string
	redirectURI  string
	authorizeURL string
	tokenURL     string
	httpClient   *http.Client

	mu           sync.RWMutex
	accessToken  string
	refreshToken string
}

// NewOAuthClient creates an OAuth client for the configured application.
func NewOAuthClient(clientID, clientSecret, redirectURI string) *OAuthClient {
	return &OAuthClient{
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURI:  redirectURI,
		authorizeURL: defaultAuthorizeURL,
		tokenURL:     defaultTokenURL,
		httpClient:   &http.Client{Timeout: httpCallTimeout},
	}
}

// AuthorizeURL builds the upstream authorization URL for the given state.
func (c *OAuthClient) AuthorizeURL(state string) string {
	q := url.Values{}
	q.Set("response_type", "code")
	q.Set("client_id", c.clientID)
	q.Set("redirect_uri", c.redirectURI)
	q.Set("scope", oauthScope)
	q.Set("state", state)
	return c.authorizeURL + "?" + q.Encode()
}

// ExchangeCode swaps an authorization code for tokens and stores them.
func (c *OAuthClient) ExchangeCode(ctx context.Context, code string) error {
	data := url.Values{}
	data.Set("grant_type", "authorization_code")
	data.Set("client_id", c.clientID)
	data.Set("client_secret", c.clientSecret)
	data.Set("redirect_uri", c.redirectURI)
	data.Set("code", code)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("streamlabs token endpoint returned status %d: %s", resp.StatusCode, string(body))
	}

	var tokenResp struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return fmt.Errorf("failed to decode token response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return fmt.Errorf("streamlabs token response missing access_token")
	}

	c.mu.Lock()
	c.accessToken = tokenResp.AccessToken
	c.refreshToken = tokenResp.RefreshToken
	c.mu.Unlock()

	return nil
}

// Authenticated reports whether an access token has been obtained.
func (c *OAuthClient) Authenticated() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken != ""
}

// AccessToken returns the current access token, or empty when not authenticated.
func (c *OAuthClient) AccessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken
}
