package streamlabs

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOAuthClient_AuthorizeURL(t *testing.T) {
	c := NewOAuthClient("client-id", "secret", "http://localhost:3000/auth/callback")

	raw := c.AuthorizeURL("state123")
	u, err := url.Parse(raw)
	require.NoError(t, err)

	q := u.Query()
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, "http://localhost:3000/auth/callback", q.Get("redirect_uri"))
	assert.Equal(t, "donations.read alerts.create", q.Get("scope"))
	assert.Equal(t, "state123", q.Get("state"))
}

func TestOAuthClient_ExchangeCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.Form.Get("grant_type"))
		assert.Equal(t, "the-code", r.Form.Get("code"))
		json.NewEncoder(w).Encode(map[string]string{
			"access_token":  "access",
			"refresh_token": "refresh",
		})
	}))
	defer srv.Close()

	c := NewOAuthClient("id", "secret", "http://localhost/cb")
	c.tokenURL = srv.URL

	assert.False(t, c.Authenticated())

	err := c.ExchangeCode(context.Background(), "the-code")
	require.NoError(t, err)

	assert.True(t, c.Authenticated())
	assert.Equal(t, "access", c.AccessToken())
}

func TestOAuthClient_ExchangeCodeUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	defer srv.Close()

	c := NewOAuthClient("id", "secret", "http://localhost/cb")
	c.tokenURL = srv.URL

	err := c.ExchangeCode(context.Background(), "bad-code")
	require.Error(t, err)
	assert.False(t, c.Authenticated(), "failed exchange must not authenticate")
}
