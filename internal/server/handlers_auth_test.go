package server

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandleStreamlabsAuth_RedirectsWithState(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(srv, jsonRequest(http.MethodGet, "/auth/streamlabs", ""))

	assert.Equal(t, 302, rec.Code)
	location := rec.Header().Get("Location")
	assert.Contains(t, location, "https://streamlabs.com/api/v1.0/authorize")
	assert.Contains(t, location, "state=")
	assert.NotEmpty(t, rec.Result().Cookies())
}

func TestHandleOAuthCallback_Success(t *testing.T) {
	oauth := &mockOAuth{}
	var socketStarted int
	srv := newTestServer(t, withOAuth(oauth), withStartSocket(func() {
		socketStarted++
	}))

	req := jsonRequest(http.MethodGet, "/auth/callback?code=abc123&state=xyz", "")
	setOAuthState(t, srv, req, "xyz")

	rec := doRequest(srv, req)

	assert.Equal(t, 200, rec.Code)
	assert.Equal(t, "abc123", oauth.exchangedCode)
	assert.Contains(t, rec.Body.String(), "{ type: 'AUTH_SUCCESS' }")
	assert.Equal(t, 1, socketStarted)
}

func TestHandleOAuthCallback_SocketStartsOnlyOnce(t *testing.T) {
	var socketStarted int
	srv := newTestServer(t, withStartSocket(func() {
		socketStarted++
	}))

	for _, state := range []string{"first", "second"} {
		req := jsonRequest(http.MethodGet, "/auth/callback?code=abc&state="+state, "")
		setOAuthState(t, srv, req, state)
		rec := doRequest(srv, req)
		assert.Equal(t, 200, rec.Code)
	}

	assert.Equal(t, 1, socketStarted)
}

func TestHandleOAuthCallback_MissingCode(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(srv, jsonRequest(http.MethodGet, "/auth/callback", ""))

	assert.Equal(t, 400, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing code")
}

func TestHandleOAuthCallback_UpstreamDenied(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(srv, jsonRequest(http.MethodGet, "/auth/callback?error=access_denied", ""))

	assert.Equal(t, 400, rec.Code)
	assert.Contains(t, rec.Body.String(), "access_denied")
}

func TestHandleOAuthCallback_StateMismatch(t *testing.T) {
	oauth := &mockOAuth{}
	srv := newTestServer(t, withOAuth(oauth))

	req := jsonRequest(http.MethodGet, "/auth/callback?code=abc&state=wrong", "")
	setOAuthState(t, srv, req, "expected")

	rec := doRequest(srv, req)

	assert.Equal(t, 400, rec.Code)
	assert.Empty(t, oauth.exchangedCode)
}

func TestHandleOAuthCallback_MissingState(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(srv, jsonRequest(http.MethodGet, "/auth/callback?code=abc&state=xyz", ""))

	assert.Equal(t, 400, rec.Code)
}

func TestHandleOAuthCallback_ExchangeFails(t *testing.T) {
	var socketStarted int
	srv := newTestServer(t,
		withOAuth(&mockOAuth{exchangeErr: fmt.Errorf("upstream rejected code")}),
		withStartSocket(func() { socketStarted++ }),
	)

	req := jsonRequest(http.MethodGet, "/auth/callback?code=abc&state=xyz", "")
	setOAuthState(t, srv, req, "xyz")

	rec := doRequest(srv, req)

	assert.Equal(t, 500, rec.Code)
	assert.Equal(t, 0, socketStarted)
}
