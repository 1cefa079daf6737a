package server

import (
	"context"
	"html/template"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/brockodle/twitchfollowergoal/internal/broadcast"
	"github.com/brockodle/twitchfollowergoal/internal/config"
	apperrors "github.com/brockodle/twitchfollowergoal/internal/errors"
	"github.com/brockodle/twitchfollowergoal/internal/goal"
)

// --- Mock implementations ---

type mockOAuth struct {
	authenticated bool
	exchangeErr   error
	exchangedCode string
}

func (m *mockOAuth) AuthorizeURL(state string) string {
	return "https://streamlabs.com/api/v1.0/authorize?state=" + state
}

func (m *mockOAuth) ExchangeCode(_ context.Context, code string) error {
	if m.exchangeErr != nil {
		return m.exchangeErr
	}
	m.exchangedCode = code
	m.authenticated = true
	return nil
}

func (m *mockOAuth) Authenticated() bool {
	return m.authenticated
}

type mockFollowerSource struct {
	count int
	err   error
}

func (m *mockFollowerSource) FollowerCount(_ context.Context) (int, error) {
	return m.count, m.err
}

// --- Test helpers ---

func newTestServer(t *testing.T, opts ...func(*Server)) *Server {
	t.Helper()

	widgetTmpl := template.Must(template.New("widget.html").Parse(`Widget {{.Target}} {{.WSHost}}`))

	store := sessions.NewCookieStore([]byte("test-secret-key-32-bytes-long!!!"))
	store.Options = &sessions.Options{
		Path:   "/",
		MaxAge: 3600,
	}

	e := echo.New()
	// Install error middleware for tests to match production behavior
	e.Use(apperrors.Middleware())

	hub := broadcast.NewHub(func() (goal.Projection, error) {
		return goal.Project(0, goal.DefaultTarget, "")
	})
	t.Cleanup(hub.Stop)

	srv := &Server{
		echo: e,
		config: &config.Config{
			GoalTarget:     200,
			TwitchUsername: "alpha_bit",
		},
		counter:        goal.NewCounter(15),
		oauth:          &mockOAuth{},
		hub:            hub,
		sessionStore:   store,
		widgetTemplate: widgetTmpl,
		writeLimiter:   newRequestRateLimiter(1000, 1000),
		startTime:      time.Now(),
	}

	for _, opt := range opts {
		opt(srv)
	}

	srv.registerRoutes()

	return srv
}

func withOAuth(oauth oauthService) func(*Server) {
	return func(s *Server) {
		s.oauth = oauth
	}
}

func withFollowerSource(src followerSource) func(*Server) {
	return func(s *Server) {
		s.twitch = src
	}
}

func withStartSocket(fn func()) func(*Server) {
	return func(s *Server) {
		s.startSocket = fn
	}
}

func setOAuthState(t *testing.T, srv *Server, req *http.Request, state string) {
	t.Helper()
	rec := httptest.NewRecorder()
	session, err := srv.sessionStore.Get(req, sessionName)
	require.NoError(t, err)
	session.Values[sessionKeyOAuthState] = state
	require.NoError(t, session.Save(req, rec))
	for _, cookie := range rec.Result().Cookies() {
		req.AddCookie(cookie)
	}
}

func doRequest(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)
	return rec
}

func jsonRequest(method, target, body string) *http.Request {
	if body == "" {
		return httptest.NewRequest(method, target, nil)
	}
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}
